package turn

import (
	"errors"
	"fmt"

	"github.com/zhouzirui/moodchat/backend/internal/analysis/text"
	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

// ErrBlankInput rejects submissions without text to process.
var ErrBlankInput = errors.New("input is required")

// Submission is a turn request as clients send it. Unset generation knobs fall
// back to the server defaults.
type Submission struct {
	Input           string   `json:"input"`
	Need            string   `json:"need,omitempty"`
	Model           string   `json:"model,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

// Request validates the submission and resolves its settings against defaults.
func (s Submission) Request(defaults chat.Settings) (Request, error) {
	if text.IsBlank(s.Input) {
		return Request{}, ErrBlankInput
	}

	// Explicit values are validated as sent; only the server defaults are filled.
	settings := defaults.WithDefaults()
	if s.Model != "" {
		settings.Model = s.Model
	}
	if s.MaxOutputTokens != nil {
		settings.MaxOutputTokens = *s.MaxOutputTokens
	}
	if s.Temperature != nil {
		settings.Temperature = *s.Temperature
	}

	if err := settings.Validate(); err != nil {
		return Request{}, fmt.Errorf("invalid settings: %w", err)
	}
	return Request{Input: s.Input, Hint: s.Need, Settings: settings}, nil
}
