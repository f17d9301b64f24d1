package chat

import "fmt"

// Generation defaults and the bounds the front-end exposes.
const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultMaxOutputTokens = 250
	DefaultTemperature     = 0.7

	MinMaxOutputTokens = 50
	MaxMaxOutputTokens = 1024
	MinTemperature     = 0.0
	MaxTemperature     = 1.0
)

// Settings are the per-turn generation knobs chosen by the user.
type Settings struct {
	Model           string  `json:"model"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// DefaultSettings returns the settings used when the client sends none.
func DefaultSettings() Settings {
	return Settings{
		Model:           DefaultModel,
		MaxOutputTokens: DefaultMaxOutputTokens,
		Temperature:     DefaultTemperature,
	}
}

// Validate reports values outside the supported bounds.
func (s Settings) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.MaxOutputTokens < MinMaxOutputTokens || s.MaxOutputTokens > MaxMaxOutputTokens {
		return fmt.Errorf("maxOutputTokens must be between %d and %d, got %d", MinMaxOutputTokens, MaxMaxOutputTokens, s.MaxOutputTokens)
	}
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("temperature must be between %.1f and %.1f, got %g", MinTemperature, MaxTemperature, s.Temperature)
	}
	return nil
}

// WithDefaults fills zero fields from DefaultSettings. A zero temperature is
// a valid choice, so Temperature is left alone.
func (s Settings) WithDefaults() Settings {
	defaults := DefaultSettings()
	if s.Model == "" {
		s.Model = defaults.Model
	}
	if s.MaxOutputTokens == 0 {
		s.MaxOutputTokens = defaults.MaxOutputTokens
	}
	return s
}
