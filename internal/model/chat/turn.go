package chat

import (
	"time"
	"unicode/utf8"
)

// NeutralLabel is reported when a classifier has nothing better to say.
const NeutralLabel = "neutral"

// Score is a classifier label with its confidence in [0,1].
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NeutralScore is the degraded classifier result.
func NeutralScore() Score {
	return Score{Label: NeutralLabel, Score: 0}
}

// Turn is one user-input/assistant-reply exchange plus its derived metadata.
// A Turn is immutable once the pipeline returns it.
type Turn struct {
	ID           string    `json:"id"`
	UserText     string    `json:"userText"`
	BotReply     string    `json:"botReply"`
	Sentiment    Score     `json:"sentiment"`
	Emotion      string    `json:"emotion"`
	EmotionScore float64   `json:"emotionScore"`
	Intent       string    `json:"intent"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryEntry is one row of the selectable history list.
type HistoryEntry struct {
	Index   int    `json:"index"`
	Preview string `json:"preview"`
}

const previewRunes = 30

// Preview shortens the user text for the history list.
func (t Turn) Preview() string {
	text := t.UserText
	if utf8.RuneCountInString(text) > previewRunes {
		text = string([]rune(text)[:previewRunes])
	}
	return text + "..."
}
