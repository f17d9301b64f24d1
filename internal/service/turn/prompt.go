package turn

import (
	"fmt"

	"github.com/zhouzirui/moodchat/backend/internal/analysis/text"
	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

// Reply tones.
const (
	ToneEmpathetic = "empathetic"
	ToneFriendly   = "friendly"
)

// DeriveTone picks the reply style for an emotion label.
func DeriveTone(emotion string) string {
	switch emotion {
	case "sadness", "fear", "anger":
		return ToneEmpathetic
	default:
		return ToneFriendly
	}
}

// IntentPrompt asks the model for the user's main need.
func IntentPrompt(normalized, hint string) string {
	prompt := fmt.Sprintf("Determine the user's main need or intent from: '%s'", normalized)
	if !text.IsBlank(hint) {
		prompt += fmt.Sprintf(" User additionally says: '%s'", hint)
	}
	return prompt
}

// ReplyPrompt asks the model for the final, tone-adapted answer.
func ReplyPrompt(tone, normalized, emotion string, sentiment chat.Score, intent string) string {
	return fmt.Sprintf("You are a %s AI assistant.\n", tone) +
		fmt.Sprintf("Explain the input '%s' in short points.\n", normalized) +
		fmt.Sprintf("Detected emotion: %s\n", emotion) +
		fmt.Sprintf("Sentiment: %s (score %.2f)\n", sentiment.Label, sentiment.Score) +
		fmt.Sprintf("User intent/need: %s\n", intent) +
		"Provide a helpful, human-like response considering user emotion and intent."
}
