package classifier

import (
	"context"

	"github.com/zhouzirui/moodchat/backend/internal/analysis/emotion"
	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

// LexiconSentiment scores polarity with the offline keyword lexicon.
func LexiconSentiment() Scorer {
	return ScorerFunc(func(_ context.Context, text string) ([]chat.Score, error) {
		return emotion.ScoreSentiment(text), nil
	})
}

// LexiconEmotion scores emotions with the offline keyword lexicon.
func LexiconEmotion() Scorer {
	return ScorerFunc(func(_ context.Context, text string) ([]chat.Score, error) {
		return emotion.ScoreEmotions(text), nil
	})
}
