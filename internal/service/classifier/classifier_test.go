package classifier

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

func staticScorer(scores []chat.Score, err error) Scorer {
	return ScorerFunc(func(context.Context, string) ([]chat.Score, error) {
		return scores, err
	})
}

func TestTopPicksHighestAndKeepsFirstOnTie(t *testing.T) {
	best, ok := Top([]chat.Score{
		{Label: "joy", Score: 0.4},
		{Label: "sadness", Score: 0.4},
		{Label: "fear", Score: 0.2},
	})
	assert.True(t, ok)
	assert.Equal(t, chat.Score{Label: "joy", Score: 0.4}, best)

	best, ok = Top([]chat.Score{{Label: "a", Score: 0.1}, {Label: "b", Score: 0.9}})
	assert.True(t, ok)
	assert.Equal(t, "b", best.Label)
}

func TestTopClampsAndSkipsInvalid(t *testing.T) {
	best, ok := Top([]chat.Score{
		{Label: "", Score: 0.99},
		{Label: "nan", Score: math.NaN()},
		{Label: "big", Score: 3.5},
	})
	assert.True(t, ok)
	assert.Equal(t, chat.Score{Label: "big", Score: 1}, best)

	_, ok = Top(nil)
	assert.False(t, ok)
}

func TestServiceDegradesToNeutral(t *testing.T) {
	ctx := context.Background()
	neutral := chat.Score{Label: "neutral", Score: 0}

	failing := NewService(staticScorer(nil, errors.New("model unavailable")), staticScorer(nil, errors.New("boom")), nil)
	assert.Equal(t, neutral, failing.Sentiment(ctx, "hello"))
	assert.Equal(t, neutral, failing.Emotion(ctx, "hello"))

	missing := NewService(nil, nil, nil)
	assert.Equal(t, neutral, missing.Sentiment(ctx, "hello"))
	assert.Equal(t, neutral, missing.Emotion(ctx, "hello"))

	empty := NewService(staticScorer([]chat.Score{}, nil), staticScorer(nil, nil), nil)
	assert.Equal(t, neutral, empty.Sentiment(ctx, "hello"))
	assert.Equal(t, neutral, empty.Emotion(ctx, "hello"))

	panicking := NewService(ScorerFunc(func(context.Context, string) ([]chat.Score, error) {
		panic("pipeline exploded")
	}), nil, nil)
	assert.Equal(t, neutral, panicking.Sentiment(ctx, "hello"))
}

func TestServiceReturnsTopScores(t *testing.T) {
	svc := NewService(
		staticScorer([]chat.Score{{Label: "NEGATIVE", Score: 0.91}, {Label: "POSITIVE", Score: 0.09}}, nil),
		staticScorer([]chat.Score{{Label: "joy", Score: 0.1}, {Label: "sadness", Score: 0.8}}, nil),
		nil,
	)

	assert.Equal(t, chat.Score{Label: "NEGATIVE", Score: 0.91}, svc.Sentiment(context.Background(), "I lost my job"))
	assert.Equal(t, chat.Score{Label: "sadness", Score: 0.8}, svc.Emotion(context.Background(), "I lost my job"))
}

func TestLexiconScorersThroughService(t *testing.T) {
	svc := NewService(LexiconSentiment(), LexiconEmotion(), nil)
	ctx := context.Background()

	emotion := svc.Emotion(ctx, "I lost my job today")
	assert.Equal(t, "sadness", emotion.Label)
	assert.InDelta(t, 1.0, emotion.Score, 1e-9)

	sentiment := svc.Sentiment(ctx, "I lost my job today")
	assert.Equal(t, "NEGATIVE", sentiment.Label)
}
