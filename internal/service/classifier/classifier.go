package classifier

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

// Scorer returns per-label scores for a text, in the backend's own order.
type Scorer interface {
	Score(ctx context.Context, text string) ([]chat.Score, error)
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(ctx context.Context, text string) ([]chat.Score, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, text string) ([]chat.Score, error) {
	return f(ctx, text)
}

// Service exposes sentiment and emotion classification. It never fails: a
// missing or broken scorer yields the neutral score.
type Service struct {
	sentiment Scorer
	emotion   Scorer
	log       *logrus.Entry
}

// NewService wires the two scorers. Either may be nil.
func NewService(sentiment, emotion Scorer, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		sentiment: sentiment,
		emotion:   emotion,
		log:       log.WithField("component", "classifier"),
	}
}

// Sentiment returns the polarity label of text.
func (s *Service) Sentiment(ctx context.Context, text string) chat.Score {
	return s.classify(ctx, "sentiment", s.sentiment, text)
}

// Emotion returns the highest scoring emotion of text.
func (s *Service) Emotion(ctx context.Context, text string) chat.Score {
	return s.classify(ctx, "emotion", s.emotion, text)
}

func (s *Service) classify(ctx context.Context, task string, scorer Scorer, text string) (result chat.Score) {
	if scorer == nil {
		return chat.NeutralScore()
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("task", task).Errorf("scorer panicked: %v", r)
			result = chat.NeutralScore()
		}
	}()

	scores, err := scorer.Score(ctx, text)
	if err != nil {
		s.log.WithField("task", task).WithError(err).Warn("classification unavailable, using neutral")
		return chat.NeutralScore()
	}

	best, ok := Top(scores)
	if !ok {
		s.log.WithField("task", task).Warn("classifier returned no scores, using neutral")
		return chat.NeutralScore()
	}
	return best
}

// Top picks the highest score. Exact ties keep the first one seen. Scores are
// clamped into [0,1]; entries without a label or with NaN scores are skipped.
func Top(scores []chat.Score) (chat.Score, bool) {
	var (
		best  chat.Score
		found bool
	)
	for _, candidate := range scores {
		if candidate.Label == "" || math.IsNaN(candidate.Score) {
			continue
		}
		candidate.Score = clamp(candidate.Score)
		if !found || candidate.Score > best.Score {
			best = candidate
			found = true
		}
	}
	return best, found
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
