package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/moodchat/backend/internal/analysis/emotion"
)

// Provider names accepted by New.
const (
	ProviderHuggingFace = "huggingface"
	ProviderLexicon     = "lexicon"
	ProviderLLM         = "llm"
)

// ErrUnknownProvider is returned for unsupported provider names.
var ErrUnknownProvider = errors.New("unknown classifier provider")

// Config selects and configures the classifier backend.
type Config struct {
	Provider       string
	InferenceURL   string
	Token          string
	SentimentModel string
	EmotionModel   string
	Timeout        time.Duration
}

// New builds the classification service for cfg. A provider that cannot be
// constructed leaves its scorers empty, so every call degrades to neutral.
// Only an unknown provider name is an error.
func New(ctx context.Context, cfg Config, chatModel model.ChatModel, log *logrus.Entry) (*Service, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	switch cfg.Provider {
	case ProviderLexicon:
		return NewService(LexiconSentiment(), LexiconEmotion(), log), nil

	case ProviderHuggingFace:
		var sentiment, emotions Scorer
		if s, err := NewHuggingFace(HuggingFaceConfig{
			BaseURL: cfg.InferenceURL,
			Model:   cfg.SentimentModel,
			Token:   cfg.Token,
			Timeout: cfg.Timeout,
		}); err != nil {
			log.WithError(err).Warn("sentiment classifier init failed, sentiment will be neutral")
		} else {
			sentiment = s
		}
		if s, err := NewHuggingFace(HuggingFaceConfig{
			BaseURL: cfg.InferenceURL,
			Model:   cfg.EmotionModel,
			Token:   cfg.Token,
			TopK:    len(emotion.EmotionLabels),
			Timeout: cfg.Timeout,
		}); err != nil {
			log.WithError(err).Warn("emotion classifier init failed, emotion will be neutral")
		} else {
			emotions = s
		}
		return NewService(sentiment, emotions, log), nil

	case ProviderLLM:
		if chatModel == nil {
			log.Warn("llm classifier requested but no chat model is configured, classification will be neutral")
			return NewService(nil, nil, log), nil
		}
		var sentiment, emotions Scorer
		if s, err := NewLLM(ctx, chatModel, "sentiment", emotion.SentimentLabels); err != nil {
			log.WithError(err).Warn("sentiment classifier init failed, sentiment will be neutral")
		} else {
			sentiment = s
		}
		if s, err := NewLLM(ctx, chatModel, "emotion", emotion.EmotionLabels); err != nil {
			log.WithError(err).Warn("emotion classifier init failed, emotion will be neutral")
		} else {
			emotions = s
		}
		return NewService(sentiment, emotions, log), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
