// Package app assembles the turn pipeline from configuration. Both the HTTP
// server and the probe tool start from here.
package app

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/moodchat/backend/internal/config"
	"github.com/zhouzirui/moodchat/backend/internal/service/ai"
	"github.com/zhouzirui/moodchat/backend/internal/service/classifier"
	"github.com/zhouzirui/moodchat/backend/internal/service/turn"
)

// App holds the wired services.
type App struct {
	Classifier *classifier.Service
	Generator  *ai.Generator
	Pipeline   *turn.Pipeline
}

// Build chooses the generation backends once, in preference order, and wires
// the classifier and the pipeline. Backends that fail to initialize are
// skipped with a warning; only an unknown classifier provider is fatal.
func Build(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*App, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	backends, chatModel := buildBackends(ctx, cfg, log)
	generator := ai.NewGenerator(backends,
		ai.WithTimeout(cfg.Generation.Timeout),
		ai.WithLogger(log),
	)
	if len(backends) == 0 {
		log.Warn("no generation backend configured, every reply will be the diagnostic message")
	} else {
		log.WithField("backends", generator.Backends()).Info("generation backends ready")
	}

	cls, err := classifier.New(ctx, classifier.Config{
		Provider:       cfg.Classifier.Provider,
		InferenceURL:   cfg.Classifier.InferenceURL,
		Token:          cfg.Classifier.Token,
		SentimentModel: cfg.Classifier.SentimentModel,
		EmotionModel:   cfg.Classifier.EmotionModel,
		Timeout:        cfg.Classifier.Timeout,
	}, chatModel, log)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	log.WithField("provider", cfg.Classifier.Provider).Info("classifier ready")

	return &App{
		Classifier: cls,
		Generator:  generator,
		Pipeline:   turn.NewPipeline(cls, generator, log),
	}, nil
}

// buildBackends returns Gemini, Ark and Local in that order, each only when
// configured. The Ark chat model is returned for the llm classifier.
func buildBackends(ctx context.Context, cfg *config.Config, log *logrus.Entry) ([]ai.Backend, model.ChatModel) {
	var backends []ai.Backend
	var chatModel model.ChatModel

	if cfg.Gemini.Enabled() {
		gemini, err := ai.NewGemini(ctx, ai.GeminiConfig{APIKey: cfg.Gemini.APIKey, BaseURL: cfg.Gemini.BaseURL})
		if err != nil {
			log.WithError(err).Warn("gemini backend unavailable")
		} else {
			backends = append(backends, gemini)
		}
	} else {
		log.Info("GEMINI_API_KEY not set, skipping gemini backend")
	}

	if cfg.Ark.Enabled() {
		cm, err := cfg.Ark.NewChatModel(ctx)
		if err != nil {
			log.WithError(err).Warn("ark chat model unavailable")
		} else if backend, err := ai.NewChatModelBackend(ctx, "ark", cm); err != nil {
			log.WithError(err).Warn("ark backend unavailable")
		} else {
			backends = append(backends, backend)
			chatModel = backend.ChatModel()
		}
	}

	if cfg.Local.Enabled() {
		local, err := ai.NewLocal(ai.LocalConfig{
			BaseURL: cfg.Local.BaseURL,
			Model:   cfg.Local.Model,
			APIKey:  cfg.Local.APIKey,
		})
		if err != nil {
			log.WithError(err).Warn("local backend unavailable")
		} else {
			backends = append(backends, local)
		}
	}

	return backends, chatModel
}
