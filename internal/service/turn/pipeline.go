package turn

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/moodchat/backend/internal/analysis/text"
	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/ai"
)

// Intent generation uses fixed knobs regardless of the user's settings.
const (
	intentMaxOutputTokens = 150
	intentTemperature     = 0.5
)

// Classifier is the sentiment and emotion capability. Implementations never
// fail; they degrade to a neutral score.
type Classifier interface {
	Sentiment(ctx context.Context, text string) chat.Score
	Emotion(ctx context.Context, text string) chat.Score
}

// Generator produces text for a prompt and never fails.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ai.Options) string
}

// Request is one user submission.
type Request struct {
	Input    string
	Hint     string
	Settings chat.Settings
}

// Stage names reported to observers.
const (
	StageAnalysis = "analysis"
	StageIntent   = "intent"
)

// Event reports a finished pipeline stage. Only the fields of that stage are set.
type Event struct {
	Stage     string      `json:"stage"`
	UserText  string      `json:"userText,omitempty"`
	Sentiment *chat.Score `json:"sentiment,omitempty"`
	Emotion   *chat.Score `json:"emotion,omitempty"`
	Tone      string      `json:"tone,omitempty"`
	Intent    string      `json:"intent,omitempty"`
}

// Observer receives stage events while a turn is being processed.
type Observer func(Event)

// Pipeline turns raw user input into a conversation turn.
type Pipeline struct {
	classifier Classifier
	generator  Generator
	log        *logrus.Entry
	now        func() time.Time
}

// NewPipeline wires the pipeline collaborators.
func NewPipeline(classifier Classifier, generator Generator, log *logrus.Entry) *Pipeline {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{
		classifier: classifier,
		generator:  generator,
		log:        log.WithField("component", "turn"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Process runs every stage and returns the completed turn.
func (p *Pipeline) Process(ctx context.Context, req Request) chat.Turn {
	return p.ProcessObserved(ctx, req, nil)
}

// ProcessObserved is Process with stage notifications. observe may be nil.
func (p *Pipeline) ProcessObserved(ctx context.Context, req Request, observe Observer) chat.Turn {
	if observe == nil {
		observe = func(Event) {}
	}

	normalized := text.Normalize(req.Input)

	sentiment, emotion := p.classify(ctx, normalized)
	emotionLabel := emotion.Label
	if emotionLabel == "" {
		emotionLabel = chat.NeutralLabel
	}
	tone := DeriveTone(emotionLabel)
	observe(Event{
		Stage:     StageAnalysis,
		UserText:  normalized,
		Sentiment: &sentiment,
		Emotion:   &chat.Score{Label: emotionLabel, Score: emotion.Score},
		Tone:      tone,
	})

	intent := p.generator.Generate(ctx, IntentPrompt(normalized, req.Hint), ai.Options{
		Model:           req.Settings.Model,
		MaxOutputTokens: intentMaxOutputTokens,
		Temperature:     intentTemperature,
		UserNeedHint:    req.Hint,
	})
	observe(Event{Stage: StageIntent, Intent: intent})

	reply := p.generator.Generate(ctx, ReplyPrompt(tone, normalized, emotionLabel, sentiment, intent), ai.Options{
		Model:           req.Settings.Model,
		MaxOutputTokens: req.Settings.MaxOutputTokens,
		Temperature:     req.Settings.Temperature,
		UserNeedHint:    req.Hint,
	})

	turn := chat.Turn{
		ID:           uuid.NewString(),
		UserText:     normalized,
		BotReply:     reply,
		Sentiment:    sentiment,
		Emotion:      emotionLabel,
		EmotionScore: emotion.Score,
		Intent:       intent,
		CreatedAt:    p.now(),
	}

	p.log.WithFields(logrus.Fields{
		"sentiment": sentiment.Label,
		"emotion":   emotionLabel,
		"tone":      tone,
		"replyLen":  len(reply),
	}).Info("turn processed")
	return turn
}

// classify runs both classifiers side by side; neither can fail.
func (p *Pipeline) classify(ctx context.Context, normalized string) (chat.Score, chat.Score) {
	var sentiment, emotion chat.Score

	var g errgroup.Group
	g.Go(func() error {
		sentiment = p.classifier.Sentiment(ctx, normalized)
		return nil
	})
	g.Go(func() error {
		emotion = p.classifier.Emotion(ctx, normalized)
		return nil
	})
	_ = g.Wait()

	return sentiment, emotion
}
