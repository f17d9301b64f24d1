package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/moodchat/backend/internal/analysis/text"
)

// UnavailableMessage is returned as the reply when no backend can answer.
const UnavailableMessage = "Error: No LLM available. Check Gemini key or install HuggingFace transformers."

// ErrGenerationUnavailable means every configured backend failed or none exists.
var ErrGenerationUnavailable = errors.New("generation unavailable")

const systemPreamble = `
You are an empathetic emotional-support AI chatbot.
Provide a clear explanation of the user's input.
Respond in short, human-like, point-wise format if possible.
`

// Options tune a single generation call.
type Options struct {
	Model           string
	MaxOutputTokens int
	Temperature     float64
	UserNeedHint    string
}

// Backend is one generation capability provider.
type Backend interface {
	Name() string
	// Generate receives the fully composed prompt.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// BackendError reports a failed call on one backend.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Generator tries its backends in a fixed order for every call.
type Generator struct {
	backends []Backend
	timeout  time.Duration
	log      *logrus.Entry
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithTimeout bounds each backend call. Zero disables the bound.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithLogger sets the logger used for backend failures.
func WithLogger(log *logrus.Entry) GeneratorOption {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGenerator returns a Generator over backends, first one preferred.
func NewGenerator(backends []Backend, opts ...GeneratorOption) *Generator {
	g := &Generator{
		backends: append([]Backend(nil), backends...),
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.WithField("component", "generator")
	return g
}

// Backends lists the configured backend names in call order.
func (g *Generator) Backends() []string {
	names := make([]string, 0, len(g.backends))
	for _, b := range g.backends {
		names = append(names, b.Name())
	}
	return names
}

// Generate never fails: when no backend answers it returns UnavailableMessage.
func (g *Generator) Generate(ctx context.Context, prompt string, opts Options) string {
	reply, err := g.TryGenerate(ctx, prompt, opts)
	if err != nil {
		g.log.WithError(err).Warn("no backend produced a reply")
		return UnavailableMessage
	}
	return reply
}

// TryGenerate composes the prompt and asks each backend in turn. A failing
// backend is logged and skipped for this call only.
func (g *Generator) TryGenerate(ctx context.Context, prompt string, opts Options) (string, error) {
	fullPrompt := ComposePrompt(prompt, opts.UserNeedHint)

	for _, backend := range g.backends {
		reply, err := g.call(ctx, backend, fullPrompt, opts)
		if err == nil {
			return reply, nil
		}

		g.log.WithError(err).WithField("backend", backend.Name()).Warn("generation backend failed, trying next")
		if ctx.Err() != nil {
			break
		}
	}
	return "", ErrGenerationUnavailable
}

func (g *Generator) call(ctx context.Context, backend Backend, prompt string, opts Options) (string, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reply, err := backend.Generate(callCtx, prompt, opts)
	if err != nil {
		return "", &BackendError{Backend: backend.Name(), Err: err}
	}
	return reply, nil
}

// ComposePrompt wraps prompt with the assistant preamble and the optional
// user need hint.
func ComposePrompt(prompt, hint string) string {
	var builder strings.Builder
	builder.WriteString(systemPreamble)
	if !text.IsBlank(hint) {
		builder.WriteString("\n\nAdditional context from user: ")
		builder.WriteString(strings.TrimSpace(hint))
	}
	builder.WriteString("\n\nUser Input:\n")
	builder.WriteString(prompt)
	builder.WriteString("\n\nAssistant:")
	return builder.String()
}
