package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultLocalModel is the open-weight model served for the fallback path.
const DefaultLocalModel = "distilgpt2"

// LocalConfig points at an OpenAI-compatible completion server such as
// llama.cpp, vLLM or text-generation-inference.
type LocalConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Local generates text with a locally served open-weight model. Plain
// text-generation models echo their prompt, which is stripped.
type Local struct {
	client openai.Client
	model  string
}

// NewLocal creates the local fallback backend.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("local llm base url is not configured")
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultLocalModel
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// local servers ignore the key
		apiKey = "local"
	}

	client := openai.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &Local{client: client, model: modelName}, nil
}

// Name implements Backend.
func (l *Local) Name() string {
	return "local"
}

// Generate implements Backend. Options.Model names the hosted model and is
// not used; the served model comes from LocalConfig.
func (l *Local) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(l.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxOutputTokens))
	}

	completion, err := l.client.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return stripEcho(completion.Choices[0].Text, prompt), nil
}

// stripEcho removes a leading copy of prompt from generated text.
func stripEcho(generated, prompt string) string {
	generated = strings.TrimPrefix(generated, prompt)
	return strings.TrimSpace(generated)
}
