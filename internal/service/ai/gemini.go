package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Fixed replies for Gemini responses without usable text.
const (
	GeminiEmptyCandidates = "Gemini returned empty candidates."
	GeminiNoContent       = "Gemini returned no valid content."
)

// GeminiConfig configures the hosted Gemini backend.
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, mainly for tests and proxies.
	BaseURL string
}

// Gemini generates text with the Gemini API.
type Gemini struct {
	models *genai.Models
}

// NewGemini creates the Gemini backend. It fails when the key is missing or
// the client cannot be built, in which case the backend is left out.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{models: client.Models}, nil
}

// Name implements Backend.
func (g *Gemini) Name() string {
	return "gemini"
}

// Generate implements Backend.
func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if opts.Model == "" {
		return "", fmt.Errorf("gemini model is required")
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(opts.MaxOutputTokens),
		Temperature:     genai.Ptr(float32(opts.Temperature)),
	}

	resp, err := g.models.GenerateContent(ctx, opts.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("generate content: empty response")
	}
	return extractGeminiText(resp), nil
}

// extractGeminiText prefers the aggregated response text, then the first
// candidate carrying text, then one of the fixed "no content" replies.
func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text
	}
	if len(resp.Candidates) == 0 {
		return GeminiNoContent
	}
	for _, candidate := range resp.Candidates {
		if text := strings.TrimSpace(candidateText(candidate)); text != "" {
			return text
		}
	}
	return GeminiEmptyCandidates
}

func candidateText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}
