package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func textCandidate(texts ...string) *genai.Candidate {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.Candidate{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}
}

func TestExtractGeminiTextPrefersResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{textCandidate("  - breathe\n", "- rest  ")}}
	assert.Equal(t, "- breathe\n- rest", extractGeminiText(resp))
}

func TestExtractGeminiTextFallsBackToLaterCandidate(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		textCandidate("second candidate"),
	}}
	assert.Equal(t, "second candidate", extractGeminiText(resp))
}

func TestExtractGeminiTextFixedMessages(t *testing.T) {
	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{textCandidate("   "), {Content: nil}}}
	assert.Equal(t, GeminiEmptyCandidates, extractGeminiText(empty))

	none := &genai.GenerateContentResponse{}
	assert.Equal(t, GeminiNoContent, extractGeminiText(none))
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{APIKey: " "})
	assert.Error(t, err)
}
