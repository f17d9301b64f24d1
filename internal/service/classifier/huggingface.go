package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

// Default Hugging Face inference settings.
const (
	DefaultInferenceURL   = "https://api-inference.huggingface.co"
	DefaultSentimentModel = "distilbert-base-uncased-finetuned-sst-2-english"
	DefaultEmotionModel   = "j-hartmann/emotion-english-distilroberta-base"
)

// HuggingFaceConfig describes one hosted text-classification model.
type HuggingFaceConfig struct {
	BaseURL string
	Model   string
	Token   string
	// TopK asks for that many labels; zero leaves the model default.
	TopK    int
	Timeout time.Duration
}

// HuggingFace scores text through the Hugging Face inference API.
type HuggingFace struct {
	endpoint string
	model    string
	token    string
	topK     int
	client   *http.Client
}

// NewHuggingFace creates a text-classification scorer.
func NewHuggingFace(cfg HuggingFaceConfig) (*HuggingFace, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("huggingface model is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultInferenceURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HuggingFace{
		endpoint: base + "/models/" + cfg.Model,
		model:    cfg.Model,
		token:    cfg.Token,
		topK:     cfg.TopK,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type inferenceRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters *inferenceParameters `json:"parameters,omitempty"`
	Options    inferenceOptions     `json:"options"`
}

type inferenceParameters struct {
	TopK int `json:"top_k"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Score implements Scorer.
func (h *HuggingFace) Score(ctx context.Context, text string) ([]chat.Score, error) {
	payload := inferenceRequest{Inputs: text, Options: inferenceOptions{WaitForModel: true}}
	if h.topK > 0 {
		payload.Parameters = &inferenceParameters{TopK: h.topK}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface %s: %w", h.model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("huggingface %s: read body: %w", h.model, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface %s: status %d: %s", h.model, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return parseInferenceScores(raw)
}

// parseInferenceScores accepts both the batched [[...]] and flat [...] shapes.
func parseInferenceScores(raw []byte) ([]chat.Score, error) {
	var nested [][]chat.Score
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("empty inference result")
		}
		return nested[0], nil
	}

	var flat []chat.Score
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode inference result: %w", err)
	}
	return flat, nil
}
