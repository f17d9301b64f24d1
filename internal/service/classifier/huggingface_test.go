package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
)

func TestHuggingFaceScoreNested(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`[[{"label":"sadness","score":0.87},{"label":"fear","score":0.08}]]`))
	}))
	defer srv.Close()

	scorer, err := NewHuggingFace(HuggingFaceConfig{BaseURL: srv.URL + "/", Model: "j-hartmann/emotion", Token: "hf_token", TopK: 7})
	require.NoError(t, err)

	scores, err := scorer.Score(context.Background(), "I lost my job today")
	require.NoError(t, err)
	assert.Equal(t, []chat.Score{{Label: "sadness", Score: 0.87}, {Label: "fear", Score: 0.08}}, scores)

	assert.Equal(t, "/models/j-hartmann/emotion", gotPath)
	assert.Equal(t, "Bearer hf_token", gotAuth)
	assert.Equal(t, "I lost my job today", gotBody["inputs"])
	assert.Equal(t, map[string]any{"top_k": float64(7)}, gotBody["parameters"])
}

func TestHuggingFaceScoreFlat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"POSITIVE","score":0.99}]`))
	}))
	defer srv.Close()

	scorer, err := NewHuggingFace(HuggingFaceConfig{BaseURL: srv.URL, Model: "sst2"})
	require.NoError(t, err)

	scores, err := scorer.Score(context.Background(), "great")
	require.NoError(t, err)
	assert.Equal(t, []chat.Score{{Label: "POSITIVE", Score: 0.99}}, scores)
}

func TestHuggingFaceScoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer srv.Close()

	scorer, err := NewHuggingFace(HuggingFaceConfig{BaseURL: srv.URL, Model: "sst2"})
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), "great")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	_, err = NewHuggingFace(HuggingFaceConfig{})
	assert.Error(t, err)
}

func TestParseInferenceScoresRejectsGarbage(t *testing.T) {
	_, err := parseInferenceScores([]byte(`{"error":"bad"}`))
	assert.Error(t, err)

	_, err = parseInferenceScores([]byte(`[]`))
	assert.Error(t, err)
}
