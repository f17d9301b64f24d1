package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatModel "github.com/zhouzirui/moodchat/backend/internal/model/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/ai"
	chatService "github.com/zhouzirui/moodchat/backend/internal/service/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/classifier"
	"github.com/zhouzirui/moodchat/backend/internal/service/turn"
)

func newTestRouter() http.Handler {
	cls := classifier.NewService(classifier.LexiconSentiment(), classifier.LexiconEmotion(), nil)
	return NewRouter(Dependencies{
		Chat:     chatService.NewService(),
		Pipeline: turn.NewPipeline(cls, ai.NewGenerator(nil), nil),
		Defaults: chatModel.DefaultSettings(),
	})
}

func TestRouterServesPageAndAPI(t *testing.T) {
	r := newTestRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterTurnWithoutBackendsReturnsDiagnostic(t *testing.T) {
	r := newTestRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	assert.Equal(t, http.StatusCreated, resp.Code)
	var session chatModel.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/turns", strings.NewReader(`{"input":"hello there"}`))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code)

	var body struct {
		Turn chatModel.Turn `json:"turn"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, ai.UnavailableMessage, body.Turn.Intent)
	assert.Equal(t, ai.UnavailableMessage, body.Turn.BotReply)
}
