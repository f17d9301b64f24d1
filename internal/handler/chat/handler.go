package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/moodchat/backend/internal/service/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/turn"
	"github.com/zhouzirui/moodchat/backend/pkg/utils"
)

// Handler 会话、对话轮次与选中状态的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	pipeline *turn.Pipeline
	defaults chat.Settings
	backends []string
	log      *logrus.Entry
}

// New 创建聊天处理器。defaults 用于补全请求未设置的参数，backends 由设置接口返回。
func New(chatSvc *chatService.Service, pipeline *turn.Pipeline, defaults chat.Settings, backends []string, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		chatSvc:  chatSvc,
		pipeline: pipeline,
		defaults: defaults,
		backends: backends,
		log:      log.WithField("component", "chat-handler"),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleSettings)
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Post("/turns", h.handleCreateTurn)
		r.Get("/turns", h.handleListTurns)
		r.Get("/turns/{index}", h.handleGetTurn)
		r.Get("/history", h.handleHistory)
		r.Get("/selection", h.handleGetSelection)
		r.Put("/selection", h.handleSelect)
	})
}

type bounds[T int | float64] struct {
	Min T `json:"min"`
	Max T `json:"max"`
}

type settingsResponse struct {
	Defaults        chat.Settings   `json:"defaults"`
	MaxOutputTokens bounds[int]     `json:"maxOutputTokens"`
	Temperature     bounds[float64] `json:"temperature"`
	Backends        []string        `json:"backends"`
}

type turnResponse struct {
	Index int       `json:"index"`
	Turn  chat.Turn `json:"turn"`
}

type selectRequest struct {
	Index *int `json:"index"`
}

func (h *Handler) handleSettings(w http.ResponseWriter, _ *http.Request) {
	backends := h.backends
	if backends == nil {
		backends = []string{}
	}
	utils.RespondJSON(w, http.StatusOK, settingsResponse{
		Defaults:        h.defaults,
		MaxOutputTokens: bounds[int]{Min: chat.MinMaxOutputTokens, Max: chat.MaxMaxOutputTokens},
		Temperature:     bounds[float64]{Min: chat.MinTemperature, Max: chat.MaxTemperature},
		Backends:        backends,
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.log.WithField("session", session.ID).Info("session created")
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleCreateTurn(w http.ResponseWriter, r *http.Request) {
	var submission turn.Submission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := submission.Request(h.defaults)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 客户端断开后已开始的轮次仍会完成并记录，单次后端调用仍受 GENERATION_TIMEOUT 限制。
	ctx := context.WithoutCancel(r.Context())
	sessionID := chi.URLParam(r, "sessionID")
	result, index, err := h.chatSvc.RunTurn(ctx, sessionID, func() chat.Turn {
		return h.pipeline.Process(ctx, req)
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, turnResponse{Index: index, Turn: result})
}

func (h *Handler) handleListTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.chatSvc.Turns(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turns)
}

func (h *Handler) handleGetTurn(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	result, err := h.chatSvc.Turn(r.Context(), chi.URLParam(r, "sessionID"), index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turnResponse{Index: index, Turn: result})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.chatSvc.History(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	result, index, err := h.chatSvc.Selected(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turnResponse{Index: index, Turn: result})
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var payload selectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Index == nil {
		utils.RespondError(w, http.StatusBadRequest, "index is required")
		return
	}

	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.chatSvc.Select(ctx, sessionID, *payload.Index); err != nil {
		respondServiceError(w, err)
		return
	}

	result, index, err := h.chatSvc.Selected(ctx, sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turnResponse{Index: index, Turn: result})
}

// StatusFor 将服务错误映射为HTTP状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound),
		errors.Is(err, chat.ErrIndexOutOfRange),
		errors.Is(err, chat.ErrNothingSelected):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrTurnInFlight):
		return http.StatusConflict
	case errors.Is(err, turn.ErrBlankInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	utils.RespondError(w, StatusFor(err), err.Error())
}
