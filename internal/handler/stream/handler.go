package stream

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	chathandler "github.com/zhouzirui/moodchat/backend/internal/handler/chat"
	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/moodchat/backend/internal/service/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/turn"
	"github.com/zhouzirui/moodchat/backend/pkg/utils"
)

// SSE event names, in emission order.
const (
	EventStart    = "start"
	EventAnalysis = turn.StageAnalysis
	EventIntent   = turn.StageIntent
	EventTurn     = "turn"
	EventEnd      = "end"
)

// Handler runs a turn and reports each pipeline stage as a Server-Sent Event.
type Handler struct {
	chatSvc  *chatService.Service
	pipeline *turn.Pipeline
	defaults chat.Settings
	log      *logrus.Entry
}

// New creates a stream handler.
func New(chatSvc *chatService.Service, pipeline *turn.Pipeline, defaults chat.Settings, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		chatSvc:  chatSvc,
		pipeline: pipeline,
		defaults: defaults,
		log:      log.WithField("component", "stream"),
	}
}

// RegisterRoutes registers the stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/stream", h.handleStream)
}

type startPayload struct {
	SessionID string `json:"sessionId"`
}

type turnPayload struct {
	Index int       `json:"index"`
	Turn  chat.Turn `json:"turn"`
}

// handleStream validates before the first event is written, so failures up to
// that point are plain JSON errors with a status code.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	submission, err := submissionFromQuery(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := submission.Request(h.defaults)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	turnCtx := context.WithoutCancel(ctx)
	sessionID := chi.URLParam(r, "sessionID")
	log := h.log.WithField("session", sessionID)

	send := func(event string, data any) {
		if err := utils.SendSSEEvent(w, flusher, event, data); err != nil {
			log.WithError(err).Warn("failed to send stream event")
		}
	}

	result, index, err := h.chatSvc.RunTurn(turnCtx, sessionID, func() chat.Turn {
		utils.SetupSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		send(EventStart, startPayload{SessionID: sessionID})

		return h.pipeline.ProcessObserved(turnCtx, req, func(e turn.Event) {
			send(e.Stage, e)
		})
	})
	if err != nil {
		utils.RespondError(w, chathandler.StatusFor(err), err.Error())
		return
	}

	if ctx.Err() != nil {
		log.Info("client left before the turn finished")
		return
	}

	send(EventTurn, turnPayload{Index: index, Turn: result})
	send(EventEnd, startPayload{SessionID: sessionID})
}

func submissionFromQuery(r *http.Request) (turn.Submission, error) {
	query := r.URL.Query()
	submission := turn.Submission{
		Input: query.Get("input"),
		Need:  query.Get("need"),
		Model: query.Get("model"),
	}

	if raw := query.Get("maxOutputTokens"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return turn.Submission{}, errInvalidQuery("maxOutputTokens", raw)
		}
		submission.MaxOutputTokens = &value
	}

	if raw := query.Get("temperature"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return turn.Submission{}, errInvalidQuery("temperature", raw)
		}
		submission.Temperature = &value
	}

	return submission, nil
}

func errInvalidQuery(key, value string) error {
	return fmt.Errorf("invalid %s value %q", key, value)
}
