package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/moodchat/backend/internal/handler/chat"
	"github.com/zhouzirui/moodchat/backend/internal/handler/realtime"
	"github.com/zhouzirui/moodchat/backend/internal/handler/stream"
	"github.com/zhouzirui/moodchat/backend/internal/handler/web"
	middlewarePkg "github.com/zhouzirui/moodchat/backend/internal/middleware"
	chatModel "github.com/zhouzirui/moodchat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/moodchat/backend/internal/service/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/turn"
)

// Dependencies are the services the HTTP layer serves.
type Dependencies struct {
	Chat     *chatService.Service
	Pipeline *turn.Pipeline
	Defaults chatModel.Settings
	Backends []string
	Log      *logrus.Entry
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	log := deps.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log.WithField("component", "http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(deps.Chat, deps.Pipeline, deps.Defaults, deps.Backends, log)
	streamHandler := stream.New(deps.Chat, deps.Pipeline, deps.Defaults, log)
	wsHandler := realtime.NewWebSocketHandler(deps.Chat, deps.Pipeline, deps.Defaults, log)

	web.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
