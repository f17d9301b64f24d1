package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/moodchat/backend/internal/service/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/turn"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Message types exchanged over the socket.
const (
	TypeTurn      = "turn"
	TypeSelect    = "select"
	TypeConnected = "connected"
	TypeSelection = "selection"
	TypeError     = "error"
)

// WebSocketHandler WebSocket对话处理器
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	pipeline *turn.Pipeline
	defaults chat.Settings
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatService.Service, pipeline *turn.Pipeline, defaults chat.Settings, log *logrus.Entry) *WebSocketHandler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &WebSocketHandler{
		chatSvc:  chatSvc,
		pipeline: pipeline,
		defaults: defaults,
		log:      log.WithField("component", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type selectMessage struct {
	Index *int `json:"index"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type indexedTurn struct {
	Index int       `json:"index"`
	Turn  chat.Turn `json:"turn"`
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	sessionID string
	log       *logrus.Entry
	mu        sync.Mutex
}

func (c *conn) send(msgType string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.ws.WriteJSON(msg); err != nil {
		c.log.WithError(err).WithField("type", msgType).Warn("write failed")
	}
}

func (c *conn) sendError(message string) {
	c.send(TypeError, map[string]string{"message": message})
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("upgrade failed")
		return
	}
	defer ws.Close()

	log := h.log.WithField("session", sessionID)
	log.Info("connection opened")
	c := &conn{ws: ws, sessionID: sessionID, log: log}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, ws)

	c.send(TypeConnected, nil)

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("read error")
			}
			log.Info("connection closed")
			return
		}

		h.handleMessage(ctx, c, &msg)
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *conn, msg *inboundMessage) {
	switch msg.Type {
	case TypeTurn:
		h.handleTurn(ctx, c, msg.Data)
	case TypeSelect:
		h.handleSelect(ctx, c, msg.Data)
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *WebSocketHandler) handleTurn(ctx context.Context, c *conn, raw json.RawMessage) {
	var submission turn.Submission
	if err := json.Unmarshal(raw, &submission); err != nil {
		c.sendError("invalid turn payload")
		return
	}

	req, err := submission.Request(h.defaults)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	// The turn outlives a dropped connection so the log never records a
	// cancelled generation.
	turnCtx := context.WithoutCancel(ctx)
	result, index, err := h.chatSvc.RunTurn(turnCtx, c.sessionID, func() chat.Turn {
		return h.pipeline.ProcessObserved(turnCtx, req, func(e turn.Event) {
			c.send(e.Stage, e)
		})
	})
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.send(TypeTurn, indexedTurn{Index: index, Turn: result})
}

func (h *WebSocketHandler) handleSelect(ctx context.Context, c *conn, raw json.RawMessage) {
	var payload selectMessage
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Index == nil {
		c.sendError("index is required")
		return
	}

	if err := h.chatSvc.Select(ctx, c.sessionID, *payload.Index); err != nil {
		c.sendError(err.Error())
		return
	}

	result, index, err := h.chatSvc.Selected(ctx, c.sessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.send(TypeSelection, indexedTurn{Index: index, Turn: result})
}

// pingLoop 定期发送ping消息，WriteControl 可与数据写入并发调用
func pingLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
