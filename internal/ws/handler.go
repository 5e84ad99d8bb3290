package ws

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chat-relay/internal/domain"
	apihttp "chat-relay/internal/http"
	"chat-relay/internal/service"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
)

// Handler acepta conexiones websocket autenticadas y las conecta al
// ChatService: enter al abrir, un HandleMessage por frame entrante,
// exit al cerrar.
type Handler struct {
	logger   *zap.Logger
	chat     *service.ChatService
	upgrader websocket.Upgrader
}

func NewHandler(logger *zap.Logger, chat *service.ChatService) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger: logger,
		chat:   chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve maneja GET /ws. El username sale de los claims que dejó el
// middleware JWT; el sender de cada frame entrante se pisa con ese
// nombre para que un cliente no pueda hablar por otro.
func (h *Handler) Serve(c *gin.Context) {
	claims, ok := apihttp.GetAuthClaims(c)
	if !ok || claims.Username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	username := claims.Username

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := newSession(conn)
	ctx := c.Request.Context()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Warn("set read deadline failed", zap.Error(err))
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	go h.pingLoop(session, stopPing)

	h.logger.Info("session connected", zap.String("username", username))
	h.chat.UserEnter(ctx, username, session)

	defer func() {
		close(stopPing)
		session.close()
		h.chat.UserExit(ctx, username)
		h.logger.Info("session disconnected", zap.String("username", username))
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.logReadEnd(username, err)
			return
		}

		var msg domain.ChatMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Warn("malformed frame dropped",
				zap.String("username", username), zap.Error(err))
			continue
		}
		msg.Sender = username
		h.chat.HandleMessage(ctx, session, msg)
	}
}

func (h *Handler) pingLoop(session *wsSession, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := session.ping(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) logReadEnd(username string, err error) {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) || errors.Is(err, io.EOF) {
		h.logger.Info("session closed", zap.String("username", username))
		return
	}
	h.logger.Warn("session read failed", zap.String("username", username), zap.Error(err))
}
