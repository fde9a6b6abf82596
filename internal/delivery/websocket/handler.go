package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens in the CORS layer in front of this route.
		return true
	},
}

// TokenParser validates an access token and returns the subject user id.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// Handler upgrades HTTP requests to WebSocket connections.
type Handler struct {
	manager *Manager
	tokens  TokenParser
	logger  *zap.Logger
}

func NewHandler(manager *Manager, tokens TokenParser, logger *zap.Logger) *Handler {
	return &Handler{
		manager: manager,
		tokens:  tokens,
		logger:  logger.Named("WSHandler"),
	}
}

// clientCommand is the only inbound message shape: topic subscription
// management. Anything else is ignored.
type clientCommand struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// ServeWS authenticates via the token query parameter and starts the
// connection's pumps.
func (h *Handler) ServeWS(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID, err := h.tokens.ParseToken(tokenString)
	if err != nil {
		h.logger.Warn("WebSocket auth failed", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.String("userID", userID), zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, 256),
		topics: make(map[string]struct{}),
	}
	h.manager.RegisterClient(client)
	h.logger.Info("WebSocket connection established", zap.String("userID", userID))

	go h.writePump(client)
	go h.readPump(client)
}

// readPump consumes subscription commands until the connection drops.
func (h *Handler) readPump(c *Client) {
	log := h.logger.With(zap.String("userID", c.UserID))
	defer func() {
		h.manager.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(message, &cmd); err != nil || cmd.Topic == "" {
			log.Warn("Ignoring malformed client message")
			continue
		}
		switch cmd.Action {
		case "subscribe":
			c.subscribe(cmd.Topic)
			log.Debug("Subscribed", zap.String("topic", cmd.Topic))
		case "unsubscribe":
			c.unsubscribe(cmd.Topic)
			log.Debug("Unsubscribed", zap.String("topic", cmd.Topic))
		default:
			log.Warn("Ignoring unknown action", zap.String("action", cmd.Action))
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (h *Handler) writePump(c *Client) {
	log := h.logger.With(zap.String("userID", c.UserID))
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
