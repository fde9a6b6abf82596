package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is one server push. Topic scopes it to a subscription, e.g. a
// forge:<forgeID> progress stream.
type Event struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// Client is one connection with its topic subscriptions.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	topics map[string]struct{}
}

func (c *Client) subscribe(topic string) {
	c.mu.Lock()
	c.topics[topic] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) unsubscribe(topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
}

func (c *Client) subscribed(topic string) bool {
	c.mu.Lock()
	_, ok := c.topics[topic]
	c.mu.Unlock()
	return ok
}

// Manager owns the active connections. One connection per user; a new
// connection for the same user replaces the old one.
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	m := &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.Named("WSManager"),
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	m.logger.Info("Connection manager started")
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if old, ok := m.clients[client.UserID]; ok {
				m.logger.Info("Replacing existing connection", zap.String("userID", client.UserID))
				close(old.send)
				if old.Conn != nil {
					_ = old.Conn.Close()
				}
			}
			m.clients[client.UserID] = client
			m.mu.Unlock()
			m.logger.Info("Client registered", zap.String("userID", client.UserID))

		case client := <-m.unregister:
			m.mu.Lock()
			// A reconnect replaces the map entry before the old pump's
			// deferred unregister fires; only the client that still owns
			// the entry may remove it.
			if current, ok := m.clients[client.UserID]; ok && current == client {
				delete(m.clients, client.UserID)
				close(client.send)
				m.logger.Info("Client unregistered", zap.String("userID", client.UserID))
			}
			m.mu.Unlock()
		}
	}
}

// RegisterClient adds a connection to the manager.
func (m *Manager) RegisterClient(client *Client) {
	m.register <- client
}

// UnregisterClient drops a connection. A stale client whose user already
// reconnected is ignored.
func (m *Manager) UnregisterClient(client *Client) {
	m.unregister <- client
}

// Publish delivers an event to every client subscribed to its topic.
// Clients with a full send queue are skipped rather than blocked on.
func (m *Manager) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("Failed to marshal event", zap.String("topic", event.Topic), zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.clients {
		if !client.subscribed(event.Topic) {
			continue
		}
		select {
		case client.send <- data:
		default:
			m.logger.Warn("Send queue full, dropping event",
				zap.String("userID", client.UserID),
				zap.String("topic", event.Topic),
			)
		}
	}
}

// SendToUser delivers an event to one user regardless of subscriptions.
// Returns false when the user is offline or their queue is full.
func (m *Manager) SendToUser(userID string, event Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("Failed to marshal event", zap.String("userID", userID), zap.Error(err))
		return false
	}

	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case client.send <- data:
		return true
	default:
		m.logger.Warn("Send queue full", zap.String("userID", userID))
		return false
	}
}
