package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// Manager is the hub for all realtime notification connections. Services
// hand it notification payloads; delivery to whatever sockets a recipient
// has open happens here.
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> connected client IDs
	userMutex    sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// EventType identifies a realtime event pushed to a client.
type EventType string

const (
	EventNotification EventType = "notification"
	EventUnreadCount  EventType = "unread_count"
	EventConnected    EventType = "connected"
)

// Event is the frame sent to clients.
type Event struct {
	Type       EventType       `json:"type"`
	ExchangeID string          `json:"exchange_id,omitempty"`
	ChainID    string          `json:"chain_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewManager creates the hub.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddClient registers a new connection and links it to its user.
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	log.Printf("websocket client %s connected for user %s", client.ID, client.UserID)
}

// RemoveClient drops a connection.
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()
	if !exists {
		return
	}

	m.userMutex.Lock()
	if ids, ok := m.userClients[client.UserID]; ok {
		delete(ids, clientID)
		if len(ids) == 0 {
			delete(m.userClients, client.UserID)
		}
	}
	m.userMutex.Unlock()

	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()
}

// SendToUser delivers an event to every open connection of one user.
// Users without connections just miss the push; the persisted notification
// row remains the source of truth.
func (m *Manager) SendToUser(userID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshaling websocket event: %v", err)
		return
	}

	m.userMutex.RLock()
	clientIDs := make([]uuid.UUID, 0, len(m.userClients[userID]))
	for id := range m.userClients[userID] {
		clientIDs = append(clientIDs, id)
	}
	m.userMutex.RUnlock()

	for _, id := range clientIDs {
		m.clientsMutex.RLock()
		client, ok := m.clients[id]
		m.clientsMutex.RUnlock()
		if !ok {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the connection.
			client.conn.Close()
			m.RemoveClient(client.ID)
		}
	}
}

// upgrader checks nothing about origins; the token query param is the gate.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests carrying a valid ?token= to a notification
// stream.
func (m *Manager) Handler(jwtService *utils.JWTService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		userID, err := jwtService.ExtractUserID(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}

		client := NewClient(userID, conn, m)
		client.Start()
	}
}

// Shutdown closes every connection and stops the hub.
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[string]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
