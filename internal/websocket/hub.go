package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Hub maintains the set of connected tabs grouped by rep. A rep may
// have several tabs open; every tab receives every message for that rep.
type Hub struct {
	// Registered clients by user
	users map[string]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect the users map
	mu sync.RWMutex

	// Logger
	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			tabs, ok := h.users[client.userID]
			if !ok {
				tabs = make(map[*Client]bool)
				h.users[client.userID] = tabs
			}
			tabs[client] = true
			total := len(tabs)
			h.mu.Unlock()
			h.logger.Info().
				Str("client_id", client.id).
				Str("user_id", client.userID).
				Int("user_tabs", total).
				Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if tabs, ok := h.users[client.userID]; ok {
				if _, ok := tabs[client]; ok {
					delete(tabs, client)
					close(client.send)
					if len(tabs) == 0 {
						delete(h.users, client.userID)
					}
					h.logger.Info().
						Str("client_id", client.id).
						Str("user_id", client.userID).
						Msg("client disconnected")
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToUser delivers a message to every tab of one rep. A tab whose
// send buffer is full is dropped; it will reconnect and catch up from
// the next snapshot.
func (h *Hub) SendToUser(userID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to marshal message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.users[userID] {
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.users[userID], client)
			h.logger.Warn().
				Str("client_id", client.id).
				Msg("client send buffer full, closing connection")
		}
	}
}

// UserConnected reports whether the rep has at least one open tab
func (h *Hub) UserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// ClientCount returns the number of connected tabs across all reps
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, tabs := range h.users {
		total += len(tabs)
	}
	return total
}
