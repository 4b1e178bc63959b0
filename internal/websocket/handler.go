package websocket

import (
	"net/http"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/auth"
	"github.com/Wiltron289/Next-Best-ActionV2/internal/config"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin allow-listing happens in the CORS middleware
		return true
	},
}

// Snapshots supplies the catch-up state for a tab that connects
// mid-session
type Snapshots interface {
	CurrentSnapshot(userID string) any
}

// Handler handles WebSocket upgrade requests
type Handler struct {
	hub       *Hub
	config    *config.Config
	control   SessionControl
	snapshots Snapshots
	logger    zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, cfg *config.Config, control SessionControl, snapshots Snapshots, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:       hub,
		config:    cfg,
		control:   control,
		snapshots: snapshots,
		logger:    logger,
	}
}

// ServeHTTP upgrades the connection and attaches the tab to its rep's
// session
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := NewClient(h.hub, conn, claims.UserID, h.config, h.control, h.logger)
	h.hub.register <- client
	client.Start()

	// Catch the new tab up immediately
	if snap := h.snapshots.CurrentSnapshot(claims.UserID); snap != nil {
		h.hub.SendToUser(claims.UserID, snap)
	}
}
