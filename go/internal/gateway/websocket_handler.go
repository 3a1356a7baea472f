package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/giveaway"
)

// WebSocketHandler upgrades viewer connections for a giveaway
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	app               GiveawayApp
}

func NewWebSocketHandler(cm *ConnectionManager, app GiveawayApp) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		app:               app,
	}
}

// HandleGiveawayConnection serves GET /ws/giveaways/{id}. The current snapshot is
// the first frame on every new connection.
func (h *WebSocketHandler) HandleGiveawayConnection(w http.ResponseWriter, r *http.Request) {
	giveawayID, ok := parseGiveawayID(w, r)
	if !ok {
		return
	}

	state, err := h.app.BuildState(r.Context(), giveawayID)
	if errors.Is(err, giveaway.ErrNotFound) {
		http.Error(w, "giveaway not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("failed to build initial state")
		http.Error(w, "failed to load giveaway", http.StatusInternalServerError)
		return
	}

	initial, err := json.Marshal(events.NewStateEnvelope(state))
	if err != nil {
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("failed to marshal initial state")
		http.Error(w, "failed to load giveaway", http.StatusInternalServerError)
		return
	}

	// Upgrade writes its own error response on failure.
	if _, err := h.connectionManager.UpgradeConnection(w, r, giveawayID, initial); err != nil {
		log.Error().
			Err(err).
			Int64("giveaway_id", giveawayID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.Stats())
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/giveaways/{id}", h.HandleGiveawayConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
