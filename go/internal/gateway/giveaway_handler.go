package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/giveaway"
	"github.com/mcdev12/roleta/go/internal/models"
)

// noParticipantsDetail is what the draw trigger shows the host.
const noParticipantsDetail = "Sem participantes"

// GiveawayApp is the slice of giveaway.App the gateway serves
type GiveawayApp interface {
	BuildState(ctx context.Context, giveawayID int64) (*events.GiveawayState, error)
	LatestParticipant(ctx context.Context, giveawayID int64) (*models.Participant, error)
	Draw(ctx context.Context, giveawayID int64) (*giveaway.DrawResult, error)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// GiveawayHandler serves the HTTP collaborators of the viewer
type GiveawayHandler struct {
	app GiveawayApp
}

func NewGiveawayHandler(app GiveawayApp) *GiveawayHandler {
	return &GiveawayHandler{app: app}
}

func (h *GiveawayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /giveaways/{id}/participants/latest", h.HandleLatestParticipant)
	mux.HandleFunc("POST /giveaways/{id}/draw", h.HandleDraw)
	mux.HandleFunc("GET /api/giveaways/{id}/state", h.HandleState)
}

// HandleLatestParticipant answers with nulls when nobody has entered yet
func (h *GiveawayHandler) HandleLatestParticipant(w http.ResponseWriter, r *http.Request) {
	giveawayID, ok := parseGiveawayID(w, r)
	if !ok {
		return
	}

	p, err := h.app.LatestParticipant(r.Context(), giveawayID)
	if err != nil {
		writeAppError(w, giveawayID, err)
		return
	}
	writeJSON(w, http.StatusOK, giveaway.NewLatestParticipantResponse(p))
}

// HandleDraw starts a draw. The response returns as soon as draw_started is
// published; the winner is stored once the spin has played out.
func (h *GiveawayHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	giveawayID, ok := parseGiveawayID(w, r)
	if !ok {
		return
	}

	result, err := h.app.Draw(r.Context(), giveawayID)
	if err != nil {
		writeAppError(w, giveawayID, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (h *GiveawayHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	giveawayID, ok := parseGiveawayID(w, r)
	if !ok {
		return
	}

	state, err := h.app.BuildState(r.Context(), giveawayID)
	if err != nil {
		writeAppError(w, giveawayID, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func parseGiveawayID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid giveaway id"})
		return 0, false
	}
	return id, true
}

func writeAppError(w http.ResponseWriter, giveawayID int64, err error) {
	switch {
	case errors.Is(err, giveaway.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Sorteio nao encontrado"})
	case errors.Is(err, giveaway.ErrNoParticipants):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: noParticipantsDetail})
	default:
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("giveaway request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
