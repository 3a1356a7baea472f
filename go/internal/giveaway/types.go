package giveaway

import (
	"errors"

	"github.com/mcdev12/roleta/go/internal/models"
)

var (
	// ErrNotFound is returned when the giveaway does not exist.
	ErrNotFound = errors.New("giveaway not found")
	// ErrNoParticipants is returned by Draw for a giveaway nobody entered.
	ErrNoParticipants = errors.New("giveaway has no participants")
)

const (
	// Draw durations are picked uniformly in [minDrawDurationMs, minDrawDurationMs+drawDurationSpreadMs].
	minDrawDurationMs    = 3000
	drawDurationSpreadMs = 2000

	// AuditWinnerDrawn is recorded with the winner.
	AuditWinnerDrawn = "winner_drawn"
)

// DrawResult is the outcome of a draw request. The winner is stored once the
// announced duration has elapsed.
type DrawResult struct {
	WinnerName string `json:"winner_name"`
	Platform   string `json:"platform"`
	DurationMs int    `json:"duration_ms"`
}

// LatestParticipantResponse is the body of the latest participant lookup. Both
// fields are null when nobody has entered yet.
type LatestParticipantResponse struct {
	DisplayName *string `json:"display_name"`
	Platform    *string `json:"platform"`
}

func NewLatestParticipantResponse(p *models.Participant) LatestParticipantResponse {
	if p == nil {
		return LatestParticipantResponse{}
	}
	name, platform := p.DisplayName, string(p.Platform)
	return LatestParticipantResponse{DisplayName: &name, Platform: &platform}
}
