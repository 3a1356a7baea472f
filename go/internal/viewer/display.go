package viewer

import (
	"context"

	"github.com/mcdev12/roleta/go/clients/giveaway_client"
	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/roulette"
)

// Display is the output surface of the viewer. All calls come from the goroutine
// running Viewer.Run, one at a time.
type Display interface {
	SetParticipantsCount(n int)
	SetStatus(open bool)
	SetCommand(command string)
	SetTicker(text string)
	ShowWinner(winner events.WinnerRecord, history []events.WinnerRecord)
	SetTrigger(label string, enabled bool)
	Alert(message string)
	RenderFrame(frame Frame)
}

// Frame is what the animation produced for one display refresh.
type Frame struct {
	Phase     roulette.Phase
	Offset    float64
	Transform float64
	Marker    float64
	Track     *roulette.Track
}

// ParticipantSource looks up the most recent participant of the giveaway.
type ParticipantSource interface {
	LatestParticipant(ctx context.Context) (*giveaway_client.LatestParticipant, error)
}

// DrawRequester asks the server to draw a winner.
type DrawRequester interface {
	TriggerDraw(ctx context.Context) error
}
