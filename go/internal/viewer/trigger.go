package viewer

import (
	"errors"
	"time"

	"github.com/mcdev12/roleta/go/clients/giveaway_client"
)

const (
	triggerIdleLabel = "Sortear agora"
	triggerBusyLabel = "Sorteando..."

	drawRejectedMessage = "Nao foi possivel sortear agora."
	drawNetworkMessage  = "Falha de conexao ao tentar sortear."

	// triggerSafeguard re-enables the trigger if no winner arrives after a
	// successful draw request.
	triggerSafeguard = 8 * time.Second
)

// Trigger is the manual "draw now" control.
type Trigger struct {
	display Display
	enabled bool
}

func newTrigger(display Display) *Trigger {
	t := &Trigger{display: display}
	t.Release()
	return t
}

func (t *Trigger) Enabled() bool { return t.enabled }

// Begin disables the trigger for a draw request. It returns false when a request
// is already in flight.
func (t *Trigger) Begin() bool {
	if !t.enabled {
		return false
	}
	t.enabled = false
	t.display.SetTrigger(triggerBusyLabel, false)
	return true
}

func (t *Trigger) Release() {
	t.enabled = true
	t.display.SetTrigger(triggerIdleLabel, true)
}

// drawFailureMessage is the alert shown for a failed draw request.
func drawFailureMessage(err error) string {
	var de *giveaway_client.DrawError
	if errors.As(err, &de) {
		if de.Detail != "" {
			return de.Detail
		}
		return drawRejectedMessage
	}
	return drawNetworkMessage
}
