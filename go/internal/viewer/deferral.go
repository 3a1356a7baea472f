package viewer

import (
	"time"

	"github.com/mcdev12/roleta/go/internal/events"
)

// historyLimit is how many winners the history keeps, newest first.
const historyLimit = 10

// WinnerQueue withholds winner announcements while a draw is locked and
// de-duplicates announcements against the last one shown.
type WinnerQueue struct {
	lockUntil time.Time
	deferred  *events.WinnerRecord
	lastKey   string
	history   []events.WinnerRecord
}

// NewWinnerQueue returns an unlocked, empty queue.
func NewWinnerQueue() *WinnerQueue {
	return &WinnerQueue{}
}

// Lock starts a new draw lock. Any winner deferred under the previous lock is dropped.
func (q *WinnerQueue) Lock(until time.Time) {
	q.lockUntil = until
	q.deferred = nil
}

func (q *WinnerQueue) LockUntil() time.Time { return q.lockUntil }

// Locked reports whether winners must be withheld at now.
func (q *WinnerQueue) Locked(now time.Time) bool {
	return now.Before(q.lockUntil)
}

// Defer stores w as the sole pending winner, replacing any previous one.
func (q *WinnerQueue) Defer(w events.WinnerRecord) {
	q.deferred = &w
}

// Pending returns the deferred winner without removing it.
func (q *WinnerQueue) Pending() (events.WinnerRecord, bool) {
	if q.deferred == nil {
		return events.WinnerRecord{}, false
	}
	return *q.deferred, true
}

// Take removes and returns the deferred winner.
func (q *WinnerQueue) Take() (events.WinnerRecord, bool) {
	w, ok := q.Pending()
	q.deferred = nil
	return w, ok
}

// Record marks w as shown. It returns false when w has the identity of the last
// winner shown. A winner whose label already heads the history is not added twice.
func (q *WinnerQueue) Record(w events.WinnerRecord) bool {
	key := w.Key()
	if key == q.lastKey {
		return false
	}
	q.lastKey = key

	if len(q.history) > 0 && q.history[0].Label() == w.Label() {
		return true
	}
	q.history = append([]events.WinnerRecord{w}, q.history...)
	if len(q.history) > historyLimit {
		q.history = q.history[:historyLimit]
	}
	return true
}

// History returns the shown winners, newest first.
func (q *WinnerQueue) History() []events.WinnerRecord {
	out := make([]events.WinnerRecord, len(q.history))
	copy(out, q.history)
	return out
}
