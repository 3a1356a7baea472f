package viewer

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// timerKey names the purpose of a one-shot timer. At most one timer per key is armed.
type timerKey string

const (
	timerTickerReset      timerKey = "ticker_reset"
	timerDeferredFlush    timerKey = "deferred_flush"
	timerTriggerSafeguard timerKey = "trigger_safeguard"
)

// scheduler arms one-shot timers. Arming a key supersedes the timer previously armed under it.
type scheduler interface {
	schedule(key timerKey, d time.Duration)
	cancel(key timerKey)
}

// timerFired is posted to the viewer inbox when an armed timer expires.
type timerFired struct {
	key timerKey
	gen uint64
}

func (timerFired) isViewerMsg() {}

type armedTimer struct {
	timer clockwork.Timer
	gen   uint64
	stop  chan struct{}
}

// clockTimers is the scheduler used by Viewer.Run. It is owned by the run loop;
// only the forwarding goroutines touch it from elsewhere, and they only send.
type clockTimers struct {
	clock  clockwork.Clock
	fired  chan<- viewerMsg
	done   <-chan struct{}
	gen    uint64
	active map[timerKey]*armedTimer
}

func newClockTimers(clock clockwork.Clock, fired chan<- viewerMsg, done <-chan struct{}) *clockTimers {
	return &clockTimers{
		clock:  clock,
		fired:  fired,
		done:   done,
		active: make(map[timerKey]*armedTimer),
	}
}

func (ts *clockTimers) schedule(key timerKey, d time.Duration) {
	ts.gen++
	armed := &armedTimer{
		timer: ts.clock.NewTimer(d),
		gen:   ts.gen,
		stop:  make(chan struct{}),
	}
	ts.replaceTimer(key, armed)

	go func(a *armedTimer) {
		select {
		case <-a.timer.Chan():
			select {
			case ts.fired <- timerFired{key: key, gen: a.gen}:
			case <-ts.done:
			}
		case <-a.stop:
		case <-ts.done:
			stopAndDrainTimer(a.timer)
		}
	}(armed)

	log.Debug().Str("timer", string(key)).Dur("in", d).Msg("armed timer")
}

func (ts *clockTimers) cancel(key timerKey) {
	if a, ok := ts.active[key]; ok {
		stopAndDrainTimer(a.timer)
		close(a.stop)
		delete(ts.active, key)
	}
}

// replaceTimer cancels any timer armed under key before storing the new one.
func (ts *clockTimers) replaceTimer(key timerKey, a *armedTimer) {
	if _, ok := ts.active[key]; ok {
		ts.cancel(key)
		log.Debug().Str("timer", string(key)).Msg("replaced existing timer")
	}
	ts.active[key] = a
}

// accept reports whether f comes from the timer currently armed under its key.
// A fire that raced with a replacement carries a stale generation and is ignored.
func (ts *clockTimers) accept(f timerFired) bool {
	a, ok := ts.active[f.key]
	if !ok || a.gen != f.gen {
		return false
	}
	delete(ts.active, f.key)
	return true
}

func (ts *clockTimers) stopAll() {
	for key := range ts.active {
		ts.cancel(key)
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
