package viewer

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/roulette"
)

const (
	defaultCommand       = "!participar"
	DefaultTickerText    = "Aguardando novas entradas..."
	tickerUpdatedText    = "Participantes atualizados em tempo real."
	tickerNewParticipant = "Novo participante no sorteio: %s"

	tickerResetDelay = 4500 * time.Millisecond

	drawFlushMargin   = 40 * time.Millisecond
	minDrawFlushDelay = 100 * time.Millisecond

	deferFlushMargin   = 20 * time.Millisecond
	minDeferFlushDelay = 80 * time.Millisecond
)

// effects starts the asynchronous work the reconciler asks for. Results come
// back through HandleLatest and HandleDrawResult.
type effects interface {
	fetchLatestParticipant()
	submitDraw()
}

// Reconciler applies push messages, timer fires and request results to the
// roulette and the display. It is not safe for concurrent use.
type Reconciler struct {
	roulette *roulette.Roulette
	display  Display
	timers   scheduler
	effects  effects

	queue   *WinnerQueue
	trigger *Trigger

	tickerDefault   string
	tickerTransient bool

	lastCount  int
	countShown bool
}

func newReconciler(r *roulette.Roulette, display Display, timers scheduler, fx effects, tickerDefault string) *Reconciler {
	if tickerDefault == "" {
		tickerDefault = DefaultTickerText
	}
	rc := &Reconciler{
		roulette:      r,
		display:       display,
		timers:        timers,
		effects:       fx,
		queue:         NewWinnerQueue(),
		tickerDefault: tickerDefault,
	}
	rc.trigger = newTrigger(display)
	display.SetTicker(tickerDefault)
	return rc
}

// HandleMessage decodes and applies one push message. Malformed or unknown
// messages are dropped.
func (rc *Reconciler) HandleMessage(data []byte, now time.Time) {
	msg, err := events.Decode(data)
	if err != nil {
		log.Debug().Err(err).Msg("dropping push message")
		return
	}

	switch msg.Type {
	case events.EventTypeDrawStarted:
		rc.drawStarted(msg.DrawStarted, now)
	case events.EventTypeState:
		rc.applyState(msg.State, now)
	}
}

func (rc *Reconciler) drawStarted(p *events.DrawStartedPayload, now time.Time) {
	durationMs := p.Duration()
	duration := time.Duration(durationMs * float64(time.Millisecond))

	rc.queue.Lock(now.Add(duration))
	started := rc.roulette.StartDraw(p.WinnerName, durationMs, now)

	flush := duration + drawFlushMargin
	if flush < minDrawFlushDelay {
		flush = minDrawFlushDelay
	}
	rc.timers.schedule(timerDeferredFlush, flush)

	log.Info().
		Str("winner", p.WinnerName).
		Float64("duration_ms", durationMs).
		Bool("spinning", started).
		Msg("draw started")
}

func (rc *Reconciler) applyState(s *events.GiveawayState, now time.Time) {
	if !rc.countShown || s.ParticipantsCount != rc.lastCount {
		rc.display.SetParticipantsCount(s.ParticipantsCount)
	}
	rc.display.SetStatus(s.IsOpen)

	command := s.Command
	if command == "" {
		command = defaultCommand
	}
	rc.display.SetCommand(command)

	if s.TickerMessage != nil && *s.TickerMessage != "" && *s.TickerMessage != rc.tickerDefault {
		rc.tickerDefault = *s.TickerMessage
		if !rc.tickerTransient {
			rc.display.SetTicker(rc.tickerDefault)
		}
	}

	if rc.countShown && s.ParticipantsCount > rc.lastCount {
		rc.effects.fetchLatestParticipant()
	}
	rc.lastCount = s.ParticipantsCount
	rc.countShown = true

	if s.LastWinner != nil {
		rc.offerWinner(*s.LastWinner, now)
	}

	if rc.roulette.SetNames(s.ParticipantNames) {
		log.Debug().Int("participants", len(s.ParticipantNames)).Msg("participant names changed")
	}
}

// held reports whether winners must wait: the draw lock has not expired or the
// spin has not come to rest yet.
func (rc *Reconciler) held(now time.Time) bool {
	return rc.queue.Locked(now) || rc.roulette.Phase() != roulette.PhaseIdle
}

func (rc *Reconciler) deferDelay(now time.Time) time.Duration {
	d := rc.queue.LockUntil().Sub(now) + deferFlushMargin
	if d < minDeferFlushDelay {
		d = minDeferFlushDelay
	}
	return d
}

func (rc *Reconciler) offerWinner(w events.WinnerRecord, now time.Time) {
	if rc.held(now) {
		rc.queue.Defer(w)
		rc.timers.schedule(timerDeferredFlush, rc.deferDelay(now))
		return
	}
	rc.showWinner(w)
}

func (rc *Reconciler) flushDeferred(now time.Time) {
	if _, ok := rc.queue.Pending(); !ok {
		return
	}
	if rc.held(now) {
		rc.timers.schedule(timerDeferredFlush, rc.deferDelay(now))
		return
	}
	w, _ := rc.queue.Take()
	rc.showWinner(w)
}

func (rc *Reconciler) showWinner(w events.WinnerRecord) {
	if rc.queue.Record(w) {
		rc.display.ShowWinner(w, rc.queue.History())
		log.Info().Str("winner", w.Label()).Str("drawn_at", w.DrawnAt).Msg("winner shown")
	}
	rc.trigger.Release()
	rc.timers.cancel(timerTriggerSafeguard)
}

// HandleLatest applies the result of a latest-participant lookup. An empty name
// means the giveaway has no participants.
func (rc *Reconciler) HandleLatest(name string, err error) {
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("latest participant lookup failed")
		rc.showTransientTicker(tickerUpdatedText)
	case name != "":
		rc.showTransientTicker(fmt.Sprintf(tickerNewParticipant, name))
	}
}

func (rc *Reconciler) showTransientTicker(text string) {
	rc.display.SetTicker(text)
	rc.tickerTransient = true
	rc.timers.schedule(timerTickerReset, tickerResetDelay)
}

// RequestDraw starts a manual draw unless one is already in flight.
func (rc *Reconciler) RequestDraw() bool {
	if !rc.trigger.Begin() {
		return false
	}
	rc.effects.submitDraw()
	return true
}

// HandleDrawResult applies the outcome of a draw request.
func (rc *Reconciler) HandleDrawResult(err error) {
	if err != nil {
		log.Warn().Err(err).Msg("draw request failed")
		rc.trigger.Release()
		rc.display.Alert(drawFailureMessage(err))
		return
	}
	rc.timers.schedule(timerTriggerSafeguard, triggerSafeguard)
}

// HandleTimer applies an expired timer.
func (rc *Reconciler) HandleTimer(key timerKey, now time.Time) {
	switch key {
	case timerTickerReset:
		rc.tickerTransient = false
		rc.display.SetTicker(rc.tickerDefault)
	case timerDeferredFlush:
		rc.flushDeferred(now)
	case timerTriggerSafeguard:
		if !rc.trigger.Enabled() {
			log.Warn().Msg("no winner after draw request; re-enabling trigger")
			rc.trigger.Release()
		}
	}
}

// Frame advances the animation to now and hands the result to the display.
func (rc *Reconciler) Frame(now time.Time) {
	rc.roulette.Tick(now)
	rc.display.RenderFrame(Frame{
		Phase:     rc.roulette.Phase(),
		Offset:    rc.roulette.Offset(),
		Transform: rc.roulette.Transform(),
		Marker:    rc.roulette.Marker(),
		Track:     rc.roulette.Track(),
	})
}

func (rc *Reconciler) Queue() *WinnerQueue { return rc.queue }
func (rc *Reconciler) Trigger() *Trigger { return rc.trigger }
