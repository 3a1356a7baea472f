package viewer

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/roulette"
)

// requestTimeout bounds the latest-participant lookup and the draw request.
const requestTimeout = 10 * time.Second

type viewerMsg interface{ isViewerMsg() }

type pushMessage struct{ data []byte }

type latestResult struct {
	name string
	err  error
}

type drawRequest struct{}

type drawResult struct{ err error }

type getView struct{ reply chan View }

func (pushMessage) isViewerMsg()  {}
func (latestResult) isViewerMsg() {}
func (drawRequest) isViewerMsg()  {}
func (drawResult) isViewerMsg()   {}
func (getView) isViewerMsg()      {}

// View is a point-in-time copy of the viewer state.
type View struct {
	Phase          roulette.Phase
	Names          []string
	History        []events.WinnerRecord
	Deferred       *events.WinnerRecord
	LockUntil      time.Time
	TriggerEnabled bool
}

// Viewer owns the roulette and reconciles the giveaway feed into it. Everything
// that touches its state happens on the goroutine running Run.
type Viewer struct {
	cfg          Config
	clock        clockwork.Clock
	display      Display
	participants ParticipantSource
	draws        DrawRequester

	inbox chan viewerMsg
	done  chan struct{}

	// set by Run
	ctx    context.Context
	timers *clockTimers
	rec    *Reconciler
}

// New builds a viewer. Run must be called before messages are processed.
func New(cfg Config, clock clockwork.Clock, display Display, participants ParticipantSource, draws DrawRequester) *Viewer {
	return &Viewer{
		cfg:          cfg,
		clock:        clock,
		display:      display,
		participants: participants,
		draws:        draws,
		inbox:        make(chan viewerMsg, 64),
		done:         make(chan struct{}),
	}
}

// Deliver hands one raw push message to the run loop. It is safe to call from any goroutine.
func (v *Viewer) Deliver(ctx context.Context, data []byte) error {
	return v.send(ctx, pushMessage{data: data})
}

// RequestDraw asks the run loop to trigger a manual draw.
func (v *Viewer) RequestDraw(ctx context.Context) error {
	return v.send(ctx, drawRequest{})
}

// Snapshot returns a copy of the viewer state taken on the run loop.
func (v *Viewer) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := v.send(ctx, getView{reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case view := <-reply:
		return view, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-v.done:
		return View{}, context.Canceled
	}
}

func (v *Viewer) send(ctx context.Context, m viewerMsg) error {
	select {
	case v.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-v.done:
		return context.Canceled
	}
}

// Run drives the animation and applies inbox messages until ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	defer close(v.done)

	v.ctx = ctx
	v.timers = newClockTimers(v.clock, v.inbox, ctx.Done())
	defer v.timers.stopAll()

	track := roulette.NewTrack(roulette.DefaultMeasurer())
	wheel := roulette.New(track, v.cfg.ViewportWidth, v.clock.Now())
	v.rec = newReconciler(wheel, v.display, v.timers, v, v.cfg.TickerDefault)

	ticker := v.clock.NewTicker(v.cfg.FrameInterval())
	defer ticker.Stop()

	log.Info().
		Int64("giveaway_id", v.cfg.GiveawayID).
		Dur("frame_interval", v.cfg.FrameInterval()).
		Msg("viewer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("viewer stopped")
			return nil

		case <-ticker.Chan():
			v.rec.Frame(v.clock.Now())

		case m := <-v.inbox:
			v.handle(m)
		}
	}
}

func (v *Viewer) handle(m viewerMsg) {
	now := v.clock.Now()

	switch msg := m.(type) {
	case pushMessage:
		v.rec.HandleMessage(msg.data, now)

	case timerFired:
		if v.timers.accept(msg) {
			v.rec.HandleTimer(msg.key, now)
		}

	case latestResult:
		v.rec.HandleLatest(msg.name, msg.err)

	case drawRequest:
		v.rec.RequestDraw()

	case drawResult:
		v.rec.HandleDrawResult(msg.err)

	case getView:
		msg.reply <- v.view()
	}
}

func (v *Viewer) view() View {
	r := v.rec.roulette
	out := View{
		Phase:          r.Phase(),
		Names:          append([]string(nil), r.Track().Names()...),
		History:        v.rec.Queue().History(),
		LockUntil:      v.rec.Queue().LockUntil(),
		TriggerEnabled: v.rec.Trigger().Enabled(),
	}
	if w, ok := v.rec.Queue().Pending(); ok {
		out.Deferred = &w
	}
	return out
}

func (v *Viewer) fetchLatestParticipant() {
	go func() {
		ctx, cancel := context.WithTimeout(v.ctx, requestTimeout)
		defer cancel()

		res := latestResult{}
		p, err := v.participants.LatestParticipant(ctx)
		if err != nil {
			res.err = err
		} else if p != nil && p.DisplayName != nil {
			res.name = *p.DisplayName
		}
		_ = v.send(v.ctx, res)
	}()
}

func (v *Viewer) submitDraw() {
	go func() {
		ctx, cancel := context.WithTimeout(v.ctx, requestTimeout)
		defer cancel()

		err := v.draws.TriggerDraw(ctx)
		_ = v.send(v.ctx, drawResult{err: err})
	}()
}
