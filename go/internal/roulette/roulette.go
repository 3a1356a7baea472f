package roulette

import (
	"math"
	"time"
)

// Phase describes what the marquee is currently doing.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSpinning  Phase = "spinning"
	PhaseResolving Phase = "resolving"
)

const (
	// BaselineSpeed is the idle drift in px/s.
	BaselineSpeed = 18.0
	// SpinStartSpeed is reached quickly at the start of every spin.
	SpinStartSpeed = 240.0
	// SpinKickAcceleration ramps the spin up to SpinStartSpeed in px/s².
	SpinKickAcceleration = 2400.0
	// SpinAcceleration ramps the spin from SpinStartSpeed to MaxSpinSpeed in px/s².
	SpinAcceleration = 250.0
	// MaxSpinSpeed caps the spin in px/s.
	MaxSpinSpeed = 420.0
	// MaxFrameDelta bounds the time advanced by a single tick after a stall.
	MaxFrameDelta = 50 * time.Millisecond
)

// Roulette is the animation state: phase, offset, speed and the draw in flight.
// It is driven by Tick and by the transition methods and is not safe for
// concurrent use; one goroutine owns it.
type Roulette struct {
	track    *Track
	viewport float64

	phase    Phase
	offset   float64
	speed    float64
	lastTick time.Time

	draw    *PlannedDraw
	resolve *ResolveAnimation

	// names received while resolving; applied once the resolve completes
	pendingNames []string
	hasPending   bool
}

// New returns an idle roulette over track, viewed through a window viewportWidth px wide.
func New(track *Track, viewportWidth float64, now time.Time) *Roulette {
	return &Roulette{
		track:    track,
		viewport: viewportWidth,
		phase:    PhaseIdle,
		speed:    BaselineSpeed,
		lastTick: now,
	}
}

func (r *Roulette) Phase() Phase { return r.phase }
func (r *Roulette) Offset() float64 { return r.offset }
func (r *Roulette) Speed() float64 { return r.speed }
func (r *Roulette) Track() *Track { return r.track }

// Marker is the x position of the winner marker inside the viewport.
func (r *Roulette) Marker() float64 { return r.viewport / 2 }

// Transform is the horizontal translation applied to the track.
func (r *Roulette) Transform() float64 { return -r.offset }

// PlannedDraw returns a copy of the draw in flight.
func (r *Roulette) PlannedDraw() (PlannedDraw, bool) {
	if r.draw == nil {
		return PlannedDraw{}, false
	}
	return *r.draw, true
}

// ResolveAnimation returns a copy of the running resolve.
func (r *Roulette) ResolveAnimation() (ResolveAnimation, bool) {
	if r.resolve == nil {
		return ResolveAnimation{}, false
	}
	return *r.resolve, true
}

// ChipUnderMarker returns the chip currently aligned with the marker.
func (r *Roulette) ChipUnderMarker() (Chip, bool) {
	return r.track.ChipAt(r.offset + r.Marker())
}

// SetNames re-renders the track when the derived key changed. While a resolve
// is running the new names are held back so the target chip does not move.
func (r *Roulette) SetNames(names []string) bool {
	if r.phase == PhaseResolving {
		r.pendingNames = append([]string{}, names...)
		r.hasPending = true
		return r.track.Changed(names)
	}
	if !r.track.Changed(names) {
		return false
	}
	r.track.Render(names)
	r.wrapOffset()
	return true
}

// StartDraw plans a draw and spins up. Any previous planned draw is replaced.
// A draw arriving while a resolve is running is dropped.
func (r *Roulette) StartDraw(winnerName string, durationMs float64, now time.Time) bool {
	if winnerName == "" {
		return false
	}
	if r.phase == PhaseResolving {
		return false
	}
	d := PlanDraw(winnerName, durationMs, now)
	r.draw = &d
	r.phase = PhaseSpinning
	return true
}

// Tick advances the animation to now.
func (r *Roulette) Tick(now time.Time) {
	dt := now.Sub(r.lastTick)
	if dt < 0 {
		dt = 0
	}
	if dt > MaxFrameDelta {
		dt = MaxFrameDelta
	}
	r.lastTick = now
	secs := dt.Seconds()

	switch r.phase {
	case PhaseSpinning:
		r.speed = spinSpeed(r.speed, secs)
		r.offset += r.speed * secs

		if r.draw != nil && !r.draw.Resolved && !now.Before(r.draw.ResolveAt()) {
			r.draw.Resolved = true
			r.Resolve(r.draw.WinnerName, r.draw.Resolve, now)
		}

	case PhaseResolving:
		if r.resolve == nil {
			r.finishResolve()
			break
		}
		r.offset = r.resolve.OffsetAt(now)
		if r.resolve.Progress(now) >= 1 {
			r.finishResolve()
		}

	default:
		r.speed = BaselineSpeed
		r.offset += r.speed * secs
	}

	if r.phase != PhaseResolving {
		r.wrapOffset()
	}
}

// spinSpeed ramps speed over secs without ever jumping.
func spinSpeed(speed, secs float64) float64 {
	if speed < SpinStartSpeed {
		return math.Min(speed+SpinKickAcceleration*secs, SpinStartSpeed)
	}
	return math.Min(speed+SpinAcceleration*secs, MaxSpinSpeed)
}

func (r *Roulette) finishResolve() {
	r.phase = PhaseIdle
	r.resolve = nil
	r.speed = BaselineSpeed
	r.draw = nil

	if r.hasPending {
		names := r.pendingNames
		r.pendingNames, r.hasPending = nil, false
		if r.track.Changed(names) {
			r.track.Render(names)
		}
	}
	r.wrapOffset()
}

func (r *Roulette) wrapOffset() {
	cw := r.track.CycleWidth()
	if cw <= 1 {
		return
	}
	r.offset = math.Mod(math.Mod(r.offset, cw)+cw, cw)
}
