package roulette

import (
	"math"
	"time"
)

// resolveLoops is the minimum forward travel, in cycles, of every resolve.
const resolveLoops = 2.2

// ResolveAnimation eases the offset onto a precomputed target.
type ResolveAnimation struct {
	StartOffset  float64
	TargetOffset float64
	StartedAt    time.Time
	Duration     time.Duration
}

// Progress returns the clamped interpolation parameter at now.
func (a ResolveAnimation) Progress(now time.Time) float64 {
	if a.Duration <= 0 {
		return 1
	}
	t := float64(now.Sub(a.StartedAt)) / float64(a.Duration)
	return math.Max(0, math.Min(t, 1))
}

// OffsetAt returns the eased offset at now.
func (a ResolveAnimation) OffsetAt(now time.Time) float64 {
	return a.StartOffset + (a.TargetOffset-a.StartOffset)*EaseOutCubic(a.Progress(now))
}

// EaseOutCubic is f(t) = 1 - (1-t)^3.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// TargetOffset returns the offset that puts chipCenter under the marker after
// travelling forward from offset by at least resolveLoops cycles.
func TargetOffset(offset, marker, chipCenter, cycleWidth float64) float64 {
	target := chipCenter
	floor := offset + marker + cycleWidth*resolveLoops
	if target < floor {
		target += math.Ceil((floor-target)/cycleWidth) * cycleWidth
	}
	return target - marker
}

// Resolve starts the deceleration onto winnerName. A winner missing from the
// track is appended first so the target is a real chip. It reports whether a
// resolve was started; without a usable track the clock drops back to idle.
func (r *Roulette) Resolve(winnerName string, duration time.Duration, now time.Time) bool {
	if winnerName == "" {
		return false
	}

	idx := r.track.IndexOf(winnerName)
	if idx < 0 {
		idx = r.track.Append(winnerName)
		r.wrapOffset()
	}
	if idx < 0 || r.track.CycleWidth() <= 1 {
		r.finishResolve()
		return false
	}

	chip := r.track.Chips()[idx]
	r.phase = PhaseResolving
	r.resolve = &ResolveAnimation{
		StartOffset:  r.offset,
		TargetOffset: TargetOffset(r.offset, r.Marker(), chip.Center(), r.track.CycleWidth()),
		StartedAt:    now,
		Duration:     duration,
	}
	return true
}
