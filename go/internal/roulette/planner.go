package roulette

import (
	"math"
	"time"
)

const (
	minDrawDuration     = 3000.0
	maxDrawDuration     = 5000.0
	defaultDrawDuration = 4200.0
	maxResolveDuration  = 2000.0
	resolveShare        = 0.45
)

// PlannedDraw maps a server-declared draw onto spin and resolve timing.
type PlannedDraw struct {
	WinnerName string
	Total      time.Duration
	Resolve    time.Duration
	StartedAt  time.Time
	Resolved   bool
}

// ResolveAt is the instant the spin hands over to the resolve phase.
func (d PlannedDraw) ResolveAt() time.Time {
	return d.StartedAt.Add(d.Total - d.Resolve)
}

// EndsAt is the earliest instant the draw can be visually finished.
func (d PlannedDraw) EndsAt() time.Time {
	return d.StartedAt.Add(d.Total)
}

// PlanDraw clamps an untrusted duration into [3000, 5000] ms (4200 ms when it is
// absent, non-positive or not finite) and reserves min(2000, 45%) of it for the resolve.
func PlanDraw(winnerName string, durationMs float64, now time.Time) PlannedDraw {
	total := defaultDrawDuration
	if !math.IsNaN(durationMs) && !math.IsInf(durationMs, 0) && durationMs > 0 {
		total = math.Max(minDrawDuration, math.Min(maxDrawDuration, durationMs))
	}
	resolve := math.Min(maxResolveDuration, math.Floor(total*resolveShare))

	return PlannedDraw{
		WinnerName: winnerName,
		Total:      msToDuration(total),
		Resolve:    msToDuration(resolve),
		StartedAt:  now,
	}
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
