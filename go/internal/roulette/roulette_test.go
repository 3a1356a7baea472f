package roulette

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 10 * time.Millisecond

var t0 = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func newRoulette(names ...string) *Roulette {
	tr := NewTrack(DefaultMeasurer())
	tr.Render(names)
	return New(tr, 640, t0)
}

// runUntil ticks every frame from *now until pred holds or limit passes.
func runUntil(r *Roulette, now *time.Time, limit time.Time, pred func() bool) bool {
	for !now.After(limit) {
		*now = now.Add(frame)
		r.Tick(*now)
		if pred() {
			return true
		}
	}
	return false
}

func TestPlanDraw_Clamps(t *testing.T) {
	cases := []struct {
		in      float64
		total   time.Duration
		resolve time.Duration
	}{
		{4200, 4200 * time.Millisecond, 1890 * time.Millisecond},
		{0, 4200 * time.Millisecond, 1890 * time.Millisecond},
		{-50, 4200 * time.Millisecond, 1890 * time.Millisecond},
		{math.NaN(), 4200 * time.Millisecond, 1890 * time.Millisecond},
		{math.Inf(1), 4200 * time.Millisecond, 1890 * time.Millisecond},
		{100, 3000 * time.Millisecond, 1350 * time.Millisecond},
		{4444, 4444 * time.Millisecond, 1999 * time.Millisecond},
		{4500, 4500 * time.Millisecond, 2000 * time.Millisecond},
		{99999, 5000 * time.Millisecond, 2000 * time.Millisecond},
	}
	for _, tc := range cases {
		d := PlanDraw("Alice", tc.in, t0)
		assert.Equal(t, tc.total, d.Total, "total for %v", tc.in)
		assert.Equal(t, tc.resolve, d.Resolve, "resolve for %v", tc.in)
		assert.GreaterOrEqual(t, d.Total, 3000*time.Millisecond)
		assert.LessOrEqual(t, d.Total, 5000*time.Millisecond)
		assert.LessOrEqual(t, float64(d.Resolve), math.Min(float64(2000*time.Millisecond), 0.45*float64(d.Total)))
	}
}

func TestEaseOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, EaseOutCubic(0))
	assert.Equal(t, 1.0, EaseOutCubic(1))
	assert.InDelta(t, 0.875, EaseOutCubic(0.5), 1e-9)
}

func TestRoulette_IdleDriftWrapsAndClampsStalls(t *testing.T) {
	r := newRoulette("Alice", "Bob")
	assert.Equal(t, PhaseIdle, r.Phase())

	r.Tick(t0.Add(10 * time.Second))
	assert.InDelta(t, BaselineSpeed*MaxFrameDelta.Seconds(), r.Offset(), 1e-9)

	// going back in time never moves the track backwards
	before := r.Offset()
	r.Tick(t0)
	assert.Equal(t, before, r.Offset())

	now := t0
	for i := 0; i < 2000; i++ {
		now = now.Add(MaxFrameDelta)
		r.Tick(now)
		require.GreaterOrEqual(t, r.Offset(), 0.0)
		require.Less(t, r.Offset(), r.Track().CycleWidth())
	}
	assert.Equal(t, -r.Offset(), r.Transform())
}

func TestRoulette_DrawTimeline(t *testing.T) {
	r := newRoulette("Alice", "Bob", "Carol", "Dave")
	now := t0

	require.True(t, r.StartDraw("Alice", 4200, now))
	assert.Equal(t, PhaseSpinning, r.Phase())
	draw, ok := r.PlannedDraw()
	require.True(t, ok)
	assert.Equal(t, 1890*time.Millisecond, draw.Resolve)
	assert.Equal(t, t0.Add(2310*time.Millisecond), draw.ResolveAt())

	require.True(t, runUntil(r, &now, t0.Add(3*time.Second), func() bool { return r.Phase() == PhaseResolving }))
	assert.Equal(t, t0.Add(2310*time.Millisecond), now)

	anim, ok := r.ResolveAnimation()
	require.True(t, ok)
	assert.GreaterOrEqual(t, anim.TargetOffset-anim.StartOffset, resolveLoops*r.Track().CycleWidth()-r.Track().CycleWidth())

	require.True(t, runUntil(r, &now, t0.Add(6*time.Second), func() bool { return r.Phase() == PhaseIdle }))
	assert.False(t, now.Before(t0.Add(4200*time.Millisecond)), "idle reached at %v", now.Sub(t0))
	assert.Equal(t, BaselineSpeed, r.Speed())
	_, ok = r.PlannedDraw()
	assert.False(t, ok)

	chip, ok := r.ChipUnderMarker()
	require.True(t, ok)
	assert.Equal(t, "Alice", chip.Name)
}

func TestRoulette_SpinSpeedRampsWithoutJumping(t *testing.T) {
	r := newRoulette("Alice", "Bob")
	now := t0
	r.StartDraw("Bob", 5000, now)

	prev := r.Speed()
	maxStep := SpinKickAcceleration * frame.Seconds()
	for r.Phase() == PhaseSpinning {
		now = now.Add(frame)
		r.Tick(now)
		if r.Phase() != PhaseSpinning {
			break
		}
		require.GreaterOrEqual(t, r.Speed(), prev)
		require.LessOrEqual(t, r.Speed()-prev, maxStep+1e-9)
		require.LessOrEqual(t, r.Speed(), MaxSpinSpeed)
		prev = r.Speed()
	}
	assert.Equal(t, MaxSpinSpeed, prev)
}

func TestRoulette_NewDrawSupersedesPlannedDraw(t *testing.T) {
	r := newRoulette("Alice", "Bob", "Carol")
	now := t0
	r.StartDraw("Alice", 4200, now)
	runUntil(r, &now, t0.Add(time.Second), func() bool { return false })

	later := now
	require.True(t, r.StartDraw("Carol", 3000, later))
	draw, ok := r.PlannedDraw()
	require.True(t, ok)
	assert.Equal(t, "Carol", draw.WinnerName)
	assert.Equal(t, later, draw.StartedAt)

	require.True(t, runUntil(r, &now, later.Add(6*time.Second), func() bool { return r.Phase() == PhaseIdle }))
	assert.False(t, now.Before(later.Add(3000*time.Millisecond)))
	chip, ok := r.ChipUnderMarker()
	require.True(t, ok)
	assert.Equal(t, "Carol", chip.Name)
}

func TestRoulette_DrawDuringResolveIsDropped(t *testing.T) {
	r := newRoulette("Alice", "Bob", "Carol")
	now := t0
	r.StartDraw("Alice", 4200, now)
	require.True(t, runUntil(r, &now, t0.Add(3*time.Second), func() bool { return r.Phase() == PhaseResolving }))
	anim, _ := r.ResolveAnimation()

	assert.False(t, r.StartDraw("Bob", 4200, now))
	again, _ := r.ResolveAnimation()
	assert.Equal(t, anim, again)
	draw, _ := r.PlannedDraw()
	assert.Equal(t, "Alice", draw.WinnerName)

	require.True(t, runUntil(r, &now, t0.Add(6*time.Second), func() bool { return r.Phase() == PhaseIdle }))
	chip, _ := r.ChipUnderMarker()
	assert.Equal(t, "Alice", chip.Name)
}

func TestRoulette_ResolveAppendsMissingWinner(t *testing.T) {
	r := newRoulette("Alice", "Bob")
	now := t0
	r.StartDraw("Zed", 3000, now)
	require.True(t, runUntil(r, &now, t0.Add(5*time.Second), func() bool { return r.Phase() == PhaseIdle }))

	assert.Equal(t, []string{"Alice", "Bob", "Zed"}, r.Track().Names())
	chip, ok := r.ChipUnderMarker()
	require.True(t, ok)
	assert.Equal(t, "Zed", chip.Name)
}

func TestRoulette_ResolveEndsIdleFromAnyOffset(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for warmup := 0; warmup < 40; warmup += 7 {
		for _, winner := range names {
			r := newRoulette(names...)
			now := t0
			for i := 0; i < warmup; i++ {
				now = now.Add(MaxFrameDelta)
				r.Tick(now)
			}

			require.True(t, r.Resolve(winner, 1500*time.Millisecond, now))
			anim, _ := r.ResolveAnimation()
			assert.GreaterOrEqual(t, anim.TargetOffset+r.Marker(), anim.StartOffset+r.Marker()+resolveLoops*r.Track().CycleWidth()-1e-6)

			require.True(t, runUntil(r, &now, now.Add(3*time.Second), func() bool { return r.Phase() == PhaseIdle }))
			assert.Equal(t, BaselineSpeed, r.Speed())
			chip, ok := r.ChipUnderMarker()
			require.True(t, ok)
			assert.Equal(t, winner, chip.Name)
		}
	}
}

func TestRoulette_ResolveOffsetNeverMovesBackwards(t *testing.T) {
	r := newRoulette("Alice", "Bob", "Carol")
	now := t0
	require.True(t, r.Resolve("Bob", 2*time.Second, now))
	prev := r.Offset()
	for r.Phase() == PhaseResolving {
		now = now.Add(frame)
		r.Tick(now)
		if r.Phase() != PhaseResolving {
			break
		}
		require.GreaterOrEqual(t, r.Offset(), prev)
		prev = r.Offset()
	}
}

func TestRoulette_SetNamesHeldBackWhileResolving(t *testing.T) {
	r := newRoulette("Alice", "Bob")
	now := t0
	renders := r.Track().Renders()

	assert.False(t, r.SetNames([]string{"Alice", "Bob"}))
	assert.Equal(t, renders, r.Track().Renders())

	require.True(t, r.Resolve("Alice", time.Second, now))
	assert.True(t, r.SetNames([]string{"Alice", "Bob", "Carol"}))
	assert.Equal(t, []string{"Alice", "Bob"}, r.Track().Names())

	require.True(t, runUntil(r, &now, now.Add(2*time.Second), func() bool { return r.Phase() == PhaseIdle }))
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, r.Track().Names())
}

func TestRoulette_IgnoresEmptyWinner(t *testing.T) {
	r := newRoulette("Alice")
	assert.False(t, r.StartDraw("", 4200, t0))
	assert.Equal(t, PhaseIdle, r.Phase())
	assert.False(t, r.Resolve("", time.Second, t0))
}
