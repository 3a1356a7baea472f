package viewer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/roleta/go/internal/events"
)

func winner(name, platform, drawnAt string) events.WinnerRecord {
	return events.WinnerRecord{DisplayName: name, Platform: platform, DrawnAt: drawnAt}
}

func TestWinnerQueue_LockAndDefer(t *testing.T) {
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	q := NewWinnerQueue()
	assert.False(t, q.Locked(now))

	q.Lock(now.Add(4200 * time.Millisecond))
	assert.True(t, q.Locked(now.Add(4199*time.Millisecond)))
	assert.False(t, q.Locked(now.Add(4200*time.Millisecond)))

	q.Defer(winner("Alice", "twitch", "t1"))
	q.Defer(winner("Bob", "twitch", "t2"))
	w, ok := q.Pending()
	require.True(t, ok)
	assert.Equal(t, "Bob", w.DisplayName)

	// a new lock discards what the previous draw deferred
	q.Lock(now.Add(time.Second))
	_, ok = q.Pending()
	assert.False(t, ok)

	q.Defer(winner("Carol", "kick", "t3"))
	w, ok = q.Take()
	require.True(t, ok)
	assert.Equal(t, "Carol", w.DisplayName)
	_, ok = q.Take()
	assert.False(t, ok)
}

func TestWinnerQueue_RecordDeduplicates(t *testing.T) {
	q := NewWinnerQueue()

	assert.True(t, q.Record(winner("Alice", "twitch", "t1")))
	assert.False(t, q.Record(winner("Alice", "twitch", "t1")))

	// same label drawn again: shown, but not listed twice in a row
	assert.True(t, q.Record(winner("Alice", "twitch", "t2")))
	require.Len(t, q.History(), 1)

	assert.True(t, q.Record(winner("Bob", "kick", "t3")))
	hist := q.History()
	require.Len(t, hist, 2)
	assert.Equal(t, "Bob (kick)", hist[0].Label())
	assert.Equal(t, "Alice (twitch)", hist[1].Label())
}

func TestWinnerQueue_HistoryIsBounded(t *testing.T) {
	q := NewWinnerQueue()
	for i := 0; i < historyLimit+5; i++ {
		q.Record(winner(fmt.Sprintf("p%d", i), "twitch", fmt.Sprintf("t%d", i)))
	}
	hist := q.History()
	require.Len(t, hist, historyLimit)
	assert.Equal(t, fmt.Sprintf("p%d", historyLimit+4), hist[0].DisplayName)

	// callers get a copy
	hist[0].DisplayName = "changed"
	assert.NotEqual(t, "changed", q.History()[0].DisplayName)
}
