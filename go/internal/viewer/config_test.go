package viewer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://roleta.local
giveaway_id: 7
viewport_width: 800
fps: 60
reconnect:
  initial: 250ms
  max: 10s
`), 0o600))

	t.Setenv("ROULETTE_GIVEAWAY_ID", "42")
	t.Setenv("ROULETTE_TICKER_DEFAULT", "Digite !participar")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://roleta.local", cfg.BaseURL)
	assert.Equal(t, int64(42), cfg.GiveawayID)
	assert.Equal(t, 800.0, cfg.ViewportWidth)
	assert.Equal(t, "Digite !participar", cfg.TickerDefault)
	assert.Equal(t, 250*time.Millisecond, cfg.Reconnect.Initial)
	assert.Equal(t, 10*time.Second, cfg.Reconnect.Max)
	assert.Equal(t, time.Second/60, cfg.FrameInterval())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ROULETTE_GIVEAWAY_ID", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTickerText, cfg.TickerDefault)
	assert.Equal(t, 640.0, cfg.ViewportWidth)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.Initial)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "giveaway id is required")

	t.Setenv("ROULETTE_GIVEAWAY_ID", "abc")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "ROULETTE_GIVEAWAY_ID")

	t.Setenv("ROULETTE_GIVEAWAY_ID", "1")
	t.Setenv("ROULETTE_FPS", "0")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "fps")
}
