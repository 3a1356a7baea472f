package viewer

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the viewer settings. Values come from an optional YAML file,
// then ROULETTE_* environment variables override them.
type Config struct {
	BaseURL       string  `yaml:"base_url"`
	GiveawayID    int64   `yaml:"giveaway_id"`
	SessionCookie string  `yaml:"session_cookie"`
	CSRFToken     string  `yaml:"csrf_token"`
	TickerDefault string  `yaml:"ticker_default"`
	ViewportWidth float64 `yaml:"viewport_width"`
	FPS           int     `yaml:"fps"`

	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig bounds the feed reconnection backoff.
type ReconnectConfig struct {
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:8081",
		TickerDefault: DefaultTickerText,
		ViewportWidth: 640,
		FPS:           30,
		Reconnect: ReconnectConfig{
			Initial: 500 * time.Millisecond,
			Max:     30 * time.Second,
		},
	}
}

// LoadConfig reads path (when non-empty) over the defaults and applies env overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read viewer config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse viewer config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.BaseURL = getEnv("ROULETTE_BASE_URL", c.BaseURL)
	c.SessionCookie = getEnv("ROULETTE_SESSION_COOKIE", c.SessionCookie)
	c.CSRFToken = getEnv("ROULETTE_CSRF_TOKEN", c.CSRFToken)
	c.TickerDefault = getEnv("ROULETTE_TICKER_DEFAULT", c.TickerDefault)

	if v := os.Getenv("ROULETTE_GIVEAWAY_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ROULETTE_GIVEAWAY_ID %q: %w", v, err)
		}
		c.GiveawayID = id
	}
	if v := os.Getenv("ROULETTE_VIEWPORT"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ROULETTE_VIEWPORT %q: %w", v, err)
		}
		c.ViewportWidth = w
	}
	if v := os.Getenv("ROULETTE_FPS"); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ROULETTE_FPS %q: %w", v, err)
		}
		c.FPS = fps
	}
	return nil
}

// Validate checks the settings the viewer cannot run without.
func (c Config) Validate() error {
	if c.GiveawayID <= 0 {
		return errors.New("giveaway id is required")
	}
	if c.BaseURL == "" {
		return errors.New("base url is required")
	}
	if c.ViewportWidth <= 0 {
		return fmt.Errorf("viewport width must be positive, got %v", c.ViewportWidth)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("fps must be in (0, 240], got %d", c.FPS)
	}
	return nil
}

// FrameInterval is the time between animation frames.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
