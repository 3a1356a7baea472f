package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/clients/giveaway_client"
	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/feed"
	"github.com/mcdev12/roleta/go/internal/roulette"
	"github.com/mcdev12/roleta/go/internal/terminal"
	"github.com/mcdev12/roleta/go/internal/viewer"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Logs go to stderr so they do not interleave with the roulette on stdout
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if os.Getenv("ROULETTE_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := viewer.LoadConfig(os.Getenv("VIEWER_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid viewer configuration")
	}

	api := giveaway_client.NewGiveawayClient(cfg.BaseURL, cfg.GiveawayID)
	api.SetSession(cfg.SessionCookie, cfg.CSRFToken)

	feedURL, err := giveaway_client.FeedURL(cfg.BaseURL, cfg.GiveawayID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid base url")
	}

	clock := clockwork.NewRealClock()
	display := terminal.New(os.Stdout, roulette.DefaultMeasurer())
	v := viewer.New(cfg, clock, display, api, api)

	feedCfg := feed.DefaultConfig(feedURL)
	feedCfg.InitialBackoff = cfg.Reconnect.Initial
	feedCfg.MaxBackoff = cfg.Reconnect.Max
	if cfg.SessionCookie != "" {
		feedCfg.Header = http.Header{giveaway_client.CookieHeader: []string{cfg.SessionCookie}}
	}
	feedClient := feed.NewClient(feedCfg, clock, v.Deliver)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// First paint from the state endpoint; the feed sends the same snapshot once connected
	if state, err := api.State(ctx); err != nil {
		log.Warn().Err(err).Int64("giveaway_id", cfg.GiveawayID).Msg("could not load initial state")
	} else if data, err := json.Marshal(events.NewStateEnvelope(state)); err == nil {
		_ = v.Deliver(ctx, data)
	}

	go func() {
		if err := v.Run(ctx); err != nil {
			log.Error().Err(err).Msg("viewer stopped")
		}
		cancel()
	}()

	go func() {
		if err := feedClient.Run(ctx); err != nil {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	// Enter (or "d") on stdin triggers a draw
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch strings.TrimSpace(scanner.Text()) {
			case "", "d", "draw":
				if err := v.RequestDraw(ctx); err != nil {
					return
				}
			case "q", "quit":
				cancel()
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down viewer")
}
