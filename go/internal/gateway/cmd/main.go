package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/roleta/go/internal/dbconfig"
	"github.com/mcdev12/roleta/go/internal/gateway"
	"github.com/mcdev12/roleta/go/internal/giveaway"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	port := getEnv("GATEWAY_PORT", "8081")
	natsCfg := giveaway.DefaultNATSConfig()
	natsCfg.URL = getEnv("NATS_URL", natsCfg.URL)
	natsCfg.Subject = getEnv("NATS_SUBJECT", natsCfg.Subject)

	dbCfg := dbconfig.NewConfigFromEnv()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := dbCfg.Open(startupCtx)
	startupCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	nc, err := giveaway.ConnectNATS(natsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	log.Info().
		Str("database", dbCfg.Database).
		Str("nats_url", natsCfg.URL).
		Str("subject", natsCfg.Subject).
		Str("port", port).
		Msg("starting giveaway gateway")

	app := giveaway.NewApp(
		giveaway.NewRepository(db),
		giveaway.NewNATSPublisher(nc, natsCfg.Subject),
		clockwork.NewRealClock(),
	)

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.Subject = natsCfg.Subject
	gatewayService := gateway.NewService(gatewayConfig, nc, app)

	mux := http.NewServeMux()
	gatewayService.RegisterRoutes(mux)
	gateway.NewHealthChecker(db, nc, gatewayService).RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins:   allowedOrigins(),
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", port),
		Handler:     h2c.NewHandler(c.Handler(mux), &http2.Server{}),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serviceDone := make(chan struct{})
	go func() {
		defer close(serviceDone)
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
			cancel()
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Draws in flight still store their winner before the connections close.
	app.Wait()
	<-serviceDone

	log.Info().Msg("giveaway gateway shutdown complete")
}

// allowedOrigins reads CORS_ORIGINS as a comma separated list, "*" when unset
func allowedOrigins() []string {
	raw := getEnv("CORS_ORIGINS", "*")
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
