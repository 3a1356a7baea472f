package gateway

import (
	"context"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/internal/giveaway"
)

// Service wires the viewer-facing routes to the event bus
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	giveawayHandler   *GiveawayHandler
	eventConsumer     *EventConsumer
}

type Config struct {
	ConnectionConfig ConnectionConfig
	Subject          string
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		Subject:          giveaway.DefaultSubject,
	}
}

// NewService builds the gateway around an open NATS connection. The connection
// is owned by the caller.
func NewService(config Config, nc *nats.Conn, app GiveawayApp) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, app),
		giveawayHandler:   NewGiveawayHandler(app),
		eventConsumer:     NewEventConsumer(connectionManager, nc, config.Subject),
	}
}

// Start runs the connection manager and the event consumer until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting giveaway gateway service")

	go s.connectionManager.Start(ctx)

	if err := s.eventConsumer.Start(ctx); err != nil {
		return err
	}

	log.Info().Msg("giveaway gateway service stopped")
	return nil
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.giveawayHandler.RegisterRoutes(mux)
	log.Info().Msg("giveaway gateway routes registered")
}

func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.Stats()
}
