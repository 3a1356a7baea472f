package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/internal/events"
)

// relayDrawDurationMs is forwarded when a draw_started event on the bus has no duration.
const relayDrawDurationMs = 4000

var (
	errNoGiveaway  = errors.New("event has no giveaway id")
	errUnknownType = errors.New("unknown event type")
)

// EventConsumer subscribes to the giveaway event subject and relays each event to
// the viewers of the giveaway it belongs to
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	subject           string

	mu        sync.Mutex
	relayed   uint64
	dropped   uint64
	lastEvent time.Time
	running   bool
}

func NewEventConsumer(cm *ConnectionManager, nc *nats.Conn, subject string) *EventConsumer {
	return &EventConsumer{
		connectionManager: cm,
		nc:                nc,
		subject:           subject,
	}
}

// Start consumes until ctx is cancelled
func (ec *EventConsumer) Start(ctx context.Context) error {
	log.Info().Str("subject", ec.subject).Msg("starting giveaway event consumer")

	messageCh := make(chan *nats.Msg, 100)
	sub, err := ec.nc.ChanSubscribe(ec.subject, messageCh)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", ec.subject, err)
	}
	ec.setRunning(true)
	defer ec.setRunning(false)
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Debug().Err(err).Msg("failed to unsubscribe")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := ec.processMessage(msg.Data); err != nil {
				log.Warn().
					Err(err).
					Str("subject", msg.Subject).
					Msg("dropping giveaway event")
			}
		}
	}
}

func (ec *EventConsumer) processMessage(data []byte) error {
	giveawayID, out, err := relayEvent(data)
	ec.mu.Lock()
	if err != nil {
		ec.dropped++
	} else {
		ec.relayed++
		ec.lastEvent = time.Now()
	}
	ec.mu.Unlock()
	if err != nil {
		return err
	}
	ec.connectionManager.BroadcastToGiveaway(giveawayID, out)
	return nil
}

func (ec *EventConsumer) setRunning(running bool) {
	ec.mu.Lock()
	ec.running = running
	ec.mu.Unlock()
}

// ConsumerStats reports how many bus events were relayed or dropped
type ConsumerStats struct {
	Running   bool
	Relayed   uint64
	Dropped   uint64
	LastEvent time.Time
}

func (ec *EventConsumer) Stats() ConsumerStats {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ConsumerStats{
		Running:   ec.running,
		Relayed:   ec.relayed,
		Dropped:   ec.dropped,
		LastEvent: ec.lastEvent,
	}
}

// relayEvent works out which giveaway a bus message belongs to and the exact
// frame viewers receive for it.
func relayEvent(data []byte) (int64, []byte, error) {
	var envelope events.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return 0, nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}

	giveawayID := envelope.Giveaway()
	if giveawayID == 0 {
		return 0, nil, errNoGiveaway
	}

	switch envelope.Type {
	case events.EventTypeState:
		return giveawayID, data, nil

	case events.EventTypeDrawStarted:
		var ev events.DrawStartedPayload
		if err := json.Unmarshal(data, &ev); err != nil {
			return 0, nil, fmt.Errorf("unmarshal draw_started: %w", err)
		}
		if ev.DurationMs == nil {
			d := float64(relayDrawDurationMs)
			ev.DurationMs = &d
		}
		out, err := json.Marshal(ev)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal draw_started: %w", err)
		}
		return giveawayID, out, nil

	default:
		return 0, nil, fmt.Errorf("%w: %q", errUnknownType, envelope.Type)
	}
}
