package giveaway

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/roleta/go/internal/events"
	"github.com/mcdev12/roleta/go/internal/models"
)

// followUpTimeout bounds the work done once a draw animation has played out.
const followUpTimeout = 10 * time.Second

// Store defines what the app layer needs from the repository
type Store interface {
	GetGiveaway(ctx context.Context, id int64) (*models.Giveaway, error)
	CountParticipants(ctx context.Context, giveawayID int64) (int, error)
	ListParticipantNames(ctx context.Context, giveawayID int64) ([]string, error)
	ListParticipants(ctx context.Context, giveawayID int64) ([]models.Participant, error)
	LatestParticipant(ctx context.Context, giveawayID int64) (*models.Participant, error)
	LastWinner(ctx context.Context, giveawayID int64) (*models.Winner, error)
	RecordWinner(ctx context.Context, userID, giveawayID int64, picked models.Participant) (*models.Winner, error)
}

// Publisher sends giveaway events to viewers
type Publisher interface {
	PublishState(ctx context.Context, state *events.GiveawayState) error
	PublishDrawStarted(ctx context.Context, ev events.DrawStartedPayload) error
}

// App handles giveaway business logic
type App struct {
	store     Store
	publisher Publisher
	clock     clockwork.Clock

	// randIntn returns a uniform integer in [0, n)
	randIntn func(n int64) (int64, error)

	followUps sync.WaitGroup
}

// NewApp creates a new giveaway App
func NewApp(store Store, publisher Publisher, clock clockwork.Clock) *App {
	return &App{
		store:     store,
		publisher: publisher,
		clock:     clock,
		randIntn:  cryptoIntn,
	}
}

func cryptoIntn(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// BuildState assembles the snapshot published to viewers
func (a *App) BuildState(ctx context.Context, giveawayID int64) (*events.GiveawayState, error) {
	g, err := a.store.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	count, err := a.store.CountParticipants(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	names, err := a.store.ListParticipantNames(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	latest, err := a.store.LatestParticipant(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	last, err := a.store.LastWinner(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	state := &events.GiveawayState{
		GiveawayID:        g.ID,
		Name:              g.Name,
		Command:           g.Command,
		IsOpen:            g.IsOpen,
		ParticipantsCount: count,
		ParticipantNames:  names,
		TickerMessage:     g.TickerMessage,
		TS:                a.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	if latest != nil {
		name := latest.DisplayName
		state.LatestParticipant = &name
	}
	if last != nil {
		state.LastWinner = &events.WinnerRecord{
			DisplayName: last.DisplayName,
			Platform:    string(last.Platform),
			DrawnAt:     last.DrawnAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return state, nil
}

// PublishState builds and publishes the current snapshot
func (a *App) PublishState(ctx context.Context, giveawayID int64) error {
	state, err := a.BuildState(ctx, giveawayID)
	if err != nil {
		return fmt.Errorf("failed to build state: %w", err)
	}
	if err := a.publisher.PublishState(ctx, state); err != nil {
		return fmt.Errorf("failed to publish state: %w", err)
	}
	return nil
}

// LatestParticipant returns the most recently seen participant, nil when there is none
func (a *App) LatestParticipant(ctx context.Context, giveawayID int64) (*models.Participant, error) {
	if _, err := a.store.GetGiveaway(ctx, giveawayID); err != nil {
		return nil, err
	}
	return a.store.LatestParticipant(ctx, giveawayID)
}

// Draw picks a winner and announces the draw. The winner is stored and the new
// snapshot published only once the announced duration has elapsed, so no
// snapshot reveals the winner while the spin is still playing.
func (a *App) Draw(ctx context.Context, giveawayID int64) (*DrawResult, error) {
	g, err := a.store.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	participants, err := a.store.ListParticipants(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	idx, err := a.randIntn(int64(len(participants)))
	if err != nil {
		return nil, fmt.Errorf("failed to pick winner: %w", err)
	}
	spread, err := a.randIntn(drawDurationSpreadMs + 1)
	if err != nil {
		return nil, fmt.Errorf("failed to pick draw duration: %w", err)
	}
	durationMs := minDrawDurationMs + int(spread)
	picked := participants[idx]

	if err := a.publisher.PublishDrawStarted(ctx, events.NewDrawStarted(giveawayID, picked.DisplayName, durationMs)); err != nil {
		return nil, fmt.Errorf("failed to publish draw started: %w", err)
	}

	log.Info().
		Int64("giveaway_id", giveawayID).
		Str("winner", picked.DisplayName).
		Int("duration_ms", durationMs).
		Msg("draw started")

	a.followUps.Add(1)
	a.clock.AfterFunc(time.Duration(durationMs)*time.Millisecond, func() {
		defer a.followUps.Done()
		a.finishDraw(g.UserID, giveawayID, picked)
	})

	return &DrawResult{
		WinnerName: picked.DisplayName,
		Platform:   string(picked.Platform),
		DurationMs: durationMs,
	}, nil
}

func (a *App) finishDraw(userID, giveawayID int64, picked models.Participant) {
	ctx, cancel := context.WithTimeout(context.Background(), followUpTimeout)
	defer cancel()

	if _, err := a.store.RecordWinner(ctx, userID, giveawayID, picked); err != nil {
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("failed to record winner")
		return
	}
	if err := a.PublishState(ctx, giveawayID); err != nil {
		log.Error().Err(err).Int64("giveaway_id", giveawayID).Msg("failed to publish state after draw")
	}
}

// Wait blocks until every scheduled draw follow-up has run.
func (a *App) Wait() {
	a.followUps.Wait()
}
