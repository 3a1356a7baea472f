package giveaway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/roleta/go/internal/giveaway/db"
	"github.com/mcdev12/roleta/go/internal/models"
	"github.com/mcdev12/roleta/go/internal/sqlutil"
)

// Repository implements giveaway data access on Postgres
type Repository struct {
	conn    *sql.DB
	queries *db.Queries
}

// NewRepository creates a new giveaway repository
func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		conn:    conn,
		queries: db.New(conn),
	}
}

// GetGiveaway retrieves a giveaway by ID
func (r *Repository) GetGiveaway(ctx context.Context, id int64) (*models.Giveaway, error) {
	g, err := r.queries.GetGiveaway(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}
	return dbGiveawayToModel(g), nil
}

func (r *Repository) CountParticipants(ctx context.Context, giveawayID int64) (int, error) {
	n, err := r.queries.CountParticipants(ctx, giveawayID)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return int(n), nil
}

// ListParticipantNames returns display names in order of entry
func (r *Repository) ListParticipantNames(ctx context.Context, giveawayID int64) ([]string, error) {
	names, err := r.queries.ListParticipantNames(ctx, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participant names: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (r *Repository) ListParticipants(ctx context.Context, giveawayID int64) ([]models.Participant, error) {
	rows, err := r.queries.ListParticipants(ctx, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	out := make([]models.Participant, len(rows))
	for i, p := range rows {
		out[i] = dbParticipantToModel(p)
	}
	return out, nil
}

// LatestParticipant returns the most recently seen participant, or nil when there is none
func (r *Repository) LatestParticipant(ctx context.Context, giveawayID int64) (*models.Participant, error) {
	p, err := r.queries.GetLatestParticipant(ctx, giveawayID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest participant: %w", err)
	}
	m := dbParticipantToModel(p)
	return &m, nil
}

// LastWinner returns the most recent winner, or nil when nobody was drawn yet
func (r *Repository) LastWinner(ctx context.Context, giveawayID int64) (*models.Winner, error) {
	w, err := r.queries.GetLastWinner(ctx, giveawayID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last winner: %w", err)
	}
	m := dbWinnerToModel(w)
	return &m, nil
}

// RecordWinner stores picked as the winner of the giveaway together with its
// audit entry, in one transaction
func (r *Repository) RecordWinner(ctx context.Context, userID, giveawayID int64, picked models.Participant) (*models.Winner, error) {
	audit, err := auditParams(userID, giveawayID, AuditWinnerDrawn, map[string]string{
		"platform":     string(picked.Platform),
		"display_name": picked.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	var winner db.Winner
	err = sqlutil.Run(ctx, r.conn, r.queries.WithTx, func(q *db.Queries) error {
		var err error
		winner, err = q.CreateWinner(ctx, db.CreateWinnerParams{
			GiveawayID:     giveawayID,
			Platform:       db.PlatformKind(picked.Platform),
			PlatformUserID: picked.PlatformUserID,
			DisplayName:    picked.DisplayName,
		})
		if err != nil {
			return fmt.Errorf("failed to create winner: %w", err)
		}
		if _, err := q.CreateAuditLog(ctx, audit); err != nil {
			return fmt.Errorf("failed to create audit log: %w", err)
		}
		if err := q.TouchGiveaway(ctx, giveawayID); err != nil {
			return fmt.Errorf("failed to touch giveaway: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m := dbWinnerToModel(winner)
	return &m, nil
}

func auditParams(userID, giveawayID int64, action string, payload any) (db.CreateAuditLogParams, error) {
	var raw pqtype.NullRawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return db.CreateAuditLogParams{}, fmt.Errorf("failed to marshal audit payload: %w", err)
		}
		raw = pqtype.NullRawMessage{RawMessage: data, Valid: true}
	}
	return db.CreateAuditLogParams{
		UserID:      userID,
		GiveawayID:  sqlutil.ToSqlID(giveawayID),
		Action:      action,
		PayloadJson: raw,
	}, nil
}

func dbGiveawayToModel(g db.Giveaway) *models.Giveaway {
	return &models.Giveaway{
		ID:            g.ID,
		UserID:        g.UserID,
		Name:          g.Name,
		Command:       g.Command,
		TickerMessage: sqlutil.FromSqlStringPtr(g.TickerMessage),
		IsOpen:        g.IsOpen,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func dbParticipantToModel(p db.Participant) models.Participant {
	return models.Participant{
		ID:             p.ID,
		GiveawayID:     p.GiveawayID,
		Platform:       models.Platform(p.Platform),
		PlatformUserID: p.PlatformUserID,
		DisplayName:    p.DisplayName,
		FirstSeen:      p.FirstSeen,
		LastSeen:       p.LastSeen,
	}
}

func dbWinnerToModel(w db.Winner) models.Winner {
	return models.Winner{
		ID:             w.ID,
		GiveawayID:     w.GiveawayID,
		Platform:       models.Platform(w.Platform),
		PlatformUserID: w.PlatformUserID,
		DisplayName:    w.DisplayName,
		DrawnAt:        w.DrawnAt,
	}
}
