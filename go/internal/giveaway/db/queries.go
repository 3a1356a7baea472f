package db

import (
	"context"
	"database/sql"

	"github.com/sqlc-dev/pqtype"
)

const getGiveaway = `
SELECT id, user_id, name, command, ticker_message, is_open, created_at, updated_at
FROM giveaways
WHERE id = $1
`

func (q *Queries) GetGiveaway(ctx context.Context, id int64) (Giveaway, error) {
	row := q.db.QueryRowContext(ctx, getGiveaway, id)
	var i Giveaway
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Command,
		&i.TickerMessage,
		&i.IsOpen,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const touchGiveaway = `
UPDATE giveaways SET updated_at = now() WHERE id = $1
`

func (q *Queries) TouchGiveaway(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, touchGiveaway, id)
	return err
}

const countParticipants = `
SELECT count(*) FROM participants WHERE giveaway_id = $1
`

func (q *Queries) CountParticipants(ctx context.Context, giveawayID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countParticipants, giveawayID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listParticipantNames = `
SELECT display_name FROM participants
WHERE giveaway_id = $1
ORDER BY first_seen ASC, id ASC
`

func (q *Queries) ListParticipantNames(ctx context.Context, giveawayID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listParticipantNames, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listParticipants = `
SELECT id, giveaway_id, platform, platform_user_id, display_name, first_seen, last_seen
FROM participants
WHERE giveaway_id = $1
ORDER BY id ASC
`

func (q *Queries) ListParticipants(ctx context.Context, giveawayID int64) ([]Participant, error) {
	rows, err := q.db.QueryContext(ctx, listParticipants, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Participant
	for rows.Next() {
		var i Participant
		if err := rows.Scan(
			&i.ID,
			&i.GiveawayID,
			&i.Platform,
			&i.PlatformUserID,
			&i.DisplayName,
			&i.FirstSeen,
			&i.LastSeen,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestParticipant = `
SELECT id, giveaway_id, platform, platform_user_id, display_name, first_seen, last_seen
FROM participants
WHERE giveaway_id = $1
ORDER BY last_seen DESC, id DESC
LIMIT 1
`

func (q *Queries) GetLatestParticipant(ctx context.Context, giveawayID int64) (Participant, error) {
	row := q.db.QueryRowContext(ctx, getLatestParticipant, giveawayID)
	var i Participant
	err := row.Scan(
		&i.ID,
		&i.GiveawayID,
		&i.Platform,
		&i.PlatformUserID,
		&i.DisplayName,
		&i.FirstSeen,
		&i.LastSeen,
	)
	return i, err
}

const getLastWinner = `
SELECT id, giveaway_id, platform, platform_user_id, display_name, drawn_at
FROM winners
WHERE giveaway_id = $1
ORDER BY drawn_at DESC, id DESC
LIMIT 1
`

func (q *Queries) GetLastWinner(ctx context.Context, giveawayID int64) (Winner, error) {
	row := q.db.QueryRowContext(ctx, getLastWinner, giveawayID)
	var i Winner
	err := row.Scan(
		&i.ID,
		&i.GiveawayID,
		&i.Platform,
		&i.PlatformUserID,
		&i.DisplayName,
		&i.DrawnAt,
	)
	return i, err
}

const createWinner = `
INSERT INTO winners (giveaway_id, platform, platform_user_id, display_name)
VALUES ($1, $2, $3, $4)
RETURNING id, giveaway_id, platform, platform_user_id, display_name, drawn_at
`

type CreateWinnerParams struct {
	GiveawayID     int64
	Platform       PlatformKind
	PlatformUserID string
	DisplayName    string
}

func (q *Queries) CreateWinner(ctx context.Context, arg CreateWinnerParams) (Winner, error) {
	row := q.db.QueryRowContext(ctx, createWinner,
		arg.GiveawayID,
		arg.Platform,
		arg.PlatformUserID,
		arg.DisplayName,
	)
	var i Winner
	err := row.Scan(
		&i.ID,
		&i.GiveawayID,
		&i.Platform,
		&i.PlatformUserID,
		&i.DisplayName,
		&i.DrawnAt,
	)
	return i, err
}

const createAuditLog = `
INSERT INTO audit_logs (user_id, giveaway_id, action, payload_json)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, giveaway_id, action, payload_json, created_at
`

type CreateAuditLogParams struct {
	UserID      int64
	GiveawayID  sql.NullInt64
	Action      string
	PayloadJson pqtype.NullRawMessage
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRowContext(ctx, createAuditLog,
		arg.UserID,
		arg.GiveawayID,
		arg.Action,
		arg.PayloadJson,
	)
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.GiveawayID,
		&i.Action,
		&i.PayloadJson,
		&i.CreatedAt,
	)
	return i, err
}
