package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/sqlc-dev/pqtype"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

type PlatformKind string

const (
	PlatformKindTwitch  PlatformKind = "twitch"
	PlatformKindYoutube PlatformKind = "youtube"
)

type Giveaway struct {
	ID            int64
	UserID        int64
	Name          string
	Command       string
	TickerMessage sql.NullString
	IsOpen        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Participant struct {
	ID             int64
	GiveawayID     int64
	Platform       PlatformKind
	PlatformUserID string
	DisplayName    string
	FirstSeen      time.Time
	LastSeen       time.Time
}

type Winner struct {
	ID             int64
	GiveawayID     int64
	Platform       PlatformKind
	PlatformUserID string
	DisplayName    string
	DrawnAt        time.Time
}

type AuditLog struct {
	ID          int64
	UserID      int64
	GiveawayID  sql.NullInt64
	Action      string
	PayloadJson pqtype.NullRawMessage
	CreatedAt   time.Time
}
