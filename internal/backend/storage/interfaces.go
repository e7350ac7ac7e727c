package storage

import (
	"context"

	"Healthchecks/internal/backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PoolOps is the subset of *pgxpool.Pool the stores use, so tests can
// substitute a pgxmock pool.
type PoolOps interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// CheckStore persists check records.
type CheckStore interface {
	Create(ctx context.Context, record *models.CheckRecord) error
	GetByID(ctx context.Context, id string) (*models.CheckRecord, error)
	List(ctx context.Context, filter models.CheckFilter) ([]*models.CheckRecord, error)
	Update(ctx context.Context, record *models.CheckRecord) error
	Delete(ctx context.Context, id string) error
	CountByTag(ctx context.Context) (models.TagStats, error)
}

// CheckCache keeps recently read records. Get returns nil, nil on a miss.
// Set overwrites and is used after writes. Fill stores only when the id has
// no entry, so a read that raced a write cannot replace what the write left.
// Delete leaves a tombstone that blocks Fill until it expires.
type CheckCache interface {
	Get(ctx context.Context, id string) (*models.CheckRecord, error)
	Set(ctx context.Context, record *models.CheckRecord) error
	Fill(ctx context.Context, record *models.CheckRecord) (bool, error)
	Delete(ctx context.Context, id string) error
}

// EventBus fans check change events out to subscribers.
type EventBus interface {
	Publish(ctx context.Context, event models.CheckEvent) error
	Subscribe(ctx context.Context) (Subscription, error)
}

type Subscription interface {
	Events() <-chan models.CheckEvent
	Close() error
}
