package storage

import (
	"context"
	"fmt"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS checks (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	tag TEXT NOT NULL DEFAULT '',
	timeout BIGINT NOT NULL DEFAULT 0 CHECK (timeout BETWEEN 0 AND 4294967295),
	grace BIGINT NOT NULL DEFAULT 0 CHECK (grace BETWEEN 0 AND 4294967295),
	ping_url TEXT,
	ping_count BIGINT NOT NULL DEFAULT 0 CHECK (ping_count BETWEEN 0 AND 4294967295),
	last_ping_date TIMESTAMPTZ,
	next_ping_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const tagIndexSQL = `CREATE INDEX IF NOT EXISTS checks_tag_idx ON checks (tag)`

// EnsureSchema creates the checks table and its indexes when missing.
func EnsureSchema(ctx context.Context, pool PoolOps) error {
	for _, stmt := range []string{schemaSQL, tagIndexSQL} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
