package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"Healthchecks/internal/backend/models"
	shared "Healthchecks/internal/shared/models"
	"Healthchecks/pkg/uuidutil"

	"github.com/jackc/pgx/v5"
)

var ErrCheckNotFound = errors.New("check not found")

const checkColumns = `id, name, tag, timeout, grace, ping_url, ping_count, last_ping_date, next_ping_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type checkStore struct {
	pool PoolOps
}

func NewCheckStore(pool PoolOps) CheckStore {
	return &checkStore{pool: pool}
}

// Create assigns the record an id and timestamps, then inserts it.
func (s *checkStore) Create(ctx context.Context, record *models.CheckRecord) error {
	check := ensureCheck(record)

	now := time.Now().UTC()
	record.ID = uuidutil.New()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `INSERT INTO checks (` + checkColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		record.ID,
		check.Name,
		check.Tag,
		int64(check.Timeout),
		int64(check.Grace),
		pingURLValue(check.PingURL),
		int64(check.PingCount),
		check.LastPingDate,
		check.NextPingDate,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create check: %w", err)
	}

	return nil
}

// GetByID returns nil, nil when no check has the id.
func (s *checkStore) GetByID(ctx context.Context, id string) (*models.CheckRecord, error) {
	query := `SELECT ` + checkColumns + ` FROM checks WHERE id = $1`

	record, err := scanCheck(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get check by id %s: %w", id, err)
	}

	return record, nil
}

func (s *checkStore) List(ctx context.Context, filter models.CheckFilter) ([]*models.CheckRecord, error) {
	query := `SELECT ` + checkColumns + ` FROM checks`
	var args []any

	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += ` WHERE tag = $1`
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: failed to query checks (tag=%q, limit=%d, offset=%d): %w",
			filter.Tag, filter.Limit, filter.Offset, err)
	}
	defer rows.Close()

	var records []*models.CheckRecord
	for rows.Next() {
		record, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("list checks: failed to scan row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checks: row iteration error: %w", err)
	}

	return records, nil
}

// Update overwrites every check field of the stored record and bumps UpdatedAt.
func (s *checkStore) Update(ctx context.Context, record *models.CheckRecord) error {
	check := ensureCheck(record)
	record.UpdatedAt = time.Now().UTC()

	query := `UPDATE checks SET name = $1, tag = $2, timeout = $3, grace = $4, ping_url = $5, ping_count = $6, last_ping_date = $7, next_ping_date = $8, updated_at = $9 WHERE id = $10`

	result, err := s.pool.Exec(ctx, query,
		check.Name,
		check.Tag,
		int64(check.Timeout),
		int64(check.Grace),
		pingURLValue(check.PingURL),
		int64(check.PingCount),
		check.LastPingDate,
		check.NextPingDate,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update check %s: %w", record.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update check %s: %w", record.ID, ErrCheckNotFound)
	}

	return nil
}

func (s *checkStore) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM checks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete check %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete check %s: %w", id, ErrCheckNotFound)
	}

	return nil
}

func (s *checkStore) CountByTag(ctx context.Context) (models.TagStats, error) {
	rows, err := s.pool.Query(ctx, `SELECT tag, COUNT(*) FROM checks GROUP BY tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to count checks by tag: %w", err)
	}
	defer rows.Close()

	stats := models.TagStats{}
	for rows.Next() {
		var (
			tag   string
			count int
		)
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count row: %w", err)
		}
		stats[tag] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag count rows: %w", err)
	}

	return stats, nil
}

func scanCheck(row rowScanner) (*models.CheckRecord, error) {
	var (
		record                    models.CheckRecord
		check                     shared.Check
		timeout, grace, pingCount int64
		pingURL                   *string
	)

	err := row.Scan(
		&record.ID,
		&check.Name,
		&check.Tag,
		&timeout,
		&grace,
		&pingURL,
		&pingCount,
		&check.LastPingDate,
		&check.NextPingDate,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	check.Timeout = uint32(timeout)
	check.Grace = uint32(grace)
	check.PingCount = uint32(pingCount)

	if pingURL != nil {
		u, err := url.Parse(*pingURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored ping url of check %s: %w", record.ID, err)
		}
		check.PingURL = u
	}

	record.Check = &check
	return &record, nil
}

func ensureCheck(record *models.CheckRecord) *shared.Check {
	if record.Check == nil {
		record.Check = &shared.Check{}
	}
	return record.Check
}

func pingURLValue(u *url.URL) *string {
	if u == nil {
		return nil
	}
	s := u.String()
	return &s
}
