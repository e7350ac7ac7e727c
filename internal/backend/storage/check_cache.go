package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"Healthchecks/internal/backend/models"
	"Healthchecks/internal/shared/constants"
	shared "Healthchecks/internal/shared/models"

	"github.com/redis/go-redis/v9"
)

const (
	checkKeyPrefix = "check:"
	// stored in place of a deleted check until the TTL runs out
	checkTombstone = "deleted"
)

type redisCheckCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// cachedCheck is the JSON shape of a record inside Redis.
type cachedCheck struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	Timeout      uint32     `json:"timeout"`
	Grace        uint32     `json:"grace"`
	PingURL      *string    `json:"ping_url"`
	PingCount    uint32     `json:"ping_count"`
	LastPingDate *time.Time `json:"last_ping_date"`
	NextPingDate *time.Time `json:"next_ping_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewCheckCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) CheckCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	return &redisCheckCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *redisCheckCache) Get(ctx context.Context, id string) (*models.CheckRecord, error) {
	data, err := c.client.Get(ctx, checkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	if string(data) == checkTombstone {
		return nil, nil
	}

	var cached cachedCheck
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached check %s: %w", id, err)
	}

	record, err := cached.toRecord()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("check cache hit", "check_id", id)
	return record, nil
}

func (c *redisCheckCache) Set(ctx context.Context, record *models.CheckRecord) error {
	data, err := json.Marshal(newCachedCheck(record))
	if err != nil {
		return fmt.Errorf("failed to marshal check %s: %w", record.ID, err)
	}

	if err := c.client.Set(ctx, checkKey(record.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	return nil
}

func (c *redisCheckCache) Fill(ctx context.Context, record *models.CheckRecord) (bool, error) {
	data, err := json.Marshal(newCachedCheck(record))
	if err != nil {
		return false, fmt.Errorf("failed to marshal check %s: %w", record.ID, err)
	}

	err = c.client.SetArgs(ctx, checkKey(record.ID), data, redis.SetArgs{
		Mode: "NX",
		TTL:  c.ttl,
	}).Err()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("check cache fill skipped, key present", "check_id", record.ID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis SET NX failed: %w", err)
	}

	return true, nil
}

func (c *redisCheckCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Set(ctx, checkKey(id), checkTombstone, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET tombstone failed: %w", err)
	}

	return nil
}

func checkKey(id string) string {
	return checkKeyPrefix + id
}

func newCachedCheck(record *models.CheckRecord) cachedCheck {
	check := record.Check
	if check == nil {
		check = &shared.Check{}
	}

	return cachedCheck{
		ID:           record.ID,
		Name:         check.Name,
		Tag:          check.Tag,
		Timeout:      check.Timeout,
		Grace:        check.Grace,
		PingURL:      pingURLValue(check.PingURL),
		PingCount:    check.PingCount,
		LastPingDate: check.LastPingDate,
		NextPingDate: check.NextPingDate,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func (c cachedCheck) toRecord() (*models.CheckRecord, error) {
	var pingURL *url.URL
	if c.PingURL != nil {
		u, err := url.Parse(*c.PingURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached ping url of check %s: %w", c.ID, err)
		}
		pingURL = u
	}

	return &models.CheckRecord{
		ID:        c.ID,
		Check:     shared.NewCheck(c.Name, c.Tag, c.Timeout, c.Grace, pingURL, c.PingCount, c.LastPingDate, c.NextPingDate),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
