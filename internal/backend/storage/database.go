package storage

import (
	"context"
	"fmt"
	"log/slog"

	"Healthchecks/internal/config"
	"Healthchecks/internal/shared/constants"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func NewPostgres(ctx context.Context, cfg *config.DatabaseConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		log.Error("failed to open connection to postgres", "error", err)
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}

	if err = pingWithRetry(ctx, pool.Ping, log.With("target", "postgres")); err != nil {
		pool.Close()
		log.Error("failed to ping database", "error", err, "host", cfg.Host)
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	log.Info("successfully connected to postgres database", "host", cfg.Host, "dbname", cfg.DBName)
	return pool, nil
}

func NewRedis(ctx context.Context, cfg *config.RedisConfig, log *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(cfg.GetRedisOptions())

	ctx, cancel := context.WithTimeout(ctx, constants.RedisPingTimeout)
	defer cancel()

	ping := func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}

	if err := pingWithRetry(ctx, ping, log.With("target", "redis")); err != nil {
		_ = client.Close()
		log.Error("failed to connect to redis", "error", err, "addr", cfg.Addr)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("connected to redis", "addr", cfg.Addr)
	return client, nil
}

// pingWithRetry retries ping with exponential backoff until it succeeds,
// ConnectMaxTries is reached or ctx ends.
func pingWithRetry(ctx context.Context, ping func(context.Context) error, log *slog.Logger) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = constants.ConnectRetryInitialInterval
	expBackoff.MaxInterval = constants.ConnectRetryMaxInterval

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		if err := ping(ctx); err != nil {
			log.Warn("connection attempt failed", "attempt", attempt, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(
		ctx,
		operation,
		backoff.WithMaxTries(constants.ConnectMaxTries),
		backoff.WithBackOff(expBackoff),
	)

	return err
}
