package dependencies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Healthchecks/internal/backend/services"
	"Healthchecks/internal/backend/storage"
	"Healthchecks/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container holds the process-wide dependencies.
type Container struct {
	// Config
	Config *config.Config

	// Logger
	Logger *slog.Logger

	// Storage
	CheckStore storage.CheckStore
	CheckCache storage.CheckCache
	EventBus   storage.EventBus

	// Services
	CheckService *services.CheckService

	// Connections
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// NewContainer connects to Postgres and Redis and builds every component.
func NewContainer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: log,
	}

	if err := container.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := container.initRedis(ctx); err != nil {
		container.Close()
		return nil, err
	}

	container.initStorage()
	container.initServices()

	log.Info("dependency container initialized successfully")
	return container, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	db, err := storage.NewPostgres(ctx, &c.Config.Database, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if c.Config.Database.AutoMigrate {
		if err := storage.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return err
		}
		c.Logger.Info("database schema ensured")
	}

	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	client, err := storage.NewRedis(ctx, &c.Config.Redis, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.Redis = client
	return nil
}

func (c *Container) initStorage() {
	c.CheckStore = storage.NewCheckStore(c.DB)
	c.CheckCache = storage.NewCheckCache(c.Redis, c.Config.Cache.TTL, c.Logger.With("component", "cache"))
	c.EventBus = storage.NewEventBus(c.Redis, c.Config.Events.Channel, c.Logger.With("component", "events"))
}

func (c *Container) initServices() {
	c.CheckService = services.NewCheckService(
		c.CheckStore,
		c.CheckCache,
		c.EventBus,
		c.Logger.With("service", "check"),
	)
}

// Close releases the database pool and the Redis client.
func (c *Container) Close() error {
	var errs []error

	if c.DB != nil {
		c.DB.Close()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	return errors.Join(errs...)
}
