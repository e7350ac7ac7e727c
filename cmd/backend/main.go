package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"Healthchecks/internal/backend/dependencies"
	"Healthchecks/internal/backend/server"
	"Healthchecks/internal/config"
	"Healthchecks/internal/shared/constants"
	"Healthchecks/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}

	appLogger := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	appLogger.Info("starting healthchecks backend",
		slog.String("name", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.Int("port", cfg.Server.Port),
	)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseConnectTimeout)
	container, err := dependencies.NewContainer(ctx, cfg, appLogger)
	cancel()
	if err != nil {
		appLogger.Error("failed to create dependency container", "error", err)
		os.Exit(1)
	}

	srv := server.New(&server.Config{
		Port:        cfg.Server.Port,
		Mode:        cfg.Server.Mode,
		Name:        cfg.App.Name,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, container)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel = context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	// Shutdown also closes the container.
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	appLogger.Info("server stopped gracefully")
}
