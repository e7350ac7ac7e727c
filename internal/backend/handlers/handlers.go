package handlers

import (
	"log/slog"

	"Healthchecks/internal/backend/dependencies"
	"Healthchecks/internal/backend/services"
)

type Handlers struct {
	checkService *services.CheckService
	logger       *slog.Logger
}

func NewHandlers(container *dependencies.Container) *Handlers {
	logger := container.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handlers{
		checkService: container.CheckService,
		logger:       logger.With("component", "handlers"),
	}
}
