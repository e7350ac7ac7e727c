package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Healthchecks/internal/backend/models"
	"Healthchecks/internal/backend/storage"
	shared "Healthchecks/internal/shared/models"
	"Healthchecks/pkg/validator"
)

var ErrEmptyPatch = errors.New("patch does not set any field")

type CheckService struct {
	checkStore storage.CheckStore
	cache      storage.CheckCache
	events     storage.EventBus
	logger     *slog.Logger
}

func NewCheckService(
	checkStore storage.CheckStore,
	cache storage.CheckCache,
	events storage.EventBus,
	logger *slog.Logger,
) *CheckService {
	if logger == nil {
		logger = slog.Default()
	}

	return &CheckService{
		checkStore: checkStore,
		cache:      cache,
		events:     events,
		logger:     logger,
	}
}

// CreateCheck stores check exactly as given.
func (s *CheckService) CreateCheck(ctx context.Context, check *shared.Check) (*models.CheckRecord, error) {
	if check == nil {
		check = &shared.Check{}
	}

	s.logger.Info("creating new check",
		"name", check.Name,
		"tag", check.Tag,
	)

	record := &models.CheckRecord{Check: check}
	if err := s.checkStore.Create(ctx, record); err != nil {
		s.logger.Error("failed to create check in storage",
			"error", err,
			"name", check.Name,
		)
		return nil, fmt.Errorf("failed to create check: %w", err)
	}

	s.cacheRecord(ctx, record)
	s.publish(ctx, models.CheckEventCreated, record.ID)

	s.logger.Info("check created",
		"check_id", record.ID,
		"name", check.Name,
		"tag", check.Tag,
	)

	return record, nil
}

// GetCheck returns nil, nil when the check does not exist.
func (s *CheckService) GetCheck(ctx context.Context, id string) (*models.CheckRecord, error) {
	s.logger.Debug("getting check by ID", "check_id", id)

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("check cache read failed, falling back to storage",
			"error", err,
			"check_id", id,
		)
	}
	if cached != nil {
		return cached, nil
	}

	record, err := s.checkStore.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get check from storage",
			"error", err,
			"check_id", id,
		)
		return nil, fmt.Errorf("failed to get check: %w", err)
	}

	if record == nil {
		s.logger.Debug("check not found", "check_id", id)
		return nil, nil
	}

	// Fill never replaces an entry or tombstone left by a concurrent write.
	if _, err := s.cache.Fill(ctx, record); err != nil {
		s.logger.Warn("failed to fill check cache", "error", err, "check_id", id)
	}
	return record, nil
}

// ListChecks returns checks newest first. The page reports the limit and
// offset actually applied after normalization.
func (s *CheckService) ListChecks(ctx context.Context, filter models.CheckFilter) (*models.CheckPage, error) {
	filter.Limit, filter.Offset = validator.NormalizePage(filter.Limit, filter.Offset)

	s.logger.Debug("listing checks",
		"tag", filter.Tag,
		"limit", filter.Limit,
		"offset", filter.Offset,
	)

	records, err := s.checkStore.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list checks from storage",
			"error", err,
			"tag", filter.Tag,
			"limit", filter.Limit,
			"offset", filter.Offset,
		)
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}

	return &models.CheckPage{
		Records: records,
		Filter:  filter,
	}, nil
}

// ReplaceCheck overwrites every field of the stored check with check.
func (s *CheckService) ReplaceCheck(ctx context.Context, id string, check *shared.Check) (*models.CheckRecord, error) {
	if check == nil {
		check = &shared.Check{}
	}

	existing, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Check = check
	return s.update(ctx, existing)
}

// PatchCheck sets only the fields present in patch.
func (s *CheckService) PatchCheck(ctx context.Context, id string, patch models.CheckPatch) (*models.CheckRecord, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	existing, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(existing.Check)
	return s.update(ctx, existing)
}

func (s *CheckService) DeleteCheck(ctx context.Context, id string) error {
	s.logger.Debug("deleting check", "check_id", id)

	if err := s.checkStore.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrCheckNotFound) {
			s.logger.Warn("check not found for delete", "check_id", id)
		} else {
			s.logger.Error("failed to delete check", "error", err, "check_id", id)
		}
		return fmt.Errorf("failed to delete check: %w", err)
	}

	s.evict(ctx, id)
	s.publish(ctx, models.CheckEventDeleted, id)

	s.logger.Info("check deleted", "check_id", id)
	return nil
}

// TagStats counts checks per tag.
func (s *CheckService) TagStats(ctx context.Context) (models.TagStats, error) {
	stats, err := s.checkStore.CountByTag(ctx)
	if err != nil {
		s.logger.Error("failed to count checks by tag", "error", err)
		return nil, fmt.Errorf("failed to get tag stats: %w", err)
	}

	s.logger.Debug("tag statistics calculated", "tags", len(stats))
	return stats, nil
}

// Subscribe opens a stream of check change events.
func (s *CheckService) Subscribe(ctx context.Context) (storage.Subscription, error) {
	sub, err := s.events.Subscribe(ctx)
	if err != nil {
		s.logger.Error("failed to subscribe to check events", "error", err)
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return sub, nil
}

// loadForUpdate bypasses the cache.
func (s *CheckService) loadForUpdate(ctx context.Context, id string) (*models.CheckRecord, error) {
	record, err := s.checkStore.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get check for update",
			"error", err,
			"check_id", id,
		)
		return nil, fmt.Errorf("failed to get check: %w", err)
	}

	if record == nil {
		s.logger.Warn("check not found for update", "check_id", id)
		return nil, fmt.Errorf("check %s: %w", id, storage.ErrCheckNotFound)
	}

	return record, nil
}

func (s *CheckService) update(ctx context.Context, record *models.CheckRecord) (*models.CheckRecord, error) {
	if err := s.checkStore.Update(ctx, record); err != nil {
		s.logger.Error("failed to update check in storage",
			"error", err,
			"check_id", record.ID,
		)
		s.evict(ctx, record.ID)
		return nil, fmt.Errorf("failed to update check: %w", err)
	}

	s.cacheRecord(ctx, record)
	s.publish(ctx, models.CheckEventUpdated, record.ID)

	s.logger.Info("check updated", "check_id", record.ID)
	return record, nil
}

func (s *CheckService) cacheRecord(ctx context.Context, record *models.CheckRecord) {
	if err := s.cache.Set(ctx, record); err != nil {
		s.logger.Warn("failed to cache check", "error", err, "check_id", record.ID)
	}
}

func (s *CheckService) evict(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to evict check from cache", "error", err, "check_id", id)
	}
}

// publish logs and drops failures.
func (s *CheckService) publish(ctx context.Context, eventType models.CheckEventType, id string) {
	if err := s.events.Publish(ctx, models.NewCheckEvent(eventType, id)); err != nil {
		s.logger.Warn("failed to publish check event",
			"error", err,
			"type", eventType,
			"check_id", id,
		)
	}
}
