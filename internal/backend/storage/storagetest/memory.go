// Package storagetest provides in-memory implementations of the storage
// interfaces for tests of the layers above storage.
package storagetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"Healthchecks/internal/backend/models"
	"Healthchecks/internal/backend/storage"
	shared "Healthchecks/internal/shared/models"
	"Healthchecks/pkg/uuidutil"
)

// CheckStore keeps records in a map. Set Err to make every call fail.
// AfterGet, when set, runs after GetByID has read and released the store.
type CheckStore struct {
	mu       sync.Mutex
	records  map[string]models.CheckRecord
	seq      int
	Err      error
	AfterGet func(id string)
}

func NewCheckStore() *CheckStore {
	return &CheckStore{records: map[string]models.CheckRecord{}}
}

func (s *CheckStore) Create(_ context.Context, record *models.CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	if record.Check == nil {
		record.Check = &shared.Check{}
	}

	// keep insertion order observable even when the clock does not move
	s.seq++
	now := time.Now().UTC().Add(time.Duration(s.seq) * time.Microsecond)
	record.ID = uuidutil.New()
	record.CreatedAt = now
	record.UpdatedAt = now

	s.records[record.ID] = clone(record)
	return nil
}

func (s *CheckStore) GetByID(_ context.Context, id string) (*models.CheckRecord, error) {
	record, err := s.getByID(id)
	if s.AfterGet != nil {
		s.AfterGet(id)
	}
	return record, err
}

func (s *CheckStore) getByID(id string) (*models.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return cloneValue(record), nil
}

func (s *CheckStore) List(_ context.Context, filter models.CheckFilter) ([]*models.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	var matched []*models.CheckRecord
	for _, record := range s.records {
		if filter.Tag != "" && record.Tag != filter.Tag {
			continue
		}
		matched = append(matched, cloneValue(record))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func (s *CheckStore) Update(_ context.Context, record *models.CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	existing, ok := s.records[record.ID]
	if !ok {
		return storage.ErrCheckNotFound
	}

	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now().UTC()
	s.records[record.ID] = clone(record)
	return nil
}

func (s *CheckStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	if _, ok := s.records[id]; !ok {
		return storage.ErrCheckNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *CheckStore) CountByTag(_ context.Context) (models.TagStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	stats := models.TagStats{}
	for _, record := range s.records {
		stats[record.Tag]++
	}
	return stats, nil
}

// Len returns the number of stored records.
func (s *CheckStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// CheckCache is a map-backed cache that counts hits. Deletes leave
// tombstones that never expire. Set Err to fail every call.
type CheckCache struct {
	mu         sync.Mutex
	records    map[string]models.CheckRecord
	tombstones map[string]struct{}
	Hits       int
	Err        error
}

func NewCheckCache() *CheckCache {
	return &CheckCache{
		records:    map[string]models.CheckRecord{},
		tombstones: map[string]struct{}{},
	}
}

func (c *CheckCache) Get(_ context.Context, id string) (*models.CheckRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}

	record, ok := c.records[id]
	if !ok {
		return nil, nil
	}
	c.Hits++
	return cloneValue(record), nil
}

func (c *CheckCache) Set(_ context.Context, record *models.CheckRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}

	delete(c.tombstones, record.ID)
	c.records[record.ID] = clone(record)
	return nil
}

func (c *CheckCache) Fill(_ context.Context, record *models.CheckRecord) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return false, c.Err
	}

	if _, ok := c.records[record.ID]; ok {
		return false, nil
	}
	if _, ok := c.tombstones[record.ID]; ok {
		return false, nil
	}

	c.records[record.ID] = clone(record)
	return true, nil
}

func (c *CheckCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}

	delete(c.records, id)
	c.tombstones[id] = struct{}{}
	return nil
}

// Contains reports whether id is cached.
func (c *CheckCache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.records[id]
	return ok
}

// EventBus records published events and delivers them to one subscriber.
// Events published before Subscribe are buffered.
type EventBus struct {
	mu        sync.Mutex
	published []models.CheckEvent
	stream    chan models.CheckEvent
	Err       error
}

func NewEventBus() *EventBus {
	return &EventBus{stream: make(chan models.CheckEvent, 64)}
}

func (b *EventBus) Publish(_ context.Context, event models.CheckEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	b.published = append(b.published, event)
	select {
	case b.stream <- event:
	default:
	}
	return nil
}

func (b *EventBus) Subscribe(_ context.Context) (storage.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return nil, b.Err
	}
	return &subscription{events: b.stream}, nil
}

// Published returns a copy of every published event.
func (b *EventBus) Published() []models.CheckEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.CheckEvent, len(b.published))
	copy(out, b.published)
	return out
}

type subscription struct {
	events chan models.CheckEvent
}

func (s *subscription) Events() <-chan models.CheckEvent {
	return s.events
}

func (s *subscription) Close() error {
	return nil
}

func clone(record *models.CheckRecord) models.CheckRecord {
	out := *record
	if record.Check != nil {
		check := *record.Check
		out.Check = &check
	}
	return out
}

func cloneValue(record models.CheckRecord) *models.CheckRecord {
	out := clone(&record)
	return &out
}
