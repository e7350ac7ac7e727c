package services_test

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"Healthchecks/internal/backend/models"
	"Healthchecks/internal/backend/services"
	"Healthchecks/internal/backend/storage"
	"Healthchecks/internal/backend/storage/storagetest"
	shared "Healthchecks/internal/shared/models"
	"Healthchecks/pkg/logger"
	"Healthchecks/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *storagetest.CheckStore
	cache   *storagetest.CheckCache
	events  *storagetest.EventBus
	service *services.CheckService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  storagetest.NewCheckStore(),
		cache:  storagetest.NewCheckCache(),
		events: storagetest.NewEventBus(),
	}
	f.service = services.NewCheckService(f.store, f.cache, f.events, logger.Discard())
	return f
}

func sampleCheck(t *testing.T) *shared.Check {
	t.Helper()

	pingURL, err := url.Parse("https://hc.example/ping/abc123")
	require.NoError(t, err)

	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)
	return shared.NewCheck("disk-space", "prod", 60, 30, pingURL, 5, &last, &next)
}

func eventTypes(events []models.CheckEvent) []models.CheckEventType {
	out := make([]models.CheckEventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestCheckService_CreateCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.service.CreateCheck(ctx, sampleCheck(t))
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "disk-space", record.Name)
	assert.Equal(t, uint32(60), record.Timeout)
	assert.Equal(t, 1, f.store.Len())
	assert.True(t, f.cache.Contains(record.ID))

	published := f.events.Published()
	require.Len(t, published, 1)
	assert.Equal(t, models.CheckEventCreated, published[0].Type)
	assert.Equal(t, record.ID, published[0].CheckID)
}

func TestCheckService_CreateCheck_NilIsZeroCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	record, err := f.service.CreateCheck(context.Background(), nil)
	require.NoError(t, err)

	require.NotNil(t, record.Check)
	assert.Empty(t, record.Name)
	assert.Nil(t, record.PingURL)
	assert.Nil(t, record.LastPingDate)
}

func TestCheckService_CreateCheck_StorageError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.store.Err = errors.New("db down")

	record, err := f.service.CreateCheck(context.Background(), sampleCheck(t))

	require.ErrorContains(t, err, "failed to create check")
	assert.Nil(t, record)
	assert.Empty(t, f.events.Published())
}

func TestCheckService_CreateCheck_SideEffectFailuresAreTolerated(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.cache.Err = errors.New("redis down")
	f.events.Err = errors.New("redis down")

	record, err := f.service.CreateCheck(context.Background(), sampleCheck(t))

	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, 1, f.store.Len())
}

func TestCheckService_GetCheck(t *testing.T) {
	t.Parallel()

	t.Run("cache hit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.service.CreateCheck(ctx, sampleCheck(t))
		require.NoError(t, err)

		got, err := f.service.GetCheck(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, 1, f.cache.Hits)
	})

	t.Run("cache miss falls back to storage and fills cache", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()

		record := &models.CheckRecord{Check: sampleCheck(t)}
		require.NoError(t, f.store.Create(ctx, record))
		require.False(t, f.cache.Contains(record.ID))

		got, err := f.service.GetCheck(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "disk-space", got.Name)
		assert.True(t, f.cache.Contains(record.ID))
		assert.Zero(t, f.cache.Hits)
	})

	t.Run("cache error falls back to storage", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()

		record := &models.CheckRecord{Check: sampleCheck(t)}
		require.NoError(t, f.store.Create(ctx, record))
		f.cache.Err = errors.New("redis down")

		got, err := f.service.GetCheck(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record.ID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		got, err := f.service.GetCheck(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.store.Err = errors.New("db down")

		_, err := f.service.GetCheck(context.Background(), "any")
		require.ErrorContains(t, err, "failed to get check")
	})
}

func TestCheckService_ListChecks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	for _, tag := range []string{"prod", "dev", "prod"} {
		check := sampleCheck(t)
		check.Tag = tag
		_, err := f.service.CreateCheck(ctx, check)
		require.NoError(t, err)
	}

	all, err := f.service.ListChecks(ctx, models.CheckFilter{})
	require.NoError(t, err)
	require.Len(t, all.Records, 3)
	assert.True(t, all.Records[0].CreatedAt.After(all.Records[2].CreatedAt))
	assert.Equal(t, validator.DefaultLimit, all.Filter.Limit)

	prod, err := f.service.ListChecks(ctx, models.CheckFilter{Tag: "prod"})
	require.NoError(t, err)
	assert.Len(t, prod.Records, 2)
	assert.Equal(t, "prod", prod.Filter.Tag)

	page, err := f.service.ListChecks(ctx, models.CheckFilter{Limit: 1, Offset: -5})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, all.Records[0].ID, page.Records[0].ID)
	assert.Zero(t, page.Filter.Offset)

	capped, err := f.service.ListChecks(ctx, models.CheckFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, validator.MaxLimit, capped.Filter.Limit)
	assert.Len(t, capped.Records, 3)

	f.store.Err = errors.New("db down")
	_, err = f.service.ListChecks(ctx, models.CheckFilter{})
	require.ErrorContains(t, err, "failed to list checks")
}

func TestCheckService_ReplaceCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateCheck(ctx, sampleCheck(t))
	require.NoError(t, err)

	replacement := shared.NewCheck("backups", "", 3600, 0, nil, 0, nil, nil)
	updated, err := f.service.ReplaceCheck(ctx, created.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "backups", updated.Name)
	assert.Empty(t, updated.Tag)
	assert.Nil(t, updated.PingURL)
	assert.Nil(t, updated.LastPingDate)
	assert.Nil(t, updated.NextPingDate)

	got, err := f.service.GetCheck(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "backups", got.Name)
	assert.Equal(t, uint32(3600), got.Timeout)

	assert.Equal(t,
		[]models.CheckEventType{models.CheckEventCreated, models.CheckEventUpdated},
		eventTypes(f.events.Published()),
	)
}

func TestCheckService_ReplaceCheck_Missing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.service.ReplaceCheck(context.Background(), "missing", &shared.Check{})
	require.ErrorIs(t, err, storage.ErrCheckNotFound)
}

func TestCheckService_PatchCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateCheck(ctx, sampleCheck(t))
	require.NoError(t, err)

	count := uint32(6)
	updated, err := f.service.PatchCheck(ctx, created.ID, models.CheckPatch{PingCount: &count})
	require.NoError(t, err)

	assert.Equal(t, uint32(6), updated.PingCount)
	assert.Equal(t, "disk-space", updated.Name)
	assert.Equal(t, "prod", updated.Tag)
	assert.Equal(t, uint32(60), updated.Timeout)
	assert.Equal(t, uint32(30), updated.Grace)
	require.NotNil(t, updated.PingURL)
	assert.Equal(t, "https://hc.example/ping/abc123", updated.PingURL.String())
	require.NotNil(t, updated.LastPingDate)
	require.NotNil(t, updated.NextPingDate)
}

func TestCheckService_PatchCheck_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.PatchCheck(ctx, "any", models.CheckPatch{})
	require.ErrorIs(t, err, services.ErrEmptyPatch)

	name := "renamed"
	_, err = f.service.PatchCheck(ctx, "missing", models.CheckPatch{Name: &name})
	require.ErrorIs(t, err, storage.ErrCheckNotFound)
}

func TestCheckService_DeleteCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateCheck(ctx, sampleCheck(t))
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteCheck(ctx, created.ID))
	assert.Zero(t, f.store.Len())
	assert.False(t, f.cache.Contains(created.ID))

	got, err := f.service.GetCheck(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = f.service.DeleteCheck(ctx, created.ID)
	require.ErrorIs(t, err, storage.ErrCheckNotFound)

	assert.Equal(t,
		[]models.CheckEventType{models.CheckEventCreated, models.CheckEventDeleted},
		eventTypes(f.events.Published()),
	)
}

func TestCheckService_GetCheck_LateFillAfterDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	record := &models.CheckRecord{Check: sampleCheck(t)}
	require.NoError(t, f.store.Create(ctx, record))

	// delete lands between the store read and the cache fill
	var fired atomic.Bool
	f.store.AfterGet = func(id string) {
		if fired.CompareAndSwap(false, true) {
			require.NoError(t, f.service.DeleteCheck(ctx, id))
		}
	}

	got, err := f.service.GetCheck(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.False(t, f.cache.Contains(record.ID))

	got, err = f.service.GetCheck(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCheckService_GetCheck_LateFillAfterUpdate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	record := &models.CheckRecord{Check: sampleCheck(t)}
	require.NoError(t, f.store.Create(ctx, record))

	// the patch reads the store too, so only the first read triggers it
	count := uint32(6)
	var fired atomic.Bool
	f.store.AfterGet = func(id string) {
		if fired.CompareAndSwap(false, true) {
			_, err := f.service.PatchCheck(ctx, id, models.CheckPatch{PingCount: &count})
			require.NoError(t, err)
		}
	}

	stale, err := f.service.GetCheck(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), stale.PingCount)

	got, err := f.service.GetCheck(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint32(6), got.PingCount)
	assert.Equal(t, 1, f.cache.Hits)
}

func TestCheckService_TagStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	for _, tag := range []string{"prod", "prod", "dev", ""} {
		_, err := f.service.CreateCheck(ctx, &shared.Check{Tag: tag})
		require.NoError(t, err)
	}

	stats, err := f.service.TagStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TagStats{"prod": 2, "dev": 1, "": 1}, stats)
}

func TestCheckService_Subscribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.service.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	created, err := f.service.CreateCheck(ctx, sampleCheck(t))
	require.NoError(t, err)

	select {
	case event := <-sub.Events():
		assert.Equal(t, created.ID, event.CheckID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	f.events.Err = errors.New("redis down")
	_, err = f.service.Subscribe(ctx)
	require.ErrorContains(t, err, "failed to subscribe")
}
