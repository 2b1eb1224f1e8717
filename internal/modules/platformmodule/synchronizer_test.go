package platformmodule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/mediacat/internal/docstore"
	"github.com/mantonx/mediacat/internal/models"
)

// fakeProvider scripts fetch results for the synchronizer.
type fakeProvider struct {
	platformType string
	singleFetch  bool
	info         *Info
	err          error

	fetchCalls  int
	lastIDs     []string
	lastHeight  int
	removeCalls int
}

func (p *fakeProvider) Type() string      { return p.platformType }
func (p *fakeProvider) SingleFetch() bool { return p.singleFetch }

func (p *fakeProvider) GetMediaInfo(_ context.Context, ids []string, expectedHeight int) (*Info, error) {
	p.fetchCalls++
	p.lastIDs = ids
	p.lastHeight = expectedHeight
	if p.err != nil {
		return nil, p.err
	}
	return p.info, nil
}

func (p *fakeProvider) Remove(_ context.Context, _ []string) error {
	p.removeCalls++
	return nil
}

func (p *fakeProvider) Update(_ context.Context, _ *models.Media, _ *models.MediaUpdate, _ bool) error {
	return nil
}

// fakePersister records the changesets the synchronizer persists.
type fakePersister struct {
	updates []*models.MediaUpdate
	err     error
}

func (f *fakePersister) UpdateOne(_ context.Context, _ docstore.Filter, changes *models.MediaUpdate) (*models.Media, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updates = append(f.updates, changes)
	return nil, nil
}

func newSyncFixture(provider *fakeProvider) (*Synchronizer, *fakePersister) {
	registry := NewRegistry()
	if provider != nil {
		registry.Register(provider)
	}
	persister := &fakePersister{}
	return NewSynchronizer(registry, persister, nil), persister
}

func TestRefreshSkipsRecordsWithoutPlatformBinding(t *testing.T) {
	provider := &fakeProvider{platformType: "wowza"}
	sync, persister := newSyncFixture(provider)
	ctx := context.Background()

	require.NoError(t, sync.Refresh(ctx, &models.Media{ID: "m1"}))
	require.NoError(t, sync.Refresh(ctx, &models.Media{ID: "m2", Type: "wowza"}))
	require.NoError(t, sync.Refresh(ctx, &models.Media{ID: "m3", MediaID: models.StringList{"w-1"}}))

	assert.Zero(t, provider.fetchCalls)
	assert.Empty(t, persister.updates)
}

func TestRefreshSkipsUnknownPlatformType(t *testing.T) {
	sync, persister := newSyncFixture(nil)

	record := &models.Media{ID: "m1", Type: "vimeo", MediaID: models.StringList{"v-1"}}
	require.NoError(t, sync.Refresh(context.Background(), record))
	assert.Empty(t, persister.updates)
}

func TestRefreshSkipsResolvedRecords(t *testing.T) {
	provider := &fakeProvider{platformType: "wowza"}
	sync, _ := newSyncFixture(provider)

	record := &models.Media{
		ID:      "m1",
		Type:    "wowza",
		MediaID: models.StringList{"w-1", "w-2"},
		Sources: []models.Source{{}, {}},
	}
	require.NoError(t, sync.Refresh(context.Background(), record))
	assert.Zero(t, provider.fetchCalls)
}

func TestRefreshSingleFetchResolvedWithOneSource(t *testing.T) {
	provider := &fakeProvider{platformType: "dailymotion", singleFetch: true}
	sync, _ := newSyncFixture(provider)

	// Two platform ids but one resolved source: an immutable catalog never
	// yields more, so the record counts as resolved.
	record := &models.Media{
		ID:      "m1",
		Type:    "dailymotion",
		MediaID: models.StringList{"d-1", "d-2"},
		Sources: []models.Source{{}},
	}
	require.NoError(t, sync.Refresh(context.Background(), record))
	assert.Zero(t, provider.fetchCalls)
}

func TestRefreshPersistsAndMutatesRecord(t *testing.T) {
	fetched := []models.Source{{Adaptive: []models.AdaptiveSource{{Link: "/live/w-1.m3u8"}}}}
	provider := &fakeProvider{
		platformType: "wowza",
		info:         &Info{Available: true, Sources: fetched},
	}
	sync, persister := newSyncFixture(provider)

	record := &models.Media{
		ID:         "m1",
		Type:       "wowza",
		MediaID:    models.StringList{"w-1"},
		Properties: map[string]interface{}{"expectedHeight": float64(720)},
	}
	require.NoError(t, sync.Refresh(context.Background(), record))

	assert.Equal(t, 1, provider.fetchCalls)
	assert.Equal(t, []string{"w-1"}, provider.lastIDs)
	assert.Equal(t, 720, provider.lastHeight)

	require.Len(t, persister.updates, 1)
	require.NotNil(t, persister.updates[0].Available)
	assert.True(t, *persister.updates[0].Available)
	require.NotNil(t, persister.updates[0].Sources)
	assert.Equal(t, fetched, *persister.updates[0].Sources)

	assert.True(t, record.Available)
	assert.Equal(t, fetched, record.Sources)
}

func TestRefreshFetchFailurePropagatesVerbatim(t *testing.T) {
	boom := errors.New("platform down")
	provider := &fakeProvider{platformType: "wowza", err: boom}
	sync, persister := newSyncFixture(provider)

	record := &models.Media{ID: "m1", Type: "wowza", MediaID: models.StringList{"w-1"}}
	err := sync.Refresh(context.Background(), record)
	assert.Equal(t, boom, err)

	// No marker persisted; the next read retries.
	assert.Empty(t, persister.updates)
	assert.Empty(t, record.Sources)
	assert.False(t, record.Available)

	require.Error(t, sync.Refresh(context.Background(), record))
	assert.Equal(t, 2, provider.fetchCalls)
}

func TestRefreshPersistFailureLeavesRecordUntouched(t *testing.T) {
	provider := &fakeProvider{
		platformType: "wowza",
		info:         &Info{Available: true, Sources: []models.Source{{}}},
	}
	registry := NewRegistry()
	registry.Register(provider)
	persister := &fakePersister{err: errors.New("db down")}
	sync := NewSynchronizer(registry, persister, nil)

	record := &models.Media{ID: "m1", Type: "wowza", MediaID: models.StringList{"w-1"}}
	require.Error(t, sync.Refresh(context.Background(), record))
	assert.Empty(t, record.Sources)
	assert.False(t, record.Available)
}

func TestRegistryResolution(t *testing.T) {
	registry := NewRegistry()
	provider := &fakeProvider{platformType: "local"}
	registry.Register(provider)

	got, ok := registry.Get("local")
	assert.True(t, ok)
	assert.Equal(t, provider, got)

	_, ok = registry.Get("wowza")
	assert.False(t, ok)

	resolve := registry.RemoveResolver()
	remover, ok := resolve("local")
	require.True(t, ok)
	require.NoError(t, remover.Remove(context.Background(), []string{"a"}))
	assert.Equal(t, 1, provider.removeCalls)

	_, ok = resolve("wowza")
	assert.False(t, ok)
}
