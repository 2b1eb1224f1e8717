package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/models"
)

// mockPoints resolves POI ids from a fixed table.
type mockPoints struct {
	values map[string]float64
}

func (m *mockPoints) Values(_ context.Context, ids []string) ([]float64, error) {
	var out []float64
	for _, id := range ids {
		if v, ok := m.values[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// mockCleaner records cleanup calls.
type mockCleaner struct {
	mu       sync.Mutex
	dirs     []string
	tempDirs []string
	fail     error
}

func (m *mockCleaner) PublicDir(mediaID string) string { return "media/" + mediaID }

func (m *mockCleaner) RemoveDir(relative string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.dirs = append(m.dirs, relative)
	return nil
}

func (m *mockCleaner) RemoveTempDir(mediaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tempDirs = append(m.tempDirs, mediaID)
	return nil
}

// mockProvider records platform-side removals.
type mockProvider struct {
	mu      sync.Mutex
	removed [][]string
	fail    error
}

func (m *mockProvider) Remove(_ context.Context, mediaIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.removed = append(m.removed, mediaIDs)
	return nil
}

type storeFixture struct {
	store    *Store
	points   *mockPoints
	cleaner  *mockCleaner
	provider *mockProvider
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	docs, err := docstore.Open(db, "media")
	require.NoError(t, err)

	fx := &storeFixture{
		points:   &mockPoints{values: map[string]float64{}},
		cleaner:  &mockCleaner{},
		provider: &mockProvider{},
	}
	fx.store = NewStore(docs, NewMutationQueue(), fx.points, fx.cleaner, func(platformType string) (RemoteRemover, bool) {
		if platformType == "unknown" {
			return nil, false
		}
		return fx.provider, true
	}, nil)
	return fx
}

func TestAddFillsDefaults(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	n, records, err := fx.store.Add(ctx, []*models.Media{{}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, records, 1)

	m := records[0]
	assert.NotEmpty(t, m.ID)
	assert.NotNil(t, m.Cut)
	assert.Empty(t, m.Cut)
	assert.NotNil(t, m.Sources)
	assert.Empty(t, m.Sources)
	assert.NotNil(t, m.Properties)
	assert.EqualValues(t, 0, m.Views)
	assert.Equal(t, models.AnonymousUser, m.Metadata.User)
	assert.NotNil(t, m.Metadata.Groups)
	assert.Empty(t, m.Metadata.Groups)

	// The generated id addresses the stored record.
	got, err := fx.store.GetOne(ctx, docstore.Equal("id", m.ID), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestGetOneNoMatchReturnsNil(t *testing.T) {
	fx := newStoreFixture(t)

	got, err := fx.store.GetOne(context.Background(), docstore.Equal("id", "nope"), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConversionFlag(t *testing.T) {
	tests := []struct {
		name     string
		points   map[string]float64
		media    models.Media
		expected bool
	}{
		{
			name:     "percent chapter",
			points:   map[string]float64{"c1": 0.25},
			media:    models.Media{ID: "m1", Chapters: []string{"c1"}},
			expected: true,
		},
		{
			name:     "millisecond chapter",
			points:   map[string]float64{"c1": 3000},
			media:    models.Media{ID: "m1", Chapters: []string{"c1"}},
			expected: false,
		},
		{
			name:     "exact zero is not a percentage",
			points:   map[string]float64{"c1": 0},
			media:    models.Media{ID: "m1", Chapters: []string{"c1"}},
			expected: false,
		},
		{
			name:     "tags consulted when chapters empty",
			points:   map[string]float64{"t1": 0.5},
			media:    models.Media{ID: "m1", Tags: []string{"t1"}},
			expected: true,
		},
		{
			name:   "chapters take priority over tags",
			points: map[string]float64{"c1": 3000, "t1": 0.5},
			media:  models.Media{ID: "m1", Chapters: []string{"c1"}, Tags: []string{"t1"}},
			// Only the first non-empty list is examined.
			expected: false,
		},
		{
			name:     "cut consulted last",
			media:    models.Media{ID: "m1", Cut: []models.PointOfInterest{{Value: 0.1}, {Value: 0.9}}},
			expected: true,
		},
		{
			name:     "no points at all",
			media:    models.Media{ID: "m1"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newStoreFixture(t)
			fx.points.values = tt.points
			ctx := context.Background()

			_, _, err := fx.store.Add(ctx, []*models.Media{&tt.media})
			require.NoError(t, err)

			got, err := fx.store.GetOne(ctx, docstore.Equal("id", tt.media.ID), nil)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got.NeedPointsOfInterestUnitConversion)
		})
	}
}

func TestUpdateOneAppliesZeroValues(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{{ID: "m1", Views: 0, Available: false}})
	require.NoError(t, err)

	views := int64(7)
	avail := true
	_, err = fx.store.UpdateOne(ctx, docstore.Equal("id", "m1"), &models.MediaUpdate{Views: &views, Available: &avail})
	require.NoError(t, err)

	// Zero values set through pointers must still be applied.
	views = 0
	avail = false
	errCode := 0
	updated, err := fx.store.UpdateOne(ctx, docstore.Equal("id", "m1"), &models.MediaUpdate{
		Views:     &views,
		Available: &avail,
		ErrorCode: &errCode,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated.Views)
	assert.False(t, updated.Available)
	assert.Zero(t, updated.ErrorCode)
}

func TestUpdateOneRegeneratesDescriptionText(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{{ID: "m1"}})
	require.NoError(t, err)

	desc := "<p>Hello <b>world</b> &amp; friends</p>"
	updated, err := fx.store.UpdateOne(ctx, docstore.Equal("id", "m1"), &models.MediaUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	assert.Equal(t, "Hello world & friends", updated.DescriptionText)
}

func TestUpdateOneFiltersEmptyGroups(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{{ID: "m1"}})
	require.NoError(t, err)

	groups := []string{"editors", "", "admins", ""}
	updated, err := fx.store.UpdateOne(ctx, docstore.Equal("id", "m1"), &models.MediaUpdate{Groups: &groups})
	require.NoError(t, err)
	assert.Equal(t, []string{"editors", "admins"}, updated.Metadata.Groups)
}

func TestUpdateOneNoMatchIsNotFound(t *testing.T) {
	fx := newStoreFixture(t)

	title := "x"
	_, err := fx.store.UpdateOne(context.Background(), docstore.Equal("id", "nope"), &models.MediaUpdate{Title: &title})
	assert.ErrorIs(t, err, catalogerrors.ErrMediaNotFound)
}

func TestUpdateStateGuards(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{
		{ID: "ready", State: models.StateReady},
		{ID: "pending", State: models.StatePending},
	})
	require.NoError(t, err)

	ok, err := fx.store.UpdateState(ctx, "ready", true)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := fx.store.GetOne(ctx, docstore.Equal("id", "ready"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatePublished, got.State)

	// Publishing a non-ready record affects zero rows without an error.
	ok, err = fx.store.UpdateState(ctx, "pending", true)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = fx.store.GetOne(ctx, docstore.Equal("id", "pending"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, got.State)
}

func TestUpdateStateManyCountMismatch(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{
		{ID: "a", State: models.StateReady},
		{ID: "b", State: models.StatePending},
	})
	require.NoError(t, err)

	count, err := fx.store.UpdateStateMany(ctx, []string{"a", "b"}, true)
	assert.Equal(t, 1, count)
	assert.ErrorIs(t, err, catalogerrors.ErrPartialCompletion)
}

func TestRemoveCleansUpArtifactsAndPlatform(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{
		{ID: "m1", Type: "wowza", MediaID: models.StringList{"w-1", "w-2"}},
	})
	require.NoError(t, err)

	removed, err := fx.store.Remove(ctx, docstore.Equal("id", "m1"), false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	assert.Equal(t, []string{"media/m1"}, fx.cleaner.dirs)
	assert.Equal(t, []string{"m1"}, fx.cleaner.tempDirs)
	require.Len(t, fx.provider.removed, 1)
	assert.Equal(t, []string{"w-1", "w-2"}, fx.provider.removed[0])
}

func TestRemoveKeepRemoteSkipsProvider(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{
		{ID: "m1", Type: "wowza", MediaID: models.StringList{"w-1"}},
	})
	require.NoError(t, err)

	_, err = fx.store.Remove(ctx, docstore.Equal("id", "m1"), true)
	require.NoError(t, err)
	assert.Empty(t, fx.provider.removed)
}

func TestRemoveNoMatchPerformsNoCleanup(t *testing.T) {
	fx := newStoreFixture(t)

	removed, err := fx.store.Remove(context.Background(), docstore.Equal("id", "ghost"), false)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Empty(t, fx.cleaner.dirs)
	assert.Empty(t, fx.cleaner.tempDirs)
	assert.Empty(t, fx.provider.removed)
}

func TestRemoveSurfacesCleanupFailure(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{{ID: "m1"}})
	require.NoError(t, err)

	boom := errors.New("disk gone")
	fx.cleaner.fail = boom

	removed, err := fx.store.Remove(ctx, docstore.Equal("id", "m1"), false)
	// The metadata row is already gone; the failure still surfaces.
	assert.EqualValues(t, 1, removed)
	assert.ErrorIs(t, err, boom)
}

func TestRemoveByIDsCountMismatch(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{{ID: "m1"}})
	require.NoError(t, err)

	removed, err := fx.store.RemoveByIDs(ctx, []string{"m1", "ghost"}, true)
	assert.EqualValues(t, 1, removed)
	assert.ErrorIs(t, err, catalogerrors.ErrPartialCompletion)
}

func TestLegacyScalarMediaIDNormalized(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	// Legacy records stored mediaId as a bare string; the decoder must
	// normalize it so providers always see a list.
	var m models.Media
	require.NoError(t, m.MediaID.UnmarshalJSON([]byte(`"legacy-1"`)))
	m.ID = "m1"
	m.Type = "dailymotion"

	_, _, err := fx.store.Add(ctx, []*models.Media{&m})
	require.NoError(t, err)

	_, err = fx.store.Remove(ctx, docstore.Equal("id", "m1"), false)
	require.NoError(t, err)
	require.Len(t, fx.provider.removed, 1)
	assert.Equal(t, []string{"legacy-1"}, fx.provider.removed[0])
}

func TestConcurrentMutationsAllApply(t *testing.T) {
	fx := newStoreFixture(t)
	ctx := context.Background()

	_, _, err := fx.store.Add(ctx, []*models.Media{{ID: "m1"}})
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			title := "concurrent"
			_, err := fx.store.UpdateOne(ctx, docstore.Equal("id", "m1"), &models.MediaUpdate{Title: &title})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := fx.store.GetOne(ctx, docstore.Equal("id", "m1"), nil)
	require.NoError(t, err)
	assert.Equal(t, "concurrent", got.Title)
}
