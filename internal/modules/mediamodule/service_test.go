package mediamodule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/models"
	"github.com/mantonx/mediacat/internal/modules/deliverymodule"
	"github.com/mantonx/mediacat/internal/modules/mediamodule/core"
	"github.com/mantonx/mediacat/internal/modules/platformmodule"
	"github.com/mantonx/mediacat/internal/modules/poimodule"
)

// stubCleaner satisfies the store's cleanup dependency without touching the
// filesystem.
type stubCleaner struct{}

func (stubCleaner) PublicDir(mediaID string) string { return "media/" + mediaID }
func (stubCleaner) RemoveDir(string) error          { return nil }
func (stubCleaner) RemoveTempDir(string) error      { return nil }

// stubProvider resolves every fetch to one adaptive source.
type stubProvider struct {
	fetchCalls int
}

func (p *stubProvider) Type() string      { return "wowza" }
func (p *stubProvider) SingleFetch() bool { return false }

func (p *stubProvider) GetMediaInfo(_ context.Context, ids []string, _ int) (*platformmodule.Info, error) {
	p.fetchCalls++
	info := &platformmodule.Info{Available: true}
	for range ids {
		info.Sources = append(info.Sources, models.Source{
			Adaptive: []models.AdaptiveSource{{Link: "/vod/clip/playlist.m3u8"}},
		})
	}
	return info, nil
}

func (p *stubProvider) Remove(context.Context, []string) error { return nil }
func (p *stubProvider) Update(context.Context, *models.Media, *models.MediaUpdate, bool) error {
	return nil
}

type serviceFixture struct {
	service  *Service
	registry *poimodule.Registry
	provider *stubProvider
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	mediaDocs, err := docstore.Open(db, "media")
	require.NoError(t, err)
	pointDocs, err := docstore.Open(db, "points")
	require.NoError(t, err)

	provider := &stubProvider{}
	providers := platformmodule.NewRegistry()
	providers.Register(provider)

	registry := poimodule.NewRegistry(pointDocs, &stubFiles{}, nil)
	store := core.NewStore(mediaDocs, core.NewMutationQueue(), registry, stubCleaner{}, providers.RemoveResolver(), nil)
	converter := poimodule.NewConverter(registry, store)
	synchronizer := platformmodule.NewSynchronizer(providers, store, nil)
	resolver := deliverymodule.NewResolver("https://cdn/", "https://stream.example.com")

	return &serviceFixture{
		service:  NewService(store, registry, converter, synchronizer, resolver),
		registry: registry,
		provider: provider,
	}
}

type stubFiles struct{}

func (stubFiles) Remove(string) error { return nil }

func TestReadPathAssemblesFullView(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, points, err := fx.registry.Add(ctx, []*models.PointOfInterest{
		{Value: 0.5, Name: "half", File: &models.PointFile{URL: "media/m1/direct/half.png"}},
		{Value: 0.25, Name: "quarter"},
	})
	require.NoError(t, err)

	_, _, err = fx.service.Add(ctx, []*models.Media{{
		ID:        "m1",
		Title:     "clip",
		Type:      "wowza",
		MediaID:   models.StringList{"w-1"},
		Thumbnail: "/m1/thumb.jpg",
		Tags:      []string{points[0].ID, points[1].ID},
		Properties: map[string]interface{}{
			"duration": float64(600000),
		},
	}})
	require.NoError(t, err)

	view, err := fx.service.GetByID(ctx, "m1")
	require.NoError(t, err)

	// Platform info was fetched and persisted, and the streaming base is
	// concatenated onto the adaptive link.
	assert.Equal(t, 1, fx.provider.fetchCalls)
	assert.True(t, view.Available)
	require.Len(t, view.Media.Sources, 1)
	assert.Equal(t, "https://stream.example.com/vod/clip/playlist.m3u8", view.Media.Sources[0].Adaptive[0].Link)

	// Percent values were converted to milliseconds before hydration, and
	// the hydrated tags come back in ascending value order.
	require.Len(t, view.Tags, 2)
	assert.Equal(t, 150000.0, view.Tags[0].Value)
	assert.Equal(t, 300000.0, view.Tags[1].Value)
	assert.False(t, view.Media.NeedPointsOfInterestUnitConversion)

	// Asset paths are resolved against the CDN.
	assert.Equal(t, "https://cdn/m1/thumb.jpg", view.Media.Thumbnail)
	assert.Equal(t, "https://cdn/media/m1/direct/half.png", view.Tags[1].File.URL)
}

func TestReadPathSecondReadSkipsFetchWhenResolved(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := fx.service.Add(ctx, []*models.Media{{
		ID:      "m1",
		Type:    "wowza",
		MediaID: models.StringList{"w-1"},
	}})
	require.NoError(t, err)

	_, err = fx.service.GetByID(ctx, "m1")
	require.NoError(t, err)
	_, err = fx.service.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, fx.provider.fetchCalls)
}

func TestReadPathUnknownRecordIsNotFound(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, catalogerrors.ErrMediaNotFound)
}

func TestConversionWaitsForDuration(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, points, err := fx.registry.Add(ctx, []*models.PointOfInterest{{Value: 0.5}})
	require.NoError(t, err)

	_, _, err = fx.service.Add(ctx, []*models.Media{{
		ID:   "m1",
		Tags: []string{points[0].ID},
	}})
	require.NoError(t, err)

	// Without a duration the values stay fractional and the flag keeps
	// reporting that conversion is pending.
	view, err := fx.service.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, view.Media.NeedPointsOfInterestUnitConversion)
	assert.Equal(t, 0.5, view.Tags[0].Value)

	duration := float64(600000)
	props := map[string]interface{}{"duration": duration}
	_, err = fx.service.UpdateOne(ctx, docstore.Equal("id", "m1"), &models.MediaUpdate{Properties: &props})
	require.NoError(t, err)

	view, err = fx.service.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, view.Media.NeedPointsOfInterestUnitConversion)
	assert.Equal(t, 300000.0, view.Tags[0].Value)
}

func TestIncrementViews(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := fx.service.Add(ctx, []*models.Media{{ID: "m1"}})
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		views, err := fx.service.IncrementViews(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, i, views)
	}

	_, err = fx.service.IncrementViews(ctx, "ghost")
	assert.ErrorIs(t, err, catalogerrors.ErrMediaNotFound)
}

func TestSearchFindsStrippedDescription(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := fx.service.Add(ctx, []*models.Media{
		{ID: "m1", Title: "Alpine climb", Description: "<p>A <b>mountain</b> documentary</p>"},
		{ID: "m2", Title: "City tour"},
	})
	require.NoError(t, err)

	records, total, err := fx.service.Search(ctx, "mountain", 10, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "m1", records[0].ID)
}
