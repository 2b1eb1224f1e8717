package poimodule

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

// mockFiles records attachment removals.
type mockFiles struct {
	mu      sync.Mutex
	removed []string
	fail    error
}

func (m *mockFiles) Remove(relative string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.removed = append(m.removed, relative)
	return nil
}

func newRegistryFixture(t *testing.T) (*Registry, *mockFiles) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	docs, err := docstore.Open(db, "points")
	require.NoError(t, err)

	files := &mockFiles{}
	return NewRegistry(docs, files, nil), files
}

func TestAddGeneratesIDsAndKeepsOwnedFields(t *testing.T) {
	registry, _ := newRegistryFixture(t)
	ctx := context.Background()

	n, points, err := registry.Add(ctx, []*models.PointOfInterest{
		{Value: 1500, Name: "goal", Description: "first goal"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, points, 1)
	assert.NotEmpty(t, points[0].ID)
	assert.Equal(t, 1500.0, points[0].Value)
	assert.Equal(t, "goal", points[0].Name)
}

func TestGetAllOrdersByValueAscending(t *testing.T) {
	registry, _ := newRegistryFixture(t)
	ctx := context.Background()

	// Storage order is deliberately shuffled.
	_, _, err := registry.Add(ctx, []*models.PointOfInterest{
		{Value: 3000, Name: "late"},
		{Value: 1000, Name: "early"},
		{Value: 2000, Name: "middle"},
	})
	require.NoError(t, err)

	points, err := registry.GetAll(ctx, docstore.All(), nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []float64{1000, 2000, 3000}, []float64{points[0].Value, points[1].Value, points[2].Value})
	assert.Equal(t, "early", points[0].Name)
}

func TestValuesSkipsDanglingReferences(t *testing.T) {
	registry, _ := newRegistryFixture(t)
	ctx := context.Background()

	_, points, err := registry.Add(ctx, []*models.PointOfInterest{{Value: 0.25}})
	require.NoError(t, err)

	values, err := registry.Values(ctx, []string{points[0].ID, "gone"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25}, values)
}

func TestUpdateOneReplacingAttachmentRemovesOldFile(t *testing.T) {
	registry, files := newRegistryFixture(t)
	ctx := context.Background()

	_, points, err := registry.Add(ctx, []*models.PointOfInterest{
		{Value: 100, File: &models.PointFile{FileName: "old.png", Path: "media/m1/direct/old.png"}},
	})
	require.NoError(t, err)

	newFile := &models.PointFile{FileName: "new.png", MimeType: "image/png", Path: "media/m1/direct/new.png"}
	updated, err := registry.UpdateOne(ctx, docstore.Equal("id", points[0].ID), &models.PointUpdate{File: newFile})
	require.NoError(t, err)
	require.NotNil(t, updated.File)
	assert.Equal(t, "new.png", updated.File.FileName)
	assert.Equal(t, []string{"media/m1/direct/old.png"}, files.removed)
}

func TestUpdateOneClearFileDropsAttachment(t *testing.T) {
	registry, files := newRegistryFixture(t)
	ctx := context.Background()

	_, points, err := registry.Add(ctx, []*models.PointOfInterest{
		{Value: 100, File: &models.PointFile{FileName: "doc.pdf", Path: "media/m1/uploads/doc.pdf"}},
	})
	require.NoError(t, err)

	updated, err := registry.UpdateOne(ctx, docstore.Equal("id", points[0].ID), &models.PointUpdate{ClearFile: true})
	require.NoError(t, err)
	assert.Nil(t, updated.File)
	assert.Equal(t, []string{"media/m1/uploads/doc.pdf"}, files.removed)
}

func TestUpdateOneFileRemovalFailureDoesNotFailMutation(t *testing.T) {
	registry, files := newRegistryFixture(t)
	ctx := context.Background()

	_, points, err := registry.Add(ctx, []*models.PointOfInterest{
		{Value: 100, File: &models.PointFile{Path: "media/m1/uploads/doc.pdf"}},
	})
	require.NoError(t, err)

	files.fail = errors.New("fs offline")
	updated, err := registry.UpdateOne(ctx, docstore.Equal("id", points[0].ID), &models.PointUpdate{ClearFile: true})
	require.NoError(t, err)
	assert.Nil(t, updated.File)
}

func TestUpdateOneAppliesZeroValue(t *testing.T) {
	registry, _ := newRegistryFixture(t)
	ctx := context.Background()

	_, points, err := registry.Add(ctx, []*models.PointOfInterest{{Value: 500}})
	require.NoError(t, err)

	zero := 0.0
	updated, err := registry.UpdateOne(ctx, docstore.Equal("id", points[0].ID), &models.PointUpdate{Value: &zero})
	require.NoError(t, err)
	assert.Zero(t, updated.Value)
}

func TestUpdateOneNoMatchIsNotFound(t *testing.T) {
	registry, _ := newRegistryFixture(t)

	name := "x"
	_, err := registry.UpdateOne(context.Background(), docstore.Equal("id", "nope"), &models.PointUpdate{Name: &name})
	assert.ErrorIs(t, err, catalogerrors.ErrPointNotFound)
}

func TestRemoveDeletesAttachments(t *testing.T) {
	registry, files := newRegistryFixture(t)
	ctx := context.Background()

	_, points, err := registry.Add(ctx, []*models.PointOfInterest{
		{Value: 100, File: &models.PointFile{Path: "media/m1/direct/a.png"}},
		{Value: 200},
	})
	require.NoError(t, err)

	removed, err := registry.Remove(ctx, docstore.In("id", points[0].ID, points[1].ID))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	assert.Equal(t, []string{"media/m1/direct/a.png"}, files.removed)
}

func TestAttachmentPathByMimeType(t *testing.T) {
	assert.Equal(t, "media/m1/direct/thumb.png", AttachmentPath("m1", "image/png", "thumb.png"))
	assert.Equal(t, "media/m1/direct/photo.jpg", AttachmentPath("m1", "image/jpeg", "photo.jpg"))
	assert.Equal(t, "media/m1/uploads/notes.pdf", AttachmentPath("m1", "application/pdf", "notes.pdf"))
	assert.Equal(t, "media/m1/uploads/track.vtt", AttachmentPath("m1", "", "track.vtt"))
}

func TestStampAttachment(t *testing.T) {
	f := &models.PointFile{OriginalName: "Thumb.PNG", MimeType: "image/png", FileName: "abc123.png"}
	StampAttachment("m1", f)
	assert.Equal(t, "media/m1/direct/abc123.png", f.Path)
	assert.Equal(t, f.Path, f.URL)
}
