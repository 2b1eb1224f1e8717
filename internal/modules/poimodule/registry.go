// Package poimodule manages points of interest: the timed annotations (tags
// and chapters) referenced by media records, their file attachments and the
// legacy percentage-to-millisecond unit conversion.
package poimodule

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/events"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/models"
)

// FileRemover deletes a stored attachment by its relative path.
type FileRemover interface {
	Remove(relative string) error
}

// Registry owns point-of-interest CRUD. Records reference points by id;
// hydration and ordering happen here.
type Registry struct {
	docs  *docstore.Collection
	files FileRemover
	bus   events.EventBus
	log   hclog.Logger
}

// NewRegistry wires a point-of-interest registry.
func NewRegistry(docs *docstore.Collection, files FileRemover, bus events.EventBus) *Registry {
	return &Registry{
		docs:  docs,
		files: files,
		bus:   bus,
		log:   logger.Named("poi-registry"),
	}
}

// Add inserts points, generating ids and retaining only the fields the
// registry owns. The returned points carry the generated ids.
func (r *Registry) Add(ctx context.Context, points []*models.PointOfInterest) (int, []*models.PointOfInterest, error) {
	stored := make([]*models.PointOfInterest, 0, len(points))
	docs := make([]interface{}, 0, len(points))
	for _, p := range points {
		clean := &models.PointOfInterest{
			ID:          uuid.NewString(),
			Value:       p.Value,
			Name:        p.Name,
			Description: p.Description,
			File:        p.File,
		}
		stored = append(stored, clean)
		docs = append(docs, clean)
	}

	if err := r.docs.Add(ctx, docs...); err != nil {
		return 0, nil, catalogerrors.New(catalogerrors.ErrorTypeStorage, "poi.add", err)
	}

	for _, p := range stored {
		r.publish(events.EventPointCreated, p.ID)
	}
	return len(stored), stored, nil
}

// GetOne fetches a single point. Returns nil with a nil error on no match.
func (r *Registry) GetOne(ctx context.Context, f docstore.Filter, projection []string) (*models.PointOfInterest, error) {
	var p models.PointOfInterest
	found, err := r.docs.GetOne(ctx, f, projection, &p)
	if err != nil {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeStorage, "poi.get_one", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

// GetAll hydrates matching points in display order: ascending by value,
// stable, regardless of storage order.
func (r *Registry) GetAll(ctx context.Context, f docstore.Filter, projection []string) ([]*models.PointOfInterest, error) {
	var points []*models.PointOfInterest
	if err := r.docs.GetAll(ctx, f, projection, &points); err != nil {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeStorage, "poi.get_all", err)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value < points[j].Value
	})
	return points, nil
}

// GetByIDs hydrates an explicit id set in display order.
func (r *Registry) GetByIDs(ctx context.Context, ids []string) ([]*models.PointOfInterest, error) {
	if len(ids) == 0 {
		return []*models.PointOfInterest{}, nil
	}
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return r.GetAll(ctx, docstore.In("id", values...), nil)
}

// Values resolves point ids to their stored time values. Ids with no backing
// point are skipped.
func (r *Registry) Values(ctx context.Context, ids []string) ([]float64, error) {
	points, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Value)
	}
	return out, nil
}

// UpdateOne applies a sparse changeset to the first matching point. Replacing
// or clearing the attachment removes the previous file; a failed removal only
// logs a warning.
func (r *Registry) UpdateOne(ctx context.Context, f docstore.Filter, changes *models.PointUpdate) (*models.PointOfInterest, error) {
	current, err := r.GetOne(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeNotFound, "poi.update_one", catalogerrors.ErrPointNotFound)
	}

	ok, err := r.docs.UpdateOne(ctx, docstore.Equal("id", current.ID), func(doc map[string]interface{}) (map[string]interface{}, error) {
		applyPointUpdate(doc, changes)
		return doc, nil
	})
	if err != nil {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeStorage, "poi.update_one", err).WithPoint(current.ID)
	}
	if !ok {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeNotFound, "poi.update_one", catalogerrors.ErrPointNotFound).WithPoint(current.ID)
	}

	if (changes.File != nil || changes.ClearFile) && current.File != nil && current.File.Path != "" {
		r.removeAttachment(current.File.Path)
	}
	return r.GetOne(ctx, docstore.Equal("id", current.ID), nil)
}

// Remove deletes matching points along with their attachments. Attachment
// removal failures only log a warning.
func (r *Registry) Remove(ctx context.Context, f docstore.Filter) (int64, error) {
	points, err := r.GetAll(ctx, f, nil)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, nil
	}

	removed, err := r.docs.Remove(ctx, f)
	if err != nil {
		return removed, catalogerrors.New(catalogerrors.ErrorTypeStorage, "poi.remove", err)
	}

	for _, p := range points {
		if p.File != nil && p.File.Path != "" {
			r.removeAttachment(p.File.Path)
		}
		r.publish(events.EventPointRemoved, p.ID)
	}
	return removed, nil
}

// CreateIndexes delegates index creation to the document store.
func (r *Registry) CreateIndexes(ctx context.Context, fields ...string) error {
	return r.docs.CreateIndexes(ctx, fields...)
}

func (r *Registry) removeAttachment(relative string) {
	if err := r.files.Remove(relative); err != nil {
		r.log.Warn("failed to remove point attachment", "path", relative, "error", err)
	}
}

func (r *Registry) publish(t events.EventType, pointID string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{Type: t, Source: "poi-registry", Data: map[string]interface{}{"pointId": pointID}})
}

func applyPointUpdate(doc map[string]interface{}, changes *models.PointUpdate) {
	if changes.Value != nil {
		doc["value"] = *changes.Value
	}
	if changes.Name != nil {
		doc["name"] = *changes.Name
	}
	if changes.Description != nil {
		doc["description"] = *changes.Description
	}
	if changes.ClearFile {
		delete(doc, "file")
	} else if changes.File != nil {
		doc["file"] = map[string]interface{}{
			"originalName": changes.File.OriginalName,
			"mimeType":     changes.File.MimeType,
			"fileName":     changes.File.FileName,
			"size":         changes.File.Size,
			"path":         changes.File.Path,
			"url":          changes.File.URL,
		}
	}
}
