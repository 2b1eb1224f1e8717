// Package mediamodule exposes the media catalog: record CRUD with
// serialized writes, lazy platform synchronization, point-of-interest
// hydration and delivery URL resolution on reads.
package mediamodule

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/models"
	"github.com/mantonx/mediacat/internal/modules/mediamodule/core"
	"github.com/mantonx/mediacat/internal/modules/deliverymodule"
	"github.com/mantonx/mediacat/internal/modules/platformmodule"
	"github.com/mantonx/mediacat/internal/modules/poimodule"
)

// MediaView is a fully assembled record: point-of-interest ids hydrated to
// their bodies and every asset path resolved to a deliverable URL. Views are
// produced at the read boundary and never persisted.
type MediaView struct {
	*models.Media
	Tags     []*models.PointOfInterest `json:"tags,omitempty"`
	Chapters []*models.PointOfInterest `json:"chapters,omitempty"`
}

// Service is the catalog facade the API layer talks to.
type Service struct {
	store     *core.Store
	points    *poimodule.Registry
	converter *poimodule.Converter
	sync      *platformmodule.Synchronizer
	resolver  *deliverymodule.Resolver
	log       hclog.Logger
}

// NewService wires the catalog service.
func NewService(store *core.Store, points *poimodule.Registry, converter *poimodule.Converter, sync *platformmodule.Synchronizer, resolver *deliverymodule.Resolver) *Service {
	return &Service{
		store:     store,
		points:    points,
		converter: converter,
		sync:      sync,
		resolver:  resolver,
		log:       logger.Named("catalog"),
	}
}

// GetOne runs the full read path for a single record: fetch, platform
// refresh, unit conversion, hydration, URL resolution.
func (s *Service) GetOne(ctx context.Context, f docstore.Filter) (*MediaView, error) {
	record, err := s.store.GetOne(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeNotFound, "catalog.get_one", catalogerrors.ErrMediaNotFound)
	}

	if err := s.sync.Refresh(ctx, record); err != nil {
		return nil, err
	}

	if record.NeedPointsOfInterestUnitConversion {
		if duration := recordDuration(record); duration > 0 {
			if err := s.converter.ConvertUnits(ctx, record, duration); err != nil {
				return nil, err
			}
		} else {
			s.log.Debug("conversion pending, record has no duration", "media", record.ID)
		}
	}

	view, err := s.hydrate(ctx, record)
	if err != nil {
		return nil, err
	}

	s.resolver.Resolve(record)
	s.resolver.ResolvePoints(view.Tags...)
	s.resolver.ResolvePoints(view.Chapters...)
	return view, nil
}

// GetByID is GetOne addressed by record id.
func (s *Service) GetByID(ctx context.Context, id string) (*MediaView, error) {
	return s.GetOne(ctx, docstore.Equal("id", id))
}

// Get lists records with delivery URLs resolved. List reads skip platform
// refresh, conversion and hydration.
func (s *Service) Get(ctx context.Context, f docstore.Filter, sortSpec docstore.Sort, limit, page int) ([]*models.Media, int64, error) {
	records, total, err := s.store.Get(ctx, f, sortSpec, limit, page)
	if err != nil {
		return nil, 0, err
	}
	s.resolver.Resolve(records...)
	return records, total, nil
}

// Search lists records matching a free-text term over title and stripped
// description.
func (s *Service) Search(ctx context.Context, term string, limit, page int) ([]*models.Media, int64, error) {
	return s.Get(ctx, docstore.Search(term, "title", "descriptionText"), docstore.Sort{Field: "date", Desc: true}, limit, page)
}

// Add inserts records.
func (s *Service) Add(ctx context.Context, records []*models.Media) (int, []*models.Media, error) {
	return s.store.Add(ctx, records)
}

// UpdateOne applies a sparse changeset to one record.
func (s *Service) UpdateOne(ctx context.Context, f docstore.Filter, changes *models.MediaUpdate) (*models.Media, error) {
	return s.store.UpdateOne(ctx, f, changes)
}

// Remove deletes matching records with full cleanup.
func (s *Service) Remove(ctx context.Context, f docstore.Filter, keepRemote bool) (int64, error) {
	return s.store.Remove(ctx, f, keepRemote)
}

// RemoveByIDs deletes an explicit id set with full cleanup.
func (s *Service) RemoveByIDs(ctx context.Context, ids []string, keepRemote bool) (int64, error) {
	return s.store.RemoveByIDs(ctx, ids, keepRemote)
}

// SetPublished runs the guarded publish or unpublish transition.
func (s *Service) SetPublished(ctx context.Context, id string, publish bool) (bool, error) {
	return s.store.UpdateState(ctx, id, publish)
}

// SetPublishedMany runs the guarded transition over an id set.
func (s *Service) SetPublishedMany(ctx context.Context, ids []string, publish bool) (int, error) {
	return s.store.UpdateStateMany(ctx, ids, publish)
}

// IncrementViews bumps the play counter through the serialized write path.
func (s *Service) IncrementViews(ctx context.Context, id string) (int64, error) {
	return s.store.IncrementViews(ctx, id)
}

// Points exposes the point registry for the API layer.
func (s *Service) Points() *poimodule.Registry { return s.points }

func (s *Service) hydrate(ctx context.Context, record *models.Media) (*MediaView, error) {
	tags, err := s.points.GetByIDs(ctx, record.Tags)
	if err != nil {
		return nil, err
	}
	chapters, err := s.points.GetByIDs(ctx, record.Chapters)
	if err != nil {
		return nil, err
	}
	return &MediaView{Media: record, Tags: tags, Chapters: chapters}, nil
}

// recordDuration reads the media duration in milliseconds off the record
// properties.
func recordDuration(record *models.Media) float64 {
	switch v := record.Properties["duration"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
