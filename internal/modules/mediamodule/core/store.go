// Package core implements the media record store: serialized mutation,
// derived-flag computation and removal cleanup.
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/events"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/models"
)

// PointValues resolves point-of-interest ids to their stored time values.
// Used only to derive the unit-conversion flag on reads.
type PointValues interface {
	Values(ctx context.Context, ids []string) ([]float64, error)
}

// AssetCleaner removes the physical artifacts owned by a media record.
type AssetCleaner interface {
	PublicDir(mediaID string) string
	RemoveDir(relative string) error
	RemoveTempDir(mediaID string) error
}

// RemoteRemover is the narrow provider capability the store needs: removing
// platform-side media.
type RemoteRemover interface {
	Remove(ctx context.Context, mediaIDs []string) error
}

// ProviderResolver looks up the remote-removal capability for a platform
// type. The second return is false when no provider is registered.
type ProviderResolver func(platformType string) (RemoteRemover, bool)

// Store owns media record CRUD. All mutations for one record are serialized
// through the MutationQueue; reads are not.
type Store struct {
	docs      *docstore.Collection
	queue     *MutationQueue
	points    PointValues
	files     AssetCleaner
	providers ProviderResolver
	bus       events.EventBus
	log       hclog.Logger
}

// NewStore wires a media store.
func NewStore(docs *docstore.Collection, queue *MutationQueue, points PointValues, files AssetCleaner, providers ProviderResolver, bus events.EventBus) *Store {
	return &Store{
		docs:      docs,
		queue:     queue,
		points:    points,
		files:     files,
		providers: providers,
		bus:       bus,
		log:       logger.Named("media-store"),
	}
}

// Queue exposes the mutation queue for collaborators that need to serialize
// their own writes against the same record (unit conversion).
func (s *Store) Queue() *MutationQueue {
	return s.queue
}

// Add inserts media records, generating ids where absent and default-filling
// the persisted shape. The returned records carry the generated ids.
func (s *Store) Add(ctx context.Context, records []*models.Media) (int, []*models.Media, error) {
	docs := make([]interface{}, 0, len(records))
	for _, m := range records {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Cut == nil {
			m.Cut = []models.PointOfInterest{}
		}
		if m.Sources == nil {
			m.Sources = []models.Source{}
		}
		if m.Properties == nil {
			m.Properties = map[string]interface{}{}
		}
		if m.Metadata.User == "" {
			m.Metadata.User = models.AnonymousUser
		}
		if m.Metadata.Groups == nil {
			m.Metadata.Groups = []string{}
		}
		if m.Description != "" && m.DescriptionText == "" {
			m.DescriptionText = stripHTML(m.Description)
		}
		docs = append(docs, m)
	}

	if err := s.docs.Add(ctx, docs...); err != nil {
		return 0, nil, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.add", err)
	}

	for _, m := range records {
		s.publish(events.EventMediaCreated, m.ID, nil)
	}
	return len(records), records, nil
}

// GetOne fetches a single record and attaches the derived conversion flag.
// Returns nil with a nil error when nothing matches.
func (s *Store) GetOne(ctx context.Context, f docstore.Filter, projection []string) (*models.Media, error) {
	var m models.Media
	found, err := s.docs.GetOne(ctx, f, projection, &m)
	if err != nil {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.get_one", err)
	}
	if !found {
		return nil, nil
	}

	flag, err := s.conversionNeeded(ctx, &m)
	if err != nil {
		return nil, err
	}
	m.NeedPointsOfInterestUnitConversion = flag
	return &m, nil
}

// Get fetches a sorted page of records. The derived flag is not computed on
// list reads.
func (s *Store) Get(ctx context.Context, f docstore.Filter, sortSpec docstore.Sort, limit, page int) ([]*models.Media, int64, error) {
	var records []*models.Media
	total, err := s.docs.Get(ctx, f, sortSpec, limit, page, &records)
	if err != nil {
		return nil, 0, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.get", err)
	}
	return records, total, nil
}

// conversionNeeded derives the unit-conversion flag: the first non-empty of
// chapters, tags, cut decides, in that priority order. The priority is a
// legacy-compatibility heuristic and must not be collapsed into a joint
// inspection of all three lists.
func (s *Store) conversionNeeded(ctx context.Context, m *models.Media) (bool, error) {
	var values []float64
	switch {
	case len(m.Chapters) > 0:
		v, err := s.points.Values(ctx, m.Chapters)
		if err != nil {
			return false, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.conversion_flag", err).WithMedia(m.ID)
		}
		values = v
	case len(m.Tags) > 0:
		v, err := s.points.Values(ctx, m.Tags)
		if err != nil {
			return false, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.conversion_flag", err).WithMedia(m.ID)
		}
		values = v
	case len(m.Cut) > 0:
		for _, p := range m.Cut {
			values = append(values, p.Value)
		}
	default:
		return false, nil
	}

	if len(values) == 0 {
		return false, nil
	}
	sort.Float64s(values)
	max := values[len(values)-1]
	// Exact zero is excluded from the percentage heuristic.
	return max <= 1 && max != 0, nil
}

// UpdateOne applies a sparse changeset to the first record matching the
// filter, serialized through the mutation queue on the resolved id.
func (s *Store) UpdateOne(ctx context.Context, f docstore.Filter, changes *models.MediaUpdate) (*models.Media, error) {
	var target models.Media
	found, err := s.docs.GetOne(ctx, f, []string{"id"}, &target)
	if err != nil {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.update_one", err)
	}
	if !found {
		return nil, catalogerrors.New(catalogerrors.ErrorTypeNotFound, "media.update_one", catalogerrors.ErrMediaNotFound)
	}

	var updated models.Media
	err = s.queue.Run(target.ID, func() error {
		ok, err := s.docs.UpdateOne(ctx, docstore.Equal("id", target.ID), func(doc map[string]interface{}) (map[string]interface{}, error) {
			applyMediaUpdate(doc, changes)
			return doc, nil
		})
		if err != nil {
			return catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.update_one", err).WithMedia(target.ID)
		}
		if !ok {
			return catalogerrors.New(catalogerrors.ErrorTypeNotFound, "media.update_one", catalogerrors.ErrMediaNotFound).WithMedia(target.ID)
		}
		m, err := s.GetOne(ctx, docstore.Equal("id", target.ID), nil)
		if err != nil {
			return err
		}
		if m != nil {
			updated = *m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.EventMediaUpdated, target.ID, nil)
	return &updated, nil
}

// IncrementViews bumps the play counter inside the serialized write, so
// concurrent plays never lose a count.
func (s *Store) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := s.queue.Run(id, func() error {
		ok, err := s.docs.UpdateOne(ctx, docstore.Equal("id", id), func(doc map[string]interface{}) (map[string]interface{}, error) {
			current, _ := doc["views"].(float64)
			views = int64(current) + 1
			doc["views"] = views
			return doc, nil
		})
		if err != nil {
			return catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.increment_views", err).WithMedia(id)
		}
		if !ok {
			return catalogerrors.New(catalogerrors.ErrorTypeNotFound, "media.increment_views", catalogerrors.ErrMediaNotFound).WithMedia(id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.publish(events.EventMediaUpdated, id, map[string]interface{}{"views": views})
	return views, nil
}

// UpdateState performs the guarded publish/unpublish transition. A guard
// miss (current state is not the expected one) affects zero rows and is not
// an error.
func (s *Store) UpdateState(ctx context.Context, id string, publish bool) (bool, error) {
	want, next := models.StateReady, models.StatePublished
	if !publish {
		want, next = models.StatePublished, models.StateReady
	}

	var transitioned bool
	err := s.queue.Run(id, func() error {
		ok, err := s.docs.UpdateOne(ctx, docstore.Equal("id", id), func(doc map[string]interface{}) (map[string]interface{}, error) {
			if state, _ := doc["state"].(string); state != want {
				return nil, nil
			}
			doc["state"] = next
			return doc, nil
		})
		if err != nil {
			return catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.update_state", err).WithMedia(id)
		}
		transitioned = ok
		return nil
	})
	if err != nil {
		return false, err
	}

	if transitioned {
		s.publish(events.EventMediaStateChanged, id, map[string]interface{}{"state": next})
	}
	return transitioned, nil
}

// UpdateStateMany fans the guarded transition out over many ids. Individual
// failures are aggregated; a transition count below the requested count is
// itself an error even when every call "succeeded".
func (s *Store) UpdateStateMany(ctx context.Context, ids []string, publish bool) (int, error) {
	results := make([]error, len(ids))
	flags := make([]bool, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			ok, err := s.UpdateState(ctx, id, publish)
			results[i] = err
			flags[i] = ok
			return nil
		})
	}
	g.Wait()

	count := 0
	var errs []error
	for i := range ids {
		if results[i] != nil {
			errs = append(errs, results[i])
			continue
		}
		if flags[i] {
			count++
		}
	}
	if len(errs) > 0 {
		return count, errors.Join(errs...)
	}
	if count != len(ids) {
		return count, catalogerrors.Partial("media.update_state", len(ids), count)
	}
	return count, nil
}

// Remove deletes matching records along with their physical artifacts and,
// unless keepRemote is set, the platform-side media. Cleanup actions run
// concurrently per record; any failure fails the call even though the
// metadata row may already be gone. That inconsistency window is accepted,
// not hidden: there is no transaction spanning storage, filesystem and
// platform calls.
func (s *Store) Remove(ctx context.Context, f docstore.Filter, keepRemote bool) (int64, error) {
	var records []*models.Media
	if err := s.docs.GetAll(ctx, f, nil, &records); err != nil {
		return 0, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.remove", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	var removed int64
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range records {
		n, err := s.docs.Remove(ctx, docstore.Equal("id", m.ID))
		if err != nil {
			return removed, catalogerrors.New(catalogerrors.ErrorTypeStorage, "media.remove", err).WithMedia(m.ID)
		}
		removed += n

		g.Go(func() error {
			if err := s.files.RemoveDir(s.files.PublicDir(m.ID)); err != nil {
				return catalogerrors.New(catalogerrors.ErrorTypeInternal, "media.remove.assets", err).WithMedia(m.ID)
			}
			return nil
		})
		g.Go(func() error {
			if err := s.files.RemoveTempDir(m.ID); err != nil {
				return catalogerrors.New(catalogerrors.ErrorTypeInternal, "media.remove.temp", err).WithMedia(m.ID)
			}
			return nil
		})
		if !keepRemote && m.Type != "" && len(m.MediaID) > 0 {
			g.Go(func() error {
				provider, ok := s.providers(m.Type)
				if !ok {
					return catalogerrors.New(catalogerrors.ErrorTypeUpstream, "media.remove.platform",
						fmt.Errorf("%w: %s", catalogerrors.ErrProviderNotFound, m.Type)).WithMedia(m.ID)
				}
				if err := provider.Remove(gctx, m.MediaID); err != nil {
					return catalogerrors.Upstream("media.remove.platform", err).WithMedia(m.ID)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return removed, err
	}

	for _, m := range records {
		s.publish(events.EventMediaRemoved, m.ID, nil)
	}
	return removed, nil
}

// RemoveByIDs removes an explicit id set and treats a count mismatch as a
// failure even when every individual call succeeded.
func (s *Store) RemoveByIDs(ctx context.Context, ids []string, keepRemote bool) (int64, error) {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	removed, err := s.Remove(ctx, docstore.In("id", values...), keepRemote)
	if err != nil {
		return removed, err
	}
	if removed != int64(len(ids)) {
		return removed, catalogerrors.Partial("media.remove", len(ids), int(removed))
	}
	return removed, nil
}

// CreateIndexes delegates index creation to the document store.
func (s *Store) CreateIndexes(ctx context.Context, fields ...string) error {
	return s.docs.CreateIndexes(ctx, fields...)
}

// DropIndex delegates index removal to the document store.
func (s *Store) DropIndex(ctx context.Context, field string) error {
	return s.docs.DropIndex(ctx, field)
}

func (s *Store) publish(t events.EventType, mediaID string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: t, Source: "media-store", MediaID: mediaID, Data: data})
}
