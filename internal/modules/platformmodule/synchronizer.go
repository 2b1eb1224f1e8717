package platformmodule

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediacat/internal/docstore"
	"github.com/mantonx/mediacat/internal/events"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/models"
)

// MediaPersister is the narrow media-store capability the synchronizer
// needs: persisting the fetched delivery state through the serialized write
// path.
type MediaPersister interface {
	UpdateOne(ctx context.Context, f docstore.Filter, changes *models.MediaUpdate) (*models.Media, error)
}

// Synchronizer lazily pulls platform delivery info into media records. There
// is no background job: records are refreshed when they are read.
type Synchronizer struct {
	providers *Registry
	media     MediaPersister
	bus       events.EventBus
	log       hclog.Logger
}

// NewSynchronizer wires a synchronizer.
func NewSynchronizer(providers *Registry, media MediaPersister, bus events.EventBus) *Synchronizer {
	return &Synchronizer{
		providers: providers,
		media:     media,
		bus:       bus,
		log:       logger.Named("platform-sync"),
	}
}

// Refresh fetches platform info for a record that is not yet resolved and
// persists available+sources, mutating the in-memory record as well. Records
// without a platform binding, or already resolved, are returned untouched.
// A fetch failure propagates to the caller unchanged and leaves no marker on
// the record: the next read simply retries.
func (s *Synchronizer) Refresh(ctx context.Context, record *models.Media) error {
	if record.Type == "" || len(record.MediaID) == 0 {
		return nil
	}
	provider, ok := s.providers.Get(record.Type)
	if !ok {
		s.log.Debug("no provider for platform type", "type", record.Type, "media", record.ID)
		return nil
	}
	if resolved(record, provider) {
		return nil
	}

	info, err := provider.GetMediaInfo(ctx, record.MediaID, expectedHeight(record))
	if err != nil {
		return err
	}

	sources := info.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	available := info.Available
	if _, err := s.media.UpdateOne(ctx, docstore.Equal("id", record.ID), &models.MediaUpdate{
		Available: &available,
		Sources:   &sources,
	}); err != nil {
		return err
	}

	record.Available = available
	record.Sources = sources
	s.publish(record.ID)
	return nil
}

// resolved reports whether the record already carries all the delivery info
// its platform can provide.
func resolved(record *models.Media, provider Provider) bool {
	if provider.SingleFetch() {
		return len(record.Sources) > 0
	}
	return len(record.Sources) == len(record.MediaID)
}

// expectedHeight reads the preferred rendition height off the record
// properties. Missing or malformed means no preference.
func expectedHeight(record *models.Media) int {
	switch v := record.Properties["expectedHeight"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (s *Synchronizer) publish(mediaID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: events.EventMediaSynced, Source: "platform-sync", MediaID: mediaID})
}
