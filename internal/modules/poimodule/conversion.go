package poimodule

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/mantonx/mediacat/internal/docstore"
	catalogerrors "github.com/mantonx/mediacat/internal/errors"
	"github.com/mantonx/mediacat/internal/events"
	"github.com/mantonx/mediacat/internal/models"
)

// MediaWriter is the narrow media-store capability the converter needs:
// persisting the rewritten cut list through the serialized write path.
type MediaWriter interface {
	UpdateOne(ctx context.Context, f docstore.Filter, changes *models.MediaUpdate) (*models.Media, error)
}

// Converter rewrites legacy percentage point values into absolute
// millisecond offsets once the media duration is known.
type Converter struct {
	registry *Registry
	media    MediaWriter
}

// NewConverter wires a unit converter.
func NewConverter(registry *Registry, media MediaWriter) *Converter {
	return &Converter{registry: registry, media: media}
}

// ConvertUnits multiplies every point value referenced by the record, and
// both kinds of cut bounds, by the duration and floors the result. A record
// whose derived conversion flag is false is left untouched. The operation is
// not tracked anywhere; it is only idempotent because the flag derives false
// once the values are absolute.
func (c *Converter) ConvertUnits(ctx context.Context, m *models.Media, durationMs float64) error {
	if !m.NeedPointsOfInterestUnitConversion {
		return nil
	}
	if durationMs <= 0 {
		return catalogerrors.New(catalogerrors.ErrorTypeValidation, "poi.convert_units",
			catalogerrors.ErrInvalidInput).WithMedia(m.ID)
	}

	ids := make([]string, 0, len(m.Tags)+len(m.Chapters))
	ids = append(ids, m.Tags...)
	ids = append(ids, m.Chapters...)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			return c.registry.scaleValue(gctx, id, durationMs)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(m.Cut) > 0 {
		converted := make([]models.PointOfInterest, len(m.Cut))
		for i, p := range m.Cut {
			p.Value = math.Floor(p.Value * durationMs)
			converted[i] = p
		}
		if _, err := c.media.UpdateOne(ctx, docstore.Equal("id", m.ID), &models.MediaUpdate{Cut: &converted}); err != nil {
			return err
		}
		m.Cut = converted
	}

	m.NeedPointsOfInterestUnitConversion = false
	c.registry.publishConverted(m.ID)
	return nil
}

// scaleValue rewrites one point's value in place. A dangling reference is
// skipped, not an error.
func (r *Registry) scaleValue(ctx context.Context, id string, factor float64) error {
	_, err := r.docs.UpdateOne(ctx, docstore.Equal("id", id), func(doc map[string]interface{}) (map[string]interface{}, error) {
		v, ok := doc["value"].(float64)
		if !ok {
			return nil, nil
		}
		doc["value"] = math.Floor(v * factor)
		return doc, nil
	})
	if err != nil {
		return catalogerrors.New(catalogerrors.ErrorTypeStorage, "poi.convert_units", err).WithPoint(id)
	}
	return nil
}

func (r *Registry) publishConverted(mediaID string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{Type: events.EventPointUnitsConverted, Source: "poi-registry", MediaID: mediaID})
}
