// Package platformmodule integrates the hosting platforms behind the
// catalog: resolving delivery info for platform media ids, pushing updates
// and removals upstream, and lazily synchronizing records at read time.
package platformmodule

import (
	"context"

	"github.com/mantonx/mediacat/internal/models"
)

// Info is the platform-side delivery state of a record.
type Info struct {
	Available bool
	Sources   []models.Source
}

// Provider integrates one hosting platform.
type Provider interface {
	// Type is the platform identifier stored on media records.
	Type() string

	// GetMediaInfo resolves delivery sources for the given platform media
	// ids. expectedHeight selects the preferred rendition where the platform
	// offers several; zero means no preference.
	GetMediaInfo(ctx context.Context, mediaIDs []string, expectedHeight int) (*Info, error)

	// Remove deletes the platform-side media.
	Remove(ctx context.Context, mediaIDs []string) error

	// Update pushes catalog changes to the platform. force overrides
	// platform-side edit protection where the platform supports it.
	Update(ctx context.Context, record *models.Media, changes *models.MediaUpdate, force bool) error

	// SingleFetch reports whether the platform catalog is immutable after
	// the first successful fetch: one resolved source means fully resolved,
	// regardless of how many media ids the record carries.
	SingleFetch() bool
}
