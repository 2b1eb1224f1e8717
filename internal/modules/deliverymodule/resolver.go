// Package deliverymodule rewrites stored relative asset paths into
// deliverable URLs at the read boundary. Stored documents always keep
// relative paths; resolution never persists.
package deliverymodule

import (
	"strings"
	"sync"

	"github.com/mantonx/mediacat/internal/models"
)

// Resolver prefixes stored paths with the configured delivery bases. The
// bases are swappable at runtime for configuration hot reload.
type Resolver struct {
	mu         sync.RWMutex
	cdnBase    string
	streamBase string
}

// NewResolver creates a resolver for the given CDN and streaming-server
// bases.
func NewResolver(cdnBase, streamBase string) *Resolver {
	return &Resolver{cdnBase: cdnBase, streamBase: streamBase}
}

// SetBases swaps the delivery bases. In-flight resolutions keep the bases
// they started with.
func (r *Resolver) SetBases(cdnBase, streamBase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cdnBase = cdnBase
	r.streamBase = streamBase
}

// Resolve rewrites every asset reference on the records in place. Only the
// platform type's own source shape is rewritten: flat file links for local
// records, adaptive manifest links for wowza records, nothing for anything
// else.
func (r *Resolver) Resolve(records ...*models.Media) {
	r.mu.RLock()
	cdn, stream := r.cdnBase, r.streamBase
	r.mu.RUnlock()

	for _, m := range records {
		if m == nil {
			continue
		}
		m.Thumbnail = cdnURL(cdn, m.Thumbnail)
		for i := range m.Timecodes {
			img := &m.Timecodes[i].Image
			img.Small.URL = cdnURL(cdn, img.Small.URL)
			img.Large = cdnURL(cdn, img.Large)
		}
		for i := range m.Cut {
			resolvePointFile(cdn, m.Cut[i].File)
		}

		switch m.Type {
		case "local":
			for i := range m.Sources {
				for j := range m.Sources[i].Files {
					m.Sources[i].Files[j].Link = cdnURL(cdn, m.Sources[i].Files[j].Link)
				}
			}
		case "wowza":
			for i := range m.Sources {
				for j := range m.Sources[i].Adaptive {
					link := &m.Sources[i].Adaptive[j].Link
					if *link != "" {
						// Raw concatenation: the stored link and the
						// configured base own their own slashes.
						*link = stream + *link
					}
				}
			}
		}
	}
}

// ResolvePoints rewrites attachment URLs on hydrated points in place.
func (r *Resolver) ResolvePoints(points ...*models.PointOfInterest) {
	r.mu.RLock()
	cdn := r.cdnBase
	r.mu.RUnlock()

	for _, p := range points {
		if p == nil {
			continue
		}
		resolvePointFile(cdn, p.File)
	}
}

func resolvePointFile(cdn string, f *models.PointFile) {
	if f != nil {
		f.URL = cdnURL(cdn, f.URL)
	}
}

// cdnURL strips one leading slash from the stored path and prefixes the CDN
// base. Empty paths stay empty.
func cdnURL(base, path string) string {
	if path == "" {
		return ""
	}
	return base + strings.TrimPrefix(path, "/")
}
