package platformmodule

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/modules/mediamodule/core"
)

// Registry maps platform types to their providers. Providers register once
// at startup; lookups are concurrent.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	log       hclog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		log:       logger.Named("platform-registry"),
	}
}

// Register adds a provider. Registering the same type twice replaces the
// earlier provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Type()]; exists {
		r.log.Warn("replacing platform provider", "type", p.Type())
	}
	r.providers[p.Type()] = p
	r.log.Info("platform provider registered", "type", p.Type())
}

// Get returns the provider for a platform type.
func (r *Registry) Get(platformType string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[platformType]
	return p, ok
}

// Types lists the registered platform types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, t)
	}
	return types
}

// RemoveResolver adapts the registry to the media store's removal lookup.
func (r *Registry) RemoveResolver() core.ProviderResolver {
	return func(platformType string) (core.RemoteRemover, bool) {
		p, ok := r.Get(platformType)
		if !ok {
			return nil, false
		}
		return p, true
	}
}
