// Package modulemanager tracks catalog modules and drives their lifecycle:
// registration, migration, initialization, route registration and shutdown.
package modulemanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mantonx/mediacat/internal/logger"
)

// Module is the contract every catalog module implements.
type Module interface {
	ID() string
	Name() string
	Core() bool
	Migrate(db *gorm.DB) error
	Init() error
}

// RouteRegistrar is implemented by modules that expose HTTP routes.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// Shutdowner is implemented by modules that hold resources needing an
// orderly stop.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ModuleRegistry manages module registration and initialization.
type ModuleRegistry struct {
	mu          sync.RWMutex
	modules     []Module
	byID        map[string]Module
	initialized bool
}

// Registry is the global module registry.
var Registry = &ModuleRegistry{byID: make(map[string]Module)}

// Register adds a module to the global registry.
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry. Registration order is the
// initialization order.
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module registered after initialization", "module", m.ID())
	}
	if _, exists := r.byID[m.ID()]; exists {
		logger.Warn("module registered twice, keeping first", "module", m.ID())
		return
	}
	r.byID[m.ID()] = m
	r.modules = append(r.modules, m)
	logger.Info("module registered", "module", m.ID(), "name", m.Name())
}

// LoadAll migrates and initializes all registered modules in registration
// order.
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes all registered modules.
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module system already initialized")
		return nil
	}

	for _, m := range r.modules {
		if err := m.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", m.Name(), err)
		}
		if err := m.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", m.Name(), err)
		}
		logger.Info("module loaded", "module", m.ID())
	}

	r.initialized = true
	return nil
}

// RegisterRoutes mounts the routes of every module that exposes any.
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes mounts module routes in registration order.
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.modules {
		if registrar, ok := m.(RouteRegistrar); ok {
			registrar.RegisterRoutes(router)
		}
	}
}

// Shutdown stops modules in reverse registration order. Every module gets a
// chance to stop; the first error is returned.
func Shutdown(ctx context.Context) error {
	return Registry.Shutdown(ctx)
}

// Shutdown stops modules in reverse registration order.
func (r *ModuleRegistry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for i := len(r.modules) - 1; i >= 0; i-- {
		if s, ok := r.modules[i].(Shutdowner); ok {
			if err := s.Shutdown(ctx); err != nil {
				logger.Error("module shutdown failed", "module", r.modules[i].ID(), "error", err)
				if first == nil {
					first = err
				}
			}
		}
	}
	r.initialized = false
	r.modules = nil
	r.byID = make(map[string]Module)
	return first
}

// GetModule returns a registered module by id.
func GetModule(id string) (Module, bool) {
	Registry.mu.RLock()
	defer Registry.mu.RUnlock()
	m, ok := Registry.byID[id]
	return m, ok
}
