package poimodule

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/modules/modulemanager"
)

const (
	// ModuleID is the unique identifier for the points-of-interest module.
	ModuleID = "catalog.points"

	// ModuleName is the display name for the points-of-interest module.
	ModuleName = "Points of Interest"
)

// Module wraps the point-of-interest registry for the module lifecycle.
type Module struct {
	registry *Registry
}

// NewModule wraps a prebuilt registry.
func NewModule(registry *Registry) *Module {
	return &Module{registry: registry}
}

// Register adds the module to the global registry.
func (m *Module) Register() {
	modulemanager.Register(m)
}

// ID returns the unique module identifier.
func (m *Module) ID() string { return ModuleID }

// Name returns the module display name.
func (m *Module) Name() string { return ModuleName }

// Core reports that the catalog cannot run without this module.
func (m *Module) Core() bool { return true }

// Migrate creates the point indexes. The backing collection is migrated when
// it is opened.
func (m *Module) Migrate(db *gorm.DB) error {
	return m.registry.CreateIndexes(context.Background(), "value")
}

// Init completes module startup.
func (m *Module) Init() error {
	logger.Info("points-of-interest module initialized")
	return nil
}

// Registry exposes the point registry to collaborating modules.
func (m *Module) Registry() *Registry { return m.registry }
