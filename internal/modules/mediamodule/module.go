package mediamodule

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/modules/mediamodule/core"
	"github.com/mantonx/mediacat/internal/modules/modulemanager"
)

const (
	// ModuleID is the unique identifier for the media module.
	ModuleID = "catalog.media"

	// ModuleName is the display name for the media module.
	ModuleName = "Media Catalog"
)

// Module wraps the media store and catalog service for the module
// lifecycle.
type Module struct {
	store   *core.Store
	service *Service
}

// NewModule wraps a prebuilt store and service.
func NewModule(store *core.Store, service *Service) *Module {
	return &Module{store: store, service: service}
}

// Register adds the module to the global registry.
func (m *Module) Register() {
	modulemanager.Register(m)
}

// ID returns the unique module identifier.
func (m *Module) ID() string { return ModuleID }

// Name returns the module display name.
func (m *Module) Name() string { return ModuleName }

// Core reports that this is the catalog itself.
func (m *Module) Core() bool { return true }

// Migrate creates the media indexes. The backing collection is migrated
// when it is opened.
func (m *Module) Migrate(db *gorm.DB) error {
	return m.store.CreateIndexes(context.Background(), "state", "type", "metadata.user")
}

// Init completes module startup.
func (m *Module) Init() error {
	logger.Info("media module initialized")
	return nil
}

// Shutdown stops accepting writes.
func (m *Module) Shutdown(ctx context.Context) error {
	return nil
}

// Service exposes the catalog service to collaborating modules.
func (m *Module) Service() *Service { return m.service }
