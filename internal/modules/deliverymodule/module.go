package deliverymodule

import (
	"gorm.io/gorm"

	"github.com/mantonx/mediacat/internal/config"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/modules/modulemanager"
)

const (
	// ModuleID is the unique identifier for the delivery module.
	ModuleID = "catalog.delivery"

	// ModuleName is the display name for the delivery module.
	ModuleName = "Delivery Resolver"
)

// Module keeps the resolver bases in sync with the configuration.
type Module struct {
	cfg      *config.Manager
	resolver *Resolver
}

// NewModule creates the delivery module around a prebuilt resolver.
func NewModule(cfg *config.Manager, resolver *Resolver) *Module {
	return &Module{cfg: cfg, resolver: resolver}
}

// Register adds the module to the global registry.
func (m *Module) Register() {
	modulemanager.Register(m)
}

// ID returns the unique module identifier.
func (m *Module) ID() string { return ModuleID }

// Name returns the module display name.
func (m *Module) Name() string { return ModuleName }

// Core reports that reads cannot be served without URL resolution.
func (m *Module) Core() bool { return true }

// Migrate is a no-op: the resolver keeps no state.
func (m *Module) Migrate(db *gorm.DB) error { return nil }

// Init subscribes the resolver to configuration reloads so a CDN or
// streaming-server move takes effect without a restart.
func (m *Module) Init() error {
	m.cfg.AddWatcher(func(_, newConfig *config.Config) {
		m.resolver.SetBases(newConfig.Delivery.CDNBase, newConfig.Delivery.StreamBase)
		logger.Info("delivery bases reloaded",
			"cdn", newConfig.Delivery.CDNBase, "stream", newConfig.Delivery.StreamBase)
	})
	return nil
}

// Resolver exposes the resolver to collaborating modules.
func (m *Module) Resolver() *Resolver { return m.resolver }
