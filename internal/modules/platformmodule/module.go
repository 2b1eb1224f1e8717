package platformmodule

import (
	"gorm.io/gorm"

	"github.com/mantonx/mediacat/internal/config"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/modules/modulemanager"
)

const (
	// ModuleID is the unique identifier for the platform module.
	ModuleID = "catalog.platforms"

	// ModuleName is the display name for the platform module.
	ModuleName = "Platform Providers"
)

// Module wires the configured platform providers into the registry.
type Module struct {
	cfg      config.PlatformConfig
	registry *Registry
}

// NewModule creates the platform module around a prebuilt registry.
func NewModule(cfg config.PlatformConfig, registry *Registry) *Module {
	return &Module{cfg: cfg, registry: registry}
}

// Register adds the module to the global registry.
func (m *Module) Register() {
	modulemanager.Register(m)
}

// ID returns the unique module identifier.
func (m *Module) ID() string { return ModuleID }

// Name returns the module display name.
func (m *Module) Name() string { return ModuleName }

// Core reports that removal cleanup and read-time sync depend on this
// module.
func (m *Module) Core() bool { return true }

// Migrate is a no-op: providers keep no local state.
func (m *Module) Migrate(db *gorm.DB) error { return nil }

// Init registers every provider the configuration enables.
func (m *Module) Init() error {
	if m.cfg.LocalSourceDir != "" {
		m.registry.Register(NewLocalProvider(m.cfg.LocalSourceDir))
	}
	if m.cfg.WowzaAPIBase != "" {
		m.registry.Register(NewWowzaProvider(m.cfg.WowzaAPIBase))
	}
	if m.cfg.DailymotionToken != "" {
		m.registry.Register(NewDailymotionProvider(m.cfg.DailymotionToken))
	}
	logger.Info("platform module initialized", "providers", m.registry.Types())
	return nil
}

// Registry exposes the provider registry to collaborating modules.
func (m *Module) Registry() *Registry { return m.registry }
