// Package server wires the catalog together: configuration, database,
// modules, HTTP surface and the event stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/mediacat/internal/assets"
	"github.com/mantonx/mediacat/internal/config"
	"github.com/mantonx/mediacat/internal/database"
	"github.com/mantonx/mediacat/internal/docstore"
	"github.com/mantonx/mediacat/internal/events"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/middleware"
	"github.com/mantonx/mediacat/internal/modules/deliverymodule"
	"github.com/mantonx/mediacat/internal/modules/mediamodule"
	"github.com/mantonx/mediacat/internal/modules/mediamodule/api"
	"github.com/mantonx/mediacat/internal/modules/mediamodule/core"
	"github.com/mantonx/mediacat/internal/modules/modulemanager"
	"github.com/mantonx/mediacat/internal/modules/platformmodule"
	"github.com/mantonx/mediacat/internal/modules/poimodule"
)

// Server is the assembled catalog application.
type Server struct {
	cfg      *config.Manager
	bus      events.EventBus
	files    *assets.Store
	service  *mediamodule.Service
	http     *http.Server
	stopSync context.CancelFunc
}

// New builds the full catalog from configuration: storage, modules,
// providers and routes.
func New(cfg *config.Manager) (*Server, error) {
	c := cfg.Get()

	logger.Configure(c.Logging.Level, c.Logging.Format)

	if err := database.Initialize(&c.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db := database.GetDB()

	mediaDocs, err := docstore.Open(db, "media")
	if err != nil {
		return nil, fmt.Errorf("failed to open media collection: %w", err)
	}
	pointDocs, err := docstore.Open(db, "points")
	if err != nil {
		return nil, fmt.Errorf("failed to open points collection: %w", err)
	}

	bus := events.NewEventBus(c.Server.EventBufferSize)
	events.SetGlobalEventBus(bus)

	files := assets.NewStore(c.Assets.DataDir, c.Assets.TempDir)

	providers := platformmodule.NewRegistry()
	registry := poimodule.NewRegistry(pointDocs, files, bus)
	queue := core.NewMutationQueue()
	store := core.NewStore(mediaDocs, queue, registry, files, providers.RemoveResolver(), bus)
	converter := poimodule.NewConverter(registry, store)
	synchronizer := platformmodule.NewSynchronizer(providers, store, bus)
	resolver := deliverymodule.NewResolver(c.Delivery.CDNBase, c.Delivery.StreamBase)
	service := mediamodule.NewService(store, registry, converter, synchronizer, resolver)

	mediamodule.NewModule(store, service).Register()
	poimodule.NewModule(registry).Register()
	platformmodule.NewModule(c.Platforms, providers).Register()
	deliverymodule.NewModule(cfg, resolver).Register()

	if err := modulemanager.LoadAll(db); err != nil {
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}

	router := setupRouter(&c.Server, files, bus)
	api.RegisterRoutes(router, api.NewHandler(service))
	modulemanager.RegisterRoutes(router)

	return &Server{
		cfg:     cfg,
		bus:     bus,
		files:   files,
		service: service,
		http: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port),
			Handler:        router,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			MaxHeaderBytes: c.Server.MaxHeaderBytes,
		},
	}, nil
}

// Start runs the event bus, configuration watcher and HTTP
// listener. It blocks until the listener stops.
func (s *Server) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.stopSync = cancel

	if err := s.bus.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	go func() {
		if err := s.cfg.Watch(runCtx); err != nil {
			logger.Warn("configuration watcher stopped", "error", err)
		}
	}()

	s.bus.Publish(events.Event{Type: events.EventSystemStarted, Source: "server"})
	logger.Info("catalog listening", "addr", s.http.Addr)

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener, the event bus and the module system.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("catalog shutting down")
	s.bus.Publish(events.Event{Type: events.EventSystemStopped, Source: "server"})

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	if s.stopSync != nil {
		s.stopSync()
	}
	s.bus.Stop()

	if merr := modulemanager.Shutdown(shutdownCtx); err == nil {
		err = merr
	}
	return err
}

// setupRouter configures the gin engine with the ambient routes: health,
// event stream and CORS.
func setupRouter(cfg *config.ServerConfig, files *assets.Store, bus events.EventBus) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	if cfg.EnableCORS {
		router.Use(middleware.CORS())
	}

	router.GET("/health", healthHandler(files))
	router.GET("/api/events/stream", streamHandler(bus))
	return router
}


