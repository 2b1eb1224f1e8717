package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mantonx/mediacat/internal/config"
	"github.com/mantonx/mediacat/internal/logger"
	"github.com/mantonx/mediacat/internal/server"
)

func main() {
	cfg := config.NewManager()

	configPath := os.Getenv("MEDIACAT_CONFIG_PATH")
	if configPath == "" {
		for _, candidate := range []string{"/app/mediacat-data/mediacat.yaml", "./mediacat.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
	}
	if err := cfg.Load(configPath); err != nil {
		logger.Error("failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}
	if configPath != "" {
		logger.Info("configuration loaded", "path", configPath)
	} else {
		logger.Info("using default configuration")
	}

	srv, err := server.New(cfg)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
