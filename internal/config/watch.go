package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mantonx/mediacat/internal/logger"
)

// Watch re-reads the configuration file when it changes on disk and swaps
// the active configuration. Registered watchers run on every reload, which
// is how the delivery bases (CDN, streaming server) hot-reload without a
// restart. Blocks until the context is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	m.mu.RLock()
	path := m.configPath
	m.mu.RUnlock()

	if path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and config maps replace
	// the file by rename, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	log := logger.Named("config-watch")

	var debounce *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, func() {
				if err := m.Load(path); err != nil {
					log.Error("config reload failed", "path", path, "error", err)
					return
				}
				log.Info("configuration reloaded", "path", path)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("config watch error", "error", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
