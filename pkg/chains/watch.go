package chains

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RegistryWatcher reloads a registry override file when it changes on disk,
// so chains can be added without restarting the server.
type RegistryWatcher struct {
	registry *Registry
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// WatchRegistryFile loads the file once, then watches it for changes.
// Editors often replace files instead of writing in place, so the parent
// directory is watched and events are filtered by name.
func WatchRegistryFile(registry *Registry, path string, logger *zap.Logger) (*RegistryWatcher, error) {
	if err := registry.LoadFile(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &RegistryWatcher{
		registry: registry,
		path:     path,
		watcher:  watcher,
		logger:   logger,
	}, nil
}

// Run processes file events until the context is cancelled or the watcher
// is closed. A reload failure keeps the previous registry.
func (w *RegistryWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}

			if err := w.registry.LoadFile(w.path); err != nil {
				w.logger.Warn("chain registry reload failed, keeping previous registry",
					zap.String("path", w.path),
					zap.Error(err),
				)
				continue
			}

			w.logger.Info("chain registry reloaded",
				zap.String("path", w.path),
				zap.Int("chains", w.registry.Len()),
			)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("chain registry watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *RegistryWatcher) Close() error {
	return w.watcher.Close()
}
