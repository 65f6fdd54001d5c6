package campus

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Source serves the current catalog and swaps it when the backing file changes.
type Source struct {
	current atomic.Pointer[Catalog]
}

// NewSource starts from the given catalog.
func NewSource(initial Catalog) *Source {
	s := &Source{}
	s.current.Store(&initial)
	return s
}

// Catalog returns the active catalog.
func (s *Source) Catalog() Catalog {
	return *s.current.Load()
}

// Store replaces the active catalog.
func (s *Source) Store(catalog Catalog) {
	s.current.Store(&catalog)
}

// Watch reloads path into the source whenever it is written, until ctx ends.
// The parent directory is watched so editors that replace the file by rename
// are picked up. A file that fails to parse leaves the previous catalog active.
func (s *Source) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			catalog, err := LoadFile(path)
			if err != nil {
				logger.WarnContext(ctx, "map catalog reload rejected", "path", path, "error", err)
				continue
			}
			s.Store(catalog)
			logger.InfoContext(ctx, "map catalog reloaded", "path", path, "maps", len(catalog.Maps))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "map catalog watcher error", "error", err)
		}
	}
}
