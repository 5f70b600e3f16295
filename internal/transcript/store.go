package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store caches the corrections table and swaps it when the file changes.
// Readers always get an immutable snapshot.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	table Table
}

// OpenStore loads path (creating defaults when missing) into a new store.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	table, err := LoadTable(path, logger)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, logger: logger, table: table}, nil
}

// Path returns the corrections file location.
func (s *Store) Path() string {
	return s.path
}

// Table returns the current snapshot.
func (s *Store) Table() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Reload re-reads the file. Read and parse failures keep the previous table,
// so a half-written save never clears the active corrections.
func (s *Store) Reload() {
	table, err := readTable(s.path)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("corrections reload failed", "path", s.path, "error", err.Error())
		}
		return
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("corrections reloaded", "path", s.path, "entries", len(table))
	}
}

// Watch reloads the table whenever the file is written or created, until ctx ends.
//
// The parent directory is watched so editors that save via rename are seen.
// Removal is ignored; the last good table stays active.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create corrections watcher: %w", err)
	}

	target, err := filepath.Abs(s.path)
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("resolve corrections path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch corrections dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if s.logger != nil {
					s.logger.Warn("corrections watcher error", "error", err.Error())
				}
			}
		}
	}()
	return nil
}
