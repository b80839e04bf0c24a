package curation

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/logging"
)

// Store serves the current Tables and swaps them atomically on reload.
type Store struct {
	current atomic.Pointer[Tables]
	base    *Tables
	logger  *zap.Logger
}

// NewStore returns a store serving the embedded defaults, layered with
// the override file at path when path is not empty.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{base: Default(), logger: logging.OrNop(logger)}
	s.current.Store(s.base)
	if path != "" {
		if err := s.Reload(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Tables returns the current snapshot.
func (s *Store) Tables() *Tables {
	return s.current.Load()
}

// Reload re-reads the override file. On failure the previous snapshot
// stays in place.
func (s *Store) Reload(path string) error {
	t, err := LoadFile(path, s.base)
	if err != nil {
		return err
	}
	s.current.Store(t)
	s.logger.Info("curated tables loaded", zap.String("path", path), zap.String("version", t.Version))
	return nil
}

// Watch reloads path whenever it is written or replaced, until ctx ends.
// The parent directory is watched so editors that swap files are seen.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()

		const settle = 200 * time.Millisecond
		var timer *time.Timer
		var fire <-chan time.Time
		target := filepath.Clean(path)

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(settle)
				} else {
					timer.Reset(settle)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if err := s.Reload(path); err != nil {
					s.logger.Warn("curated tables reload failed", zap.String("path", path), zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("curated tables watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
