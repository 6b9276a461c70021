// Package watch re-runs a callback when files below a set of directories
// change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is the quiet period before a batch of changes fires.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc handles one debounced batch of changed paths, sorted. An error
// is logged and watching continues.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher watches directories recursively and the files named directly
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// New creates a watcher over paths. Directories are watched with all their
// non-hidden subdirectories.
func New(debounce time.Duration, paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{watcher: fw, debounce: debounce}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.watcher.Add(root)
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is done, calling fn once per batch of changes. fn is
// never called concurrently with itself.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						log.Warn().Err(err).Msg("watch")
					}
				}
			}

			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change detected")
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			if err := fn(ctx, changed); err != nil {
				log.Error().Err(err).Int("changed", len(changed)).Msg("rebuild failed")
			}
		}
	}
}

// ignored matches hidden files and directories and editor backups. Temp
// files written by the output writer are hidden.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		base == "node_modules"
}
