package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/launchpad/pkg/observability"
)

// Source provides the catalog in effect for an operation
type Source interface {
	Current() *Catalog
}

// Static is a Source that never changes
type Static struct {
	catalog *Catalog
}

// NewStatic wraps a catalog as a Source
func NewStatic(c *Catalog) *Static {
	return &Static{catalog: c}
}

// Current returns the wrapped catalog
func (s *Static) Current() *Catalog {
	return s.catalog
}

// Watcher is a Source backed by a YAML file that reloads when the file changes.
// A file that fails to parse or validate is logged and the previous catalog stays in effect.
type Watcher struct {
	path    string
	current atomic.Pointer[Catalog]
	watcher *fsnotify.Watcher
	logger  *observability.Logger
	reloads atomic.Int64

	onReload func(*Catalog)
}

// NewWatcher loads the catalog file and starts watching its directory
func NewWatcher(path string, logger *observability.Logger) (*Watcher, error) {
	initial, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory and filter by name.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		logger:  logger.WithField("catalog_file", path),
	}
	w.current.Store(initial)
	return w, nil
}

// Current returns the most recently loaded catalog
func (w *Watcher) Current() *Catalog {
	return w.current.Load()
}

// Reloads returns how many times the catalog has been swapped since start
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// OnReload registers fn to be called after each successful reload. Call it before Run.
func (w *Watcher) OnReload(fn func(*Catalog)) {
	w.onReload = fn
}

// Run processes file events until the context is cancelled
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Catalog watcher error")
		}
	}
}

func (w *Watcher) reload() {
	next, err := LoadFile(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring invalid catalog file")
		return
	}
	w.current.Store(next)
	w.reloads.Add(1)
	w.logger.WithField("catalog", next.Name).Info("Catalog reloaded")
	if w.onReload != nil {
		w.onReload(next)
	}
}

// Close stops watching the file
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
