// Package watch rebuilds a site whenever its sources change. A Watcher turns filesystem
// notifications into ChangeDetected events, a Debouncer coalesces bursts of them into BuildNow
// events and a Coordinator runs one build per BuildNow, superseding any build in flight.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tomcur/sprokkel/internal/events"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/source"
)

// Watcher watches a site root recursively. Directories created later are added as they
// appear.
type Watcher struct {
	root    string
	exclude []string
	filter  *source.Filter
	bus     *events.Bus
	fsw     *fsnotify.Watcher
	ready   chan struct{}
}

// NewWatcher creates a watcher for root. Paths under exclude (typically the output and staging
// directories) and root-relative paths matched by filter never produce events. A nil filter
// still skips hidden and editor temporary files.
func NewWatcher(root string, bus *events.Bus, filter *source.Filter, exclude ...string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, foundationerrors.WatchError("failed to resolve site root").WithCause(err).WithContext("path", root).Build()
	}
	skip := make([]string, 0, len(exclude))
	for _, e := range exclude {
		a, err := filepath.Abs(e)
		if err != nil {
			return nil, foundationerrors.WatchError("failed to resolve excluded path").WithCause(err).WithContext("path", e).Build()
		}
		skip = append(skip, a)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, foundationerrors.WatchError("failed to create file watcher").Fatal().WithCause(err).Build()
	}
	return &Watcher{root: abs, exclude: skip, filter: filter, bus: bus, fsw: fsw, ready: make(chan struct{})}, nil
}

// Ready is closed once the initial tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run watches until ctx is done. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	slog.Info("Watching for changes", logfields.Path(w.root))
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}
	evt := events.ChangeDetected{Path: filepath.ToSlash(rel), Op: ev.Op.String(), At: time.Now()}
	slog.Debug("Change detected", logfields.Path(evt.Path), slog.String("op", evt.Op))
	if err := w.bus.Publish(ctx, evt); err != nil && ctx.Err() == nil {
		slog.Warn("Failed to publish change", logfields.Path(evt.Path), logfields.Error(err))
	}
}

// addTree adds dir and every directory below it that is not ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if os.IsNotExist(err) {
				return nil
			}
			return foundationerrors.WatchError("failed to walk directory").WithCause(err).WithContext("path", p).Build()
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.ignored(p) {
			return fs.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return foundationerrors.WatchError("failed to watch directory").WithCause(err).WithContext("path", p).Build()
		}
		return nil
	})
}

// ignored reports whether a path is excluded, hidden, an editor temporary file or matched by
// the site's ignore globs.
func (w *Watcher) ignored(p string) bool {
	for _, e := range w.exclude {
		if p == e || strings.HasPrefix(p, e+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return w.filter.Ignored(filepath.ToSlash(rel))
}
