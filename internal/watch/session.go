package watch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomcur/sprokkel/internal/events"
	"github.com/tomcur/sprokkel/internal/source"
)

// Options configures a watch session.
type Options struct {
	Root string
	// Exclude lists directories whose changes are ignored, such as the output directory.
	Exclude []string
	// Ignore holds the site's doublestar ignore globs; matching changes do not trigger builds.
	Ignore   []string
	Build    BuildFunc
	Debounce DebouncerConfig
	// RebuildInterval, when positive, also rebuilds periodically.
	RebuildInterval time.Duration
	// OnFinish is called with the result of every build that was not superseded.
	OnFinish func(events.BuildFinished)
}

// Run builds once, then rebuilds on every settled burst of changes until ctx is done. Build
// failures are handed to OnFinish and do not end the session.
func Run(ctx context.Context, opts Options) error {
	bus := events.NewBus()
	defer bus.Close()

	debouncer, err := NewDebouncer(bus, opts.Debounce)
	if err != nil {
		return err
	}
	watcher, err := NewWatcher(opts.Root, bus, source.NewFilter(opts.Ignore), opts.Exclude...)
	if err != nil {
		return err
	}
	var scheduler *Scheduler
	if opts.RebuildInterval > 0 {
		if scheduler, err = NewScheduler(bus, opts.RebuildInterval); err != nil {
			_ = watcher.Close()
			return err
		}
	}
	coordinator := NewCoordinator(bus, opts.Build)
	finished, unsubscribe := events.Subscribe[events.BuildFinished](bus, 4)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return debouncer.Run(gctx) })
	g.Go(func() error { return coordinator.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case evt, ok := <-finished:
				if !ok {
					return nil
				}
				if opts.OnFinish != nil {
					opts.OnFinish(evt)
				}
			}
		}
	})
	<-debouncer.Ready()
	<-coordinator.Ready()

	g.Go(func() error { return watcher.Run(gctx) })
	if scheduler != nil {
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	coordinator.Start(gctx)
	return g.Wait()
}
