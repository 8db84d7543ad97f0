package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tomcur/sprokkel/internal/build"
	"github.com/tomcur/sprokkel/internal/events"
	"github.com/tomcur/sprokkel/internal/logfields"
)

// BuildFunc runs one build. *build.Builder's Build method satisfies it.
type BuildFunc func(ctx context.Context) (*build.Report, error)

// Coordinator starts a build for every BuildNow. A new build cancels the one in flight without
// waiting for it; only the newest build's completion is published as BuildFinished.
type Coordinator struct {
	bus   *events.Bus
	build BuildFunc
	ready chan struct{}

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	running    sync.WaitGroup
}

// NewCoordinator creates a coordinator running fn.
func NewCoordinator(bus *events.Bus, fn BuildFunc) *Coordinator {
	return &Coordinator{bus: bus, build: fn, ready: make(chan struct{})}
}

// Ready is closed once Run has subscribed to the bus.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// Run handles BuildNow events until ctx is done, then cancels the build in flight and waits
// for every started build to return.
func (c *Coordinator) Run(ctx context.Context) error {
	reqs, unsubscribe := events.Subscribe[events.BuildNow](c.bus, 16)
	defer unsubscribe()
	close(c.ready)

	defer c.running.Wait()
	defer c.cancelCurrent()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-reqs:
			if !ok {
				return nil
			}
			slog.Info("Rebuilding", slog.String("reason", evt.LastReason), logfields.Count(evt.RequestCount))
			c.Start(ctx)
		}
	}
}

// Start supersedes the build in flight, if any, and starts a new one. It returns the new
// build's generation.
func (c *Coordinator) Start(ctx context.Context) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	buildCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running.Add(1)
	c.mu.Unlock()

	c.publish(ctx, events.BuildStarted{Generation: gen, StartedAt: time.Now()})

	go func() {
		defer c.running.Done()
		defer cancel()
		start := time.Now()
		report, err := c.build(buildCtx)
		c.finish(ctx, gen, start, report, err)
	}()
	return gen
}

// Generation returns the generation of the newest build.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Coordinator) finish(ctx context.Context, gen uint64, start time.Time, report *build.Report, err error) {
	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()
	if stale {
		slog.Debug("Superseded build returned", slog.Uint64("generation", gen), logfields.Elapsed(start))
		return
	}

	evt := events.BuildFinished{Generation: gen, Duration: time.Since(start), Err: err}
	if report != nil {
		evt.BuildID = report.BuildID
		evt.Outcome = string(report.Outcome)
		evt.Summary = report.Summary()
		evt.Warnings = report.Warnings
		evt.Duration = report.Duration()
	}
	c.publish(ctx, evt)
}

func (c *Coordinator) cancelCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Coordinator) publish(ctx context.Context, evt any) {
	if err := c.bus.Publish(ctx, evt); err != nil && ctx.Err() == nil {
		slog.Warn("Failed to publish build event", logfields.Error(err))
	}
}
