package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/tomcur/sprokkel/internal/events"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
)

// Scheduler requests a rebuild at a fixed interval, for sites whose templates depend on the
// time of the build. Ticks go through the debouncer like any change.
type Scheduler struct {
	scheduler gocron.Scheduler
	bus       *events.Bus
	interval  time.Duration
}

// NewScheduler creates a scheduler publishing a RebuildTick every interval.
func NewScheduler(bus *events.Bus, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, foundationerrors.ValidationError("rebuild interval must be > 0").Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "failed to create scheduler").Build()
	}
	return &Scheduler{scheduler: s, bus: bus, interval: interval}, nil
}

// Run schedules the rebuild job and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.tick, ctx),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.scheduler.Shutdown()
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "failed to schedule periodic rebuild").Build()
	}

	slog.Info("Scheduled periodic rebuild", slog.String("interval", s.interval.String()))
	s.scheduler.Start()
	<-ctx.Done()
	if err := s.scheduler.Shutdown(); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "failed to stop scheduler").Build()
	}
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.bus.Publish(ctx, events.RebuildTick{At: time.Now()}); err != nil && ctx.Err() == nil {
		slog.Warn("Failed to publish rebuild tick", logfields.Error(err))
	}
}
