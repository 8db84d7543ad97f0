package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/tomcur/sprokkel/internal/events"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
)

// Debounce defaults.
const (
	DefaultQuietWindow = 250 * time.Millisecond
	DefaultMaxDelay    = 2 * time.Second
)

// DebouncerConfig configures a Debouncer.
type DebouncerConfig struct {
	// QuietWindow is how long requests must stop arriving before a build starts.
	QuietWindow time.Duration
	// MaxDelay bounds how long a steady stream of requests can postpone a build.
	MaxDelay time.Duration
}

// Debouncer coalesces bursts of build requests (ChangeDetected, RebuildTick) into a single
// BuildNow. It is run by one goroutine.
type Debouncer struct {
	bus   *events.Bus
	cfg   DebouncerConfig
	ready chan struct{}

	pending bool
	count   int
	first   time.Time
	last    time.Time
	reason  string
}

// NewDebouncer creates a debouncer publishing to bus. Zero durations take the defaults.
func NewDebouncer(bus *events.Bus, cfg DebouncerConfig) (*Debouncer, error) {
	if bus == nil {
		return nil, foundationerrors.ValidationError("bus is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = DefaultQuietWindow
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.MaxDelay < cfg.QuietWindow {
		return nil, foundationerrors.ValidationError("max delay must not be shorter than the quiet window").
			WithContext("quiet_window", cfg.QuietWindow.String()).
			WithContext("max_delay", cfg.MaxDelay.String()).
			Build()
	}
	return &Debouncer{bus: bus, cfg: cfg, ready: make(chan struct{})}, nil
}

// Ready is closed once Run has subscribed to the bus.
func (d *Debouncer) Ready() <-chan struct{} {
	return d.ready
}

// Run consumes build requests until ctx is done.
func (d *Debouncer) Run(ctx context.Context) error {
	reqs, unsubscribe := events.Subscribe[events.BuildRequest](d.bus, 64)
	defer unsubscribe()
	close(d.ready)

	quiet := newStoppedTimer()
	maxDelay := newStoppedTimer()
	defer quiet.Stop()
	defer maxDelay.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-reqs:
			if !ok {
				return nil
			}
			if !d.pending {
				d.pending = true
				d.count = 0
				d.first = req.RequestedAt()
				maxDelay.Reset(d.cfg.MaxDelay)
			}
			d.count++
			d.last = req.RequestedAt()
			d.reason = req.Reason()
			resetTimer(quiet, d.cfg.QuietWindow)
		case <-quiet.C:
			d.emit(ctx, "quiet")
			stopTimer(maxDelay)
		case <-maxDelay.C:
			d.emit(ctx, "max_delay")
			stopTimer(quiet)
		}
	}
}

func (d *Debouncer) emit(ctx context.Context, cause string) {
	if !d.pending {
		return
	}
	d.pending = false
	evt := events.BuildNow{
		TriggeredAt:  time.Now(),
		RequestCount: d.count,
		FirstRequest: d.first,
		LastRequest:  d.last,
		LastReason:   d.reason,
		Cause:        cause,
	}
	slog.Debug("Build requested",
		logfields.Count(d.count),
		slog.String("cause", cause),
		slog.String("reason", d.reason))
	if err := d.bus.Publish(ctx, evt); err != nil && ctx.Err() == nil {
		slog.Warn("Failed to publish build request", logfields.Error(err))
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
