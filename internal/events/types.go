package events

import "time"

// ChangeDetected reports a change to a file or directory under the site root.
type ChangeDetected struct {
	Path string // Slash path relative to the site root
	Op   string
	At   time.Time
}

// RebuildTick is a periodic rebuild request from the scheduler.
type RebuildTick struct {
	At time.Time
}

// BuildRequest is implemented by every event that should lead to a build.
type BuildRequest interface {
	RequestedAt() time.Time
	Reason() string
}

func (e ChangeDetected) RequestedAt() time.Time { return e.At }
func (e ChangeDetected) Reason() string         { return "change: " + e.Path }

func (e RebuildTick) RequestedAt() time.Time { return e.At }
func (e RebuildTick) Reason() string         { return "scheduled" }

// BuildNow is emitted by the debouncer once a burst of requests has settled.
type BuildNow struct {
	TriggeredAt  time.Time
	RequestCount int
	FirstRequest time.Time
	LastRequest  time.Time
	LastReason   string
	// Cause is "quiet" or "max_delay".
	Cause string
}

// BuildStarted is published by the coordinator when it starts a build.
type BuildStarted struct {
	Generation uint64
	StartedAt  time.Time
}

// BuildFinished is published for the newest build once it completes. Superseded builds
// publish nothing.
type BuildFinished struct {
	Generation uint64
	BuildID    string
	Outcome    string
	Summary    string
	Duration   time.Duration
	Warnings   []error
	Err        error
}
