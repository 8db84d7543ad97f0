package build

import (
	"fmt"
	"time"

	"github.com/tomcur/sprokkel/internal/metrics"
	"github.com/tomcur/sprokkel/internal/site"
)

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// StageCount tallies stage results by classification.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// Report captures what one build did.
type Report struct {
	BuildID string
	Kind    site.Kind
	Start   time.Time
	End     time.Time

	StageDurations map[StageName]time.Duration
	StageCounts    map[StageName]StageCount

	EntriesWritten int
	PagesWritten   int
	AssetsWritten  int

	Errors   []error // errors that failed the build
	Warnings []error // non-fatal issues, such as missing link anchors
	Outcome  Outcome

	// Digest is an xxh3 hash over every published path and its content, in path order.
	// Two builds of the same sources produce the same digest.
	Digest string
	// Files maps each published path to the xxh3 hash of its content.
	Files map[string]string
}

func newReport(buildID string, kind site.Kind) *Report {
	return &Report{
		BuildID:        buildID,
		Kind:           kind,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageCounts:    make(map[StageName]StageCount),
	}
}

func (r *Report) finish() { r.End = time.Now() }

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Summary returns a one-line description of the build.
func (r *Report) Summary() string {
	return fmt.Sprintf("kind=%s entries=%d pages=%d assets=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Kind, r.EntriesWritten, r.PagesWritten, r.AssetsWritten, r.Duration().Truncate(time.Millisecond),
		len(r.Errors), len(r.Warnings), r.Outcome)
}

// deriveOutcome sets Outcome from the recorded errors and warnings. canceled wins over
// failed because a canceled build's errors are a side effect of the cancellation.
func (r *Report) deriveOutcome(canceled bool) {
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// recordStageResult updates the stage counters and emits the matching metric.
func (r *Report) recordStageResult(stage StageName, res metrics.ResultLabel, recorder metrics.Recorder) {
	sc := r.StageCounts[stage]
	switch res {
	case metrics.ResultSuccess:
		sc.Success++
	case metrics.ResultWarning:
		sc.Warning++
	case metrics.ResultFatal:
		sc.Fatal++
	case metrics.ResultCanceled:
		sc.Canceled++
	}
	r.StageCounts[stage] = sc
	recorder.IncStageResult(string(stage), res)
}
