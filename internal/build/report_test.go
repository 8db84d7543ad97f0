package build

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomcur/sprokkel/internal/metrics"
	"github.com/tomcur/sprokkel/internal/site"
)

type countingRecorder struct {
	metrics.NoopRecorder
	stages map[string]metrics.ResultLabel
}

func (r *countingRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	r.stages[stage] = res
}

func TestReportOutcome(t *testing.T) {
	tests := []struct {
		name     string
		errs     []error
		warnings []error
		canceled bool
		want     Outcome
	}{
		{"clean", nil, nil, false, OutcomeSuccess},
		{"warnings only", nil, []error{errors.New("w")}, false, OutcomeWarning},
		{"errors win over warnings", []error{errors.New("e")}, []error{errors.New("w")}, false, OutcomeFailed},
		{"canceled wins", []error{errors.New("e")}, nil, true, OutcomeCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReport("id", site.KindRelease)
			r.Errors, r.Warnings = tt.errs, tt.warnings
			r.deriveOutcome(tt.canceled)
			assert.Equal(t, tt.want, r.Outcome)
		})
	}
}

func TestReportStageResults(t *testing.T) {
	rec := &countingRecorder{stages: map[string]metrics.ResultLabel{}}
	r := newReport("id", site.KindDevelop)
	r.recordStageResult(StageScan, metrics.ResultSuccess, rec)
	r.recordStageResult(StageVerifyAnchors, metrics.ResultWarning, rec)
	r.finish()

	assert.Equal(t, 1, r.StageCounts[StageScan].Success)
	assert.Equal(t, 1, r.StageCounts[StageVerifyAnchors].Warning)
	assert.Equal(t, metrics.ResultWarning, rec.stages[string(StageVerifyAnchors)])
	assert.Contains(t, r.Summary(), "kind=develop")
}
