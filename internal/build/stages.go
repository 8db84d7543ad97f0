package build

import (
	"context"
	"time"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/metrics"
	"github.com/tomcur/sprokkel/internal/observability"
)

// StageName is the typed identifier of a build stage.
type StageName string

const (
	StageLoadConfig    StageName = "load_config"
	StageScan          StageName = "scan"
	StageParse         StageName = "parse"
	StageGraph         StageName = "graph"
	StageRender        StageName = "render"
	StageAssets        StageName = "assets"
	StageVerifyAnchors StageName = "verify_anchors"
	StagePublish       StageName = "publish"
)

// StageDef pairs a stage name with its implementation.
type StageDef struct {
	Name StageName
	Fn   func(ctx context.Context, st *buildState) error
}

func pipeline() []StageDef {
	return []StageDef{
		{StageLoadConfig, stageLoadConfig},
		{StageScan, stageScan},
		{StageParse, stageParse},
		{StageGraph, stageGraph},
		{StageRender, stageRender},
		{StageAssets, stageAssets},
		{StageVerifyAnchors, stageVerifyAnchors},
		{StagePublish, stagePublish},
	}
}

// runStages executes stages in order, recording timing and stopping at the first error.
func runStages(ctx context.Context, st *buildState, stages []StageDef) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			st.report.recordStageResult(stage.Name, metrics.ResultCanceled, st.recorder)
			return canceledError(stage.Name, err)
		}

		stageCtx := observability.WithStage(ctx, string(stage.Name))
		observability.DebugContext(stageCtx, "Stage started")

		warnings := len(st.report.Warnings)
		t0 := time.Now()
		err := stage.Fn(stageCtx, st)
		dur := time.Since(t0)
		st.report.StageDurations[stage.Name] = dur
		st.recorder.ObserveStageDuration(string(stage.Name), dur)

		switch {
		case err != nil && ctx.Err() != nil:
			st.report.recordStageResult(stage.Name, metrics.ResultCanceled, st.recorder)
			return canceledError(stage.Name, ctx.Err())
		case err != nil:
			st.report.recordStageResult(stage.Name, metrics.ResultFatal, st.recorder)
			observability.DebugContext(stageCtx, "Stage failed", logfields.Elapsed(t0), logfields.Error(err))
			return err
		case len(st.report.Warnings) > warnings:
			st.report.recordStageResult(stage.Name, metrics.ResultWarning, st.recorder)
		default:
			st.report.recordStageResult(stage.Name, metrics.ResultSuccess, st.recorder)
		}
		observability.DebugContext(stageCtx, "Stage completed", logfields.Elapsed(t0))
	}
	return nil
}

func canceledError(stage StageName, cause error) error {
	return foundationerrors.WrapError(cause, foundationerrors.CategoryRuntime, "build canceled").
		Fatal().
		WithContext("stage", string(stage)).
		Build()
}
