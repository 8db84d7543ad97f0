package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-1")
	ctx = WithBuildKind(ctx, "develop")
	ctx = WithStage(ctx, "scan")
	ctx = WithStage(ctx, "parse")

	assert.Equal(t, "build-1", BuildID(ctx))
	assert.Equal(t, "parse", Stage(ctx))
	assert.Empty(t, BuildID(context.Background()))
}

func TestContextLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithLogger(context.Background(), logger)
	ctx = WithBuildID(ctx, "b-42")
	ctx = WithStage(ctx, "scan")
	ctx = WithStage(ctx, "render")

	InfoContext(ctx, "rendered", slog.Int("count", 3))
	WarnContext(ctx, "careful")
	ErrorContext(ctx, "broken")
	DebugContext(ctx, "details")

	out := buf.String()
	assert.Contains(t, out, `level=INFO msg=rendered build_id=b-42 stage=render count=3`)
	assert.Contains(t, out, `level=WARN msg=careful build_id=b-42`)
	assert.Contains(t, out, `level=ERROR msg=broken`)
	assert.Contains(t, out, `level=DEBUG msg=details`)
	assert.NotContains(t, out, "stage=scan")
}

func TestContextLoggingRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	DebugContext(ctx, "hidden")
	assert.Empty(t, buf.String())
}
