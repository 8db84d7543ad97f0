// Package observability carries per-build logging context (build ID, build kind, stage)
// through context.Context so every log line of a build can be correlated.
package observability

import (
	"context"
	"log/slog"

	"github.com/tomcur/sprokkel/internal/logfields"
)

// scope is the logging state stored in a context. The logger already carries the build
// attributes; the stage is kept apart since it changes for every stage of a build.
type scope struct {
	logger  *slog.Logger
	buildID string
	stage   string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	if s, ok := ctx.Value(scopeKey{}).(scope); ok {
		return s
	}
	return scope{}
}

func (s scope) base() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// WithLogger routes context logging to logger instead of slog.Default. Attributes added
// before are dropped, so call it first.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	s := scopeFrom(ctx)
	s.logger = logger
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithBuildID tags every later log line with the build ID.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	s := scopeFrom(ctx)
	s.logger = s.base().With(logfields.BuildID(buildID))
	s.buildID = buildID
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithBuildKind tags every later log line with the build kind (release or develop).
func WithBuildKind(ctx context.Context, kind string) context.Context {
	s := scopeFrom(ctx)
	s.logger = s.base().With(logfields.BuildKind(kind))
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithStage sets the current stage, replacing any previous one.
func WithStage(ctx context.Context, stage string) context.Context {
	s := scopeFrom(ctx)
	s.stage = stage
	return context.WithValue(ctx, scopeKey{}, s)
}

// BuildID returns the build ID set on ctx, or "".
func BuildID(ctx context.Context) string {
	return scopeFrom(ctx).buildID
}

// Stage returns the stage set on ctx, or "".
func Stage(ctx context.Context) string {
	return scopeFrom(ctx).stage
}

func log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	s := scopeFrom(ctx)
	logger := s.base()
	if !logger.Enabled(ctx, level) {
		return
	}
	if s.stage != "" {
		attrs = append([]slog.Attr{logfields.Stage(s.stage)}, attrs...)
	}
	logger.LogAttrs(ctx, level, msg, attrs...)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelError, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelDebug, msg, attrs)
}
