package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyBuildKind  = "build_kind"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyGroup      = "group"
	KeyCanonical  = "canonical"
	KeyTemplate   = "template"
	KeyPage       = "page"
	KeyTarget     = "target"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyWorker     = "worker"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func BuildKind(k string) slog.Attr    { return slog.String(KeyBuildKind, k) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Group(g string) slog.Attr        { return slog.String(KeyGroup, g) }
func Canonical(c string) slog.Attr    { return slog.String(KeyCanonical, c) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Page(n int) slog.Attr            { return slog.Int(KeyPage, n) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Worker(id int) slog.Attr         { return slog.Int(KeyWorker, id) }

// Elapsed reports the milliseconds since start under KeyDurationMS.
func Elapsed(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
