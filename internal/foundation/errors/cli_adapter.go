package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Process exit codes.
const (
	ExitGeneral  = 1
	ExitUsage    = 2
	ExitConfig   = 7
	ExitInternal = 10
	ExitBuild    = 11
	ExitRuntime  = 12
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: ExitUsage,
	CategoryConfig:     ExitConfig,
	CategoryScan:       ExitBuild,
	CategoryParse:      ExitBuild,
	CategoryLink:       ExitBuild,
	CategoryPagination: ExitBuild,
	CategoryTemplate:   ExitBuild,
	CategoryRender:     ExitBuild,
	CategoryFileSystem: ExitBuild,
	CategoryBuild:      ExitBuild,
	CategoryRuntime:    ExitRuntime,
	CategoryWatch:      ExitRuntime,
	CategoryInternal:   ExitInternal,
}

// CLIErrorAdapter turns errors returned by commands into a message and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates an adapter printing to stderr. A nil logger uses slog.Default.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor maps err to a process exit code. A BuildFailure exits with the code of the
// first error it recorded.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var failure *BuildFailure
	if stderrors.As(err, &failure) {
		err = failure.First()
	}
	if classified, ok := AsClassified(err); ok {
		if code, known := exitCodes[classified.Category()]; known {
			return code
		}
		return ExitGeneral
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitRuntime
	}
	return ExitGeneral
}

// FormatError renders err for the terminal. With verbose set, classified errors are shown
// with their full context.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var failure *BuildFailure
	if stderrors.As(err, &failure) && failure.Len() > 1 {
		var b strings.Builder
		fmt.Fprintf(&b, "Build failed with %d errors:", failure.Len())
		for _, e := range failure.Errors() {
			b.WriteString("\n  ")
			b.WriteString(a.FormatError(e))
		}
		return b.String()
	}

	classified, ok := AsClassified(err)
	switch {
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return classified.Error()
	case classified.Category() == CategoryInternal:
		return "Internal error occurred (use -v for details)"
	}
	msg := "Error: " + classified.Message()
	if path, ok := classified.Context().GetString("path"); ok {
		msg += " (" + path + ")"
	}
	if target, ok := classified.Context().GetString("target"); ok {
		msg += " -> " + target
	}
	if cause := classified.Cause(); cause != nil {
		msg += ": " + cause.Error()
	}
	return msg
}

// HandleError prints err and exits with its exit code. It returns without exiting for nil.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.verbose {
		a.logError(err)
	}
	fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	level := slog.LevelError
	if classified.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(),
		slog.String("category", string(classified.Category())),
		slog.String("severity", string(classified.Severity())),
		slog.Bool("recovers_on_change", RecoversOnChange(err)))
}
