package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/tomcur/sprokkel/internal/build"
	"github.com/tomcur/sprokkel/internal/events"
	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

// printer writes the operator-facing build summaries.
type printer struct {
	w       io.Writer
	errors  *foundationerrors.CLIErrorAdapter
	ok      *color.Color
	warn    *color.Color
	failure *color.Color
}

func newPrinter(w io.Writer, adapter *foundationerrors.CLIErrorAdapter) *printer {
	return &printer{
		w:       w,
		errors:  adapter,
		ok:      color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
}

// report prints the result of a one-shot build. Errors are printed by the caller's error
// handler, so only the headline is written here.
func (p *printer) report(r *build.Report, err error) {
	if r == nil {
		return
	}
	switch r.Outcome {
	case build.OutcomeSuccess, build.OutcomeWarning:
		p.success(r.EntriesWritten+r.PagesWritten, r.Duration(), r.Warnings)
	case build.OutcomeCanceled:
		p.warn.Fprintf(p.w, "Build canceled after %s\n", ms(r.Duration()))
	default:
		p.failure.Fprintf(p.w, "Build failed after %s with %d error(s)\n", ms(r.Duration()), len(r.Errors))
	}
}

// finished prints the result of a watch mode build, including its errors.
func (p *printer) finished(evt events.BuildFinished) {
	switch build.Outcome(evt.Outcome) {
	case build.OutcomeSuccess, build.OutcomeWarning:
		p.ok.Fprintf(p.w, "Rebuilt in %s: %s\n", ms(evt.Duration), evt.Summary)
		p.warnings(evt.Warnings)
	case build.OutcomeCanceled:
		return
	default:
		p.failure.Fprintf(p.w, "Build failed after %s\n", ms(evt.Duration))
	}
	if evt.Err == nil {
		return
	}
	fmt.Fprintln(p.w, p.errors.FormatError(evt.Err))
	if foundationerrors.RecoversOnChange(evt.Err) {
		p.warn.Fprintln(p.w, "Waiting for changes")
	}
}

func (p *printer) success(pages int, d time.Duration, warnings []error) {
	p.ok.Fprintf(p.w, "Built %d pages in %s\n", pages, ms(d))
	p.warnings(warnings)
}

func (p *printer) warnings(warnings []error) {
	if len(warnings) == 0 {
		return
	}
	p.warn.Fprintf(p.w, "%d warning(s):\n", len(warnings))
	for _, w := range warnings {
		p.warn.Fprintf(p.w, "  %s\n", describeWarning(w))
	}
}

// describeWarning renders a warning as "<message> (<path>) -> <target>".
func describeWarning(err error) string {
	classified, ok := foundationerrors.AsClassified(err)
	if !ok {
		return err.Error()
	}
	msg := classified.Message()
	if path, ok := classified.Context().GetString("path"); ok {
		msg += " (" + path + ")"
	}
	if target, ok := classified.Context().GetString("target"); ok {
		msg += " -> " + target
	}
	return msg
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%d ms", d.Milliseconds())
}
