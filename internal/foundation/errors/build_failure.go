package errors

import (
	"fmt"
	"strings"
)

// BuildFailure aggregates every error collected while running one build.
type BuildFailure struct {
	errs []error
}

// NewBuildFailure returns nil when errs holds no non-nil error.
func NewBuildFailure(errs ...error) *BuildFailure {
	kept := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &BuildFailure{errs: kept}
}

func (f *BuildFailure) Error() string {
	if len(f.errs) == 1 {
		return f.errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:", len(f.errs))
	for _, err := range f.errs {
		b.WriteString("\n  * ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (f *BuildFailure) Unwrap() []error {
	return f.errs
}

// Errors returns the collected errors in the order they were recorded.
func (f *BuildFailure) Errors() []error {
	out := make([]error, len(f.errs))
	copy(out, f.errs)
	return out
}

// First returns the first recorded error.
func (f *BuildFailure) First() error {
	return f.errs[0]
}

// Len reports how many errors were collected.
func (f *BuildFailure) Len() int {
	return len(f.errs)
}
