package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ClassifiedError is a build error with a category, a severity and structured context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	onChange bool
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "[category] message k=v ...: cause". Context keys are sorted so messages
// stay stable between runs.
func (e *ClassifiedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.category, e.message)
	keys := make([]string, 0, len(e.context))
	for k := range e.context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.context[k])
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

func (e *ClassifiedError) Category() ErrorCategory {
	return e.category
}

func (e *ClassifiedError) Severity() ErrorSeverity {
	return e.severity
}

func (e *ClassifiedError) Message() string {
	return e.message
}

func (e *ClassifiedError) Cause() error {
	return e.cause
}

func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

// RecoversOnChange reports whether editing the site sources can fix the error.
func (e *ClassifiedError) RecoversOnChange() bool {
	return e.onChange
}

// WithContext returns a copy of e with key set; e is not modified.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	next := *e
	next.context = e.context.with(key, value)
	return &next
}

// Is matches another ClassifiedError with the same category and message.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the first ClassifiedError in err's chain has category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}

// RecoversOnChange reports whether every error in err, including each error of a
// BuildFailure, can be fixed by editing the site sources.
func RecoversOnChange(err error) bool {
	if err == nil {
		return false
	}
	var failure *BuildFailure
	if stderrors.As(err, &failure) {
		for _, e := range failure.errs {
			if !RecoversOnChange(e) {
				return false
			}
		}
		return true
	}
	classified, ok := AsClassified(err)
	return ok && classified.onChange
}
