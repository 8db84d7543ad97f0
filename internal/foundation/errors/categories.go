package errors

// ErrorCategory groups errors by the part of a build that produced them.
type ErrorCategory string

const (
	// CategoryConfig covers sprokkel.toml and .env problems.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Site build categories, in pipeline order.
	CategoryScan       ErrorCategory = "scan"
	CategoryParse      ErrorCategory = "parse"
	CategoryLink       ErrorCategory = "link"
	CategoryPagination ErrorCategory = "pagination"
	CategoryTemplate   ErrorCategory = "template"
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryBuild      ErrorCategory = "build"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryWatch    ErrorCategory = "watch"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the build before rendering
	SeverityError   ErrorSeverity = "error"   // Fails one job; the build fails
	SeverityWarning ErrorSeverity = "warning" // Reported, output is still published
)

// ErrorContext holds structured details such as the entry path or link target.
type ErrorContext map[string]any

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	str, ok := c[key].(string)
	return str, ok
}

// with returns a copy of c with key set.
func (c ErrorContext) with(key string, value any) ErrorContext {
	next := make(ErrorContext, len(c)+1)
	for k, v := range c {
		next[k] = v
	}
	next[key] = value
	return next
}
