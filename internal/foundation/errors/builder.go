package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with severity error.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
	}}
}

// WrapError starts an error that wraps err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

// WithCause sets the wrapped error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// OnChange marks the error as fixable by editing the site sources, so a watch mode rebuild
// after the next change may succeed.
func (b *ErrorBuilder) OnChange() *ErrorBuilder {
	b.err.onChange = true
	return b
}

// Build returns the ClassifiedError. The builder must not be reused.
func (b *ErrorBuilder) Build() *ClassifiedError {
	err := b.err
	return &err
}

// ConfigError creates a configuration error. Config is re-read on every build, so editing
// sprokkel.toml can fix it.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().OnChange()
}

// ValidationError creates a command line usage error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

func ScanError(message string) *ErrorBuilder {
	return NewError(CategoryScan, message).Fatal().OnChange()
}

func ParseError(message string) *ErrorBuilder {
	return NewError(CategoryParse, message).Fatal().OnChange()
}

// LinkError creates an internal link resolution error.
func LinkError(message string) *ErrorBuilder {
	return NewError(CategoryLink, message).Fatal().OnChange()
}

// PaginationError creates an invalid pagination argument error.
func PaginationError(message string) *ErrorBuilder {
	return NewError(CategoryPagination, message).OnChange()
}

// TemplateError creates a template loading or evaluation error.
func TemplateError(message string) *ErrorBuilder {
	return NewError(CategoryTemplate, message).OnChange()
}

// RenderError creates a highlighting or math rendering error.
func RenderError(message string) *ErrorBuilder {
	return NewError(CategoryRender, message).OnChange()
}

// FileSystemError creates an output I/O error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// BuildError creates an orchestration error such as two jobs producing one output path.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).Fatal()
}

func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

// WatchError creates a file watching error.
func WatchError(message string) *ErrorBuilder {
	return NewError(CategoryWatch, message)
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
