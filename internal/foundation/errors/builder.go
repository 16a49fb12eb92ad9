package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

func newBuilder(category ErrorCategory, severity ErrorSeverity, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: severity,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError starts a fatal error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return newBuilder(category, SeverityFatal, message).WithCause(err)
}

// WithCause sets the wrapped error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

// Fatal marks the error as aborting the build.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

// Warning marks the error as one the build can continue past.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// Build returns the error. The builder must not be reused.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	return &e
}

func ConfigError(message string) *ErrorBuilder {
	return newBuilder(CategoryConfig, SeverityFatal, message)
}

func ValidationError(message string) *ErrorBuilder {
	return newBuilder(CategoryValidation, SeverityFatal, message)
}

func FileSystemError(message string) *ErrorBuilder {
	return newBuilder(CategoryFileSystem, SeverityFatal, message)
}

func RenderError(message string) *ErrorBuilder {
	return newBuilder(CategoryRender, SeverityFatal, message)
}

// StructureError reports a malformed page section in rendered output.
func StructureError(message string) *ErrorBuilder {
	return newBuilder(CategoryStructure, SeverityFatal, message)
}

// ProviderError reports a content-service failure. Only fatal when the
// failing call aborts a render.
func ProviderError(message string) *ErrorBuilder {
	return newBuilder(CategoryProvider, SeverityError, message)
}

// HistoryError reports a build ledger failure; builds still succeed.
func HistoryError(message string) *ErrorBuilder {
	return newBuilder(CategoryHistory, SeverityError, message)
}
