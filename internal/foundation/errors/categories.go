package errors

// ErrorCategory says which part of a build failed.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryRender     ErrorCategory = "render"    // template parse or execution
	CategoryStructure  ErrorCategory = "structure" // malformed page sections
	CategoryProvider   ErrorCategory = "provider"
	CategoryHistory    ErrorCategory = "history"
	CategoryInternal   ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryConfig:     3,
	CategoryFileSystem: 4,
	CategoryRender:     5,
	CategoryStructure:  6,
	CategoryProvider:   7,
	CategoryHistory:    8,
	CategoryInternal:   10,
}

// ExitCode is the process exit status used when a build fails with c.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}

// ErrorSeverity indicates whether a build can continue past an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// Context keys understood by Location and the CLI.
const (
	KeyPath = "path"
	KeyLine = "line"
)

// ErrorContext carries structured details such as the source path.
type ErrorContext map[string]any

// String returns the value for key when it is a string.
func (c ErrorContext) String(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
