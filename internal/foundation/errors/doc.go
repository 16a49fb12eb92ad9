// Package errors provides the classified error type used across pagesmith.
//
// Every fatal condition of a build (bad configuration, unreadable sources,
// template failures, malformed page sections) is reported as a ClassifiedError
// so the CLI can pick an exit code and log level without string matching.
//
// Example usage:
//
//	err := errors.RenderError("template execution failed").
//		WithContext("path", "index.html").
//		WithCause(execErr).
//		Build()
//
// Location (path:line) is taken from the KeyPath and KeyLine context entries.
package errors
