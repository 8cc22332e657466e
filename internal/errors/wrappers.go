package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of host-level failure
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	FileSystemErrorCode
	ConfigurationErrorCode
	ModuleErrorCode
	GenerationErrorCode
	TemplateErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case FileSystemErrorCode:
		return "FileSystemError"
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case ModuleErrorCode:
		return "ModuleError"
	case GenerationErrorCode:
		return "GenerationError"
	case TemplateErrorCode:
		return "TemplateError"
	default:
		return "UnknownError"
	}
}

// BaseError is a host-level failure such as an I/O or configuration error.
// User input problems are reported as Diagnostics instead.
type BaseError struct {
	Code        ErrorCode              // type of error
	Message     string                 // error message
	Cause       error                  // underlying error cause
	ContextData map[string]interface{} // additional context information
	Hints       []string               // helpful suggestions for fixing the error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithContext adds context data to the error
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// Wrap creates a new error that wraps another error
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{Code: code, Message: message, Cause: cause}
}

// WrapWithOperation wraps an error with an operation context
func WrapWithOperation(operation, item string, cause error) *BaseError {
	return Wrap(UnknownErrorCode, fmt.Sprintf("failed to %s %s", operation, item), cause)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(path, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, path)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("path", path).
		WithContext("operation", operation)
}

// WrapModuleError wraps go.mod related errors
func WrapModuleError(path string, cause error) *BaseError {
	return Wrap(ModuleErrorCode, fmt.Sprintf("invalid module file '%s'", path), cause).
		WithContext("path", path)
}

// WrapTemplateError wraps template processing errors
func WrapTemplateError(templateName, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s template '%s'", operation, templateName)
	return Wrap(TemplateErrorCode, message, cause).
		WithContext("template", templateName)
}

// CodeOf returns the code of the first BaseError in the chain
func CodeOf(err error) ErrorCode {
	var base *BaseError
	if errors.As(err, &base) {
		return base.Code
	}
	return UnknownErrorCode
}

// AsDiagnostics extracts every diagnostic carried by err
func AsDiagnostics(err error) (Diagnostics, bool) {
	var list Diagnostics
	if errors.As(err, &list) {
		return list, true
	}
	var single *Diagnostic
	if errors.As(err, &single) {
		return Diagnostics{single}, true
	}
	return nil, false
}
