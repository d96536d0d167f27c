package errors

import (
	"fmt"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryManifest represents pipeline manifest parsing errors
	ErrorCategoryManifest ErrorCategory = "MANIFEST"
	// ErrorCategoryValidation represents input validation errors
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	// ErrorCategoryGraph represents dependency graph structure errors
	ErrorCategoryGraph ErrorCategory = "GRAPH"
	// ErrorCategoryExecution represents pipeline execution errors
	ErrorCategoryExecution ErrorCategory = "EXECUTION"
	// ErrorCategoryConfiguration represents configuration errors
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
)

// Common error codes
const (
	CodeManifestParse   = "001"
	CodeManifestInvalid = "002"

	CodeGraphMultipleProducers = "001"
	CodeGraphCycle             = "002"
	CodeGraphSelfDependency    = "003"
	CodeGraphUnknownTask       = "004"
	CodeGraphDefinition        = "005"

	CodeExecutionFailed  = "001"
	CodeExecutionTimeout = "002"
)

// PipelineError is a structured error with context and troubleshooting
// information, intended for the CLI boundary. The graph engine itself
// returns plain typed errors; commands wrap them here before display.
type PipelineError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Operation       string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nOperation: %s", e.Operation))
	}

	if len(e.Context) > 0 {
		sb.WriteString("\nContext:")
		for key, value := range e.Context {
			sb.WriteString(fmt.Sprintf("\n  %s: %v", key, value))
		}
	}

	if len(e.Troubleshooting) > 0 {
		sb.WriteString("\nTroubleshooting:")
		for i, step := range e.Troubleshooting {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error: %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *PipelineError) Unwrap() error {
	return e.OriginalError
}

// NewPipelineError creates a new structured error
func NewPipelineError(category ErrorCategory, code, message, operation string) *PipelineError {
	return &PipelineError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithContext adds context information to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *PipelineError) WithTroubleshooting(steps ...string) *PipelineError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError attaches the underlying error
func (e *PipelineError) WithOriginalError(err error) *PipelineError {
	e.OriginalError = err
	return e
}

// NewManifestError creates a new manifest-related error
func NewManifestError(code, message, operation string) *PipelineError {
	return NewPipelineError(ErrorCategoryManifest, code, message, operation)
}

// NewGraphError creates a new graph structure error
func NewGraphError(code, message, operation string) *PipelineError {
	return NewPipelineError(ErrorCategoryGraph, code, message, operation)
}

// NewValidationError creates a new validation error
func NewValidationError(code, message, operation string) *PipelineError {
	return NewPipelineError(ErrorCategoryValidation, code, message, operation)
}

// NewExecutionError creates a new execution error
func NewExecutionError(code, message, operation string) *PipelineError {
	return NewPipelineError(ErrorCategoryExecution, code, message, operation)
}

// IsUserError determines if an error is due to user input/configuration
func IsUserError(err error) bool {
	if perr, ok := err.(*PipelineError); ok {
		return perr.Category == ErrorCategoryValidation ||
			perr.Category == ErrorCategoryManifest ||
			perr.Category == ErrorCategoryConfiguration
	}
	return false
}

// GetErrorCode extracts the error code for reporting
func GetErrorCode(err error) string {
	if perr, ok := err.(*PipelineError); ok {
		return fmt.Sprintf("%s-%s", perr.Category, perr.Code)
	}
	return "UNKNOWN"
}
