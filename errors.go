package peaceagent

import (
	"context"
	"errors"
	"fmt"
)

// Error codes for specific failure types
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeAnalysis        = "ANALYSIS_ERROR"
	ErrCodeToolUnavailable = "TOOL_UNAVAILABLE"
	ErrCodeToolTimeout     = "TOOL_TIMEOUT"
	ErrCodePlanGeneration  = "PLAN_GENERATION_ERROR"
	ErrCodeAssembly        = "ASSEMBLY_ERROR"
	ErrCodeCancelled       = "EXECUTION_CANCELLED"
	ErrCodeTimeout         = "EXECUTION_TIMEOUT"
	ErrCodeCache           = "CACHE_ERROR"
	ErrCodeConfiguration   = "CONFIGURATION_ERROR"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// PeaceError is the error type used across the pipeline. Only validation
// errors cross the pipeline boundary as failures; everything else is absorbed
// into a degraded response by the orchestrator.
type PeaceError struct {
	Code    string // machine-readable code (e.g. ErrCodeToolTimeout)
	Stage   string // pipeline stage where the error occurred
	Message string // human-readable message
	Cause   error  // underlying error, if any
}

// Error implements the error interface.
func (e *PeaceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause, allowing error chaining.
func (e *PeaceError) Unwrap() error {
	return e.Cause
}

// NewError creates a new PeaceError.
func NewError(code, stage, message string, cause error) *PeaceError {
	return &PeaceError{Code: code, Stage: stage, Message: message, Cause: cause}
}

// Specific error constructors

func NewValidationError(stage, message string, cause error) *PeaceError {
	return NewError(ErrCodeValidation, stage, message, cause)
}

func NewAnalysisError(message string, cause error) *PeaceError {
	return NewError(ErrCodeAnalysis, "analyzing", message, cause)
}

func NewToolUnavailableError(stage, toolName string, cause error) *PeaceError {
	return NewError(ErrCodeToolUnavailable, stage, fmt.Sprintf("tool '%s' unavailable", toolName), cause)
}

func NewToolTimeoutError(stage, toolName string) *PeaceError {
	return NewError(ErrCodeToolTimeout, stage, fmt.Sprintf("tool '%s' timed out", toolName), nil)
}

func NewPlanGenerationError(cause error) *PeaceError {
	return NewError(ErrCodePlanGeneration, "planning", "failed to generate action plan", cause)
}

func NewAssemblyError(message string, cause error) *PeaceError {
	return NewError(ErrCodeAssembly, "executing", message, cause)
}

func NewCancelledError(stage string, cause error) *PeaceError {
	msg := "execution cancelled"
	if cause != nil && !errors.Is(cause, context.Canceled) {
		msg = fmt.Sprintf("execution cancelled: %v", cause)
	}
	return NewError(ErrCodeCancelled, stage, msg, cause)
}

func NewTimeoutError(stage string, cause error) *PeaceError {
	return NewError(ErrCodeTimeout, stage, "stage exceeded its time budget", cause)
}

func NewCacheError(stage, operation string, cause error) *PeaceError {
	return NewError(ErrCodeCache, stage, fmt.Sprintf("cache operation '%s' failed", operation), cause)
}

func NewConfigurationError(message string, cause error) *PeaceError {
	return NewError(ErrCodeConfiguration, "initialization", message, cause)
}

func NewInternalError(stage, message string, cause error) *PeaceError {
	return NewError(ErrCodeInternal, stage, message, cause)
}

// IsPeaceError reports whether err is (or wraps) a PeaceError.
func IsPeaceError(err error) bool {
	var pe *PeaceError
	return errors.As(err, &pe)
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code string) bool {
	var pe *PeaceError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
