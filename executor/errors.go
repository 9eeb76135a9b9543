package executor

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions.
var (
	// ErrToolUnavailable indicates the wrapped tool is not installed.
	ErrToolUnavailable = errors.New("tool unavailable")

	// ErrPermissionDenied indicates the process cannot reach the
	// required privilege.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTargetNotFound indicates the target entity does not exist.
	ErrTargetNotFound = errors.New("target not found")

	// ErrTargetAlreadyExists indicates the target entity exists.
	ErrTargetAlreadyExists = errors.New("target already exists")

	// ErrExecutionFailed indicates the wrapped tool exited non-zero.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrTimeout indicates command timed out.
	ErrTimeout = errors.New("command timed out")

	// ErrRateLimited indicates rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidCommand indicates invalid command configuration.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrExecutorShutdown indicates executor is shutdown.
	ErrExecutorShutdown = errors.New("executor shutdown")
)

// ErrorCode provides structured error classification.
type ErrorCode string

const (
	// ErrCodeToolUnavailable indicates a missing wrapped tool.
	ErrCodeToolUnavailable ErrorCode = "TOOL_UNAVAILABLE"

	// ErrCodePermissionDenied indicates a privilege failure.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrCodeTargetNotFound indicates a missing target entity.
	ErrCodeTargetNotFound ErrorCode = "TARGET_NOT_FOUND"

	// ErrCodeTargetExists indicates an already-present target entity.
	ErrCodeTargetExists ErrorCode = "TARGET_ALREADY_EXISTS"

	// ErrCodeValidationFailed indicates validation failure.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeExecutionFailed indicates execution failure.
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// ErrCodeTimeout indicates timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeRateLimited indicates rate limiting.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeInternalError indicates internal error.
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ExecutionError provides detailed error information.
type ExecutionError struct {
	// Op is the operation that failed.
	Op string

	// Tool is the wrapped tool being invoked.
	Tool string

	// Err is the underlying error.
	Err error

	// Code is the structured error code.
	Code ErrorCode

	// Details provides human-readable details. Details never echo a
	// rejected raw value.
	Details string

	// Suggestion provides a suggested fix.
	Suggestion string

	// ExitCode is the wrapped tool's exit code, when it ran.
	ExitCode int

	// Stderr is the wrapped tool's stderr, for diagnosis.
	Stderr string
}

// Error returns the error message. The tool's stderr is appended so
// the operator sees the wrapped tool's own diagnosis.
func (e *ExecutionError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(": ")
	sb.WriteString(e.Tool)
	sb.WriteString(": ")
	if e.Details != "" {
		sb.WriteString(e.Details)
	} else if e.Err != nil {
		sb.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(e.Stderr))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Error constructors for consistent error creation.

// NewToolUnavailableError creates a missing-tool error.
func NewToolUnavailableError(tool, binary string) error {
	return &ExecutionError{
		Op:         "probe",
		Tool:       tool,
		Err:        ErrToolUnavailable,
		Code:       ErrCodeToolUnavailable,
		Details:    fmt.Sprintf("binary not found at %s", binary),
		Suggestion: "install the package providing " + tool,
	}
}

// NewPermissionDeniedError creates a privilege failure error.
func NewPermissionDeniedError(tool, details string) error {
	return &ExecutionError{
		Op:         "privilege",
		Tool:       tool,
		Err:        ErrPermissionDenied,
		Code:       ErrCodePermissionDenied,
		Details:    details,
		Suggestion: "run as root or configure non-interactive sudo",
	}
}

// NewTargetNotFoundError creates a missing-target error.
func NewTargetNotFoundError(tool, target, stderr string, exitCode int) error {
	return &ExecutionError{
		Op:       "execute",
		Tool:     tool,
		Err:      ErrTargetNotFound,
		Code:     ErrCodeTargetNotFound,
		Details:  fmt.Sprintf("%s does not exist", target),
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// NewTargetExistsError creates an already-present-target error.
func NewTargetExistsError(tool, target, stderr string, exitCode int) error {
	return &ExecutionError{
		Op:       "execute",
		Tool:     tool,
		Err:      ErrTargetAlreadyExists,
		Code:     ErrCodeTargetExists,
		Details:  fmt.Sprintf("%s already exists", target),
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// NewExecutionFailedError creates a non-zero-exit error.
func NewExecutionFailedError(tool string, exitCode int, stderr string) error {
	return &ExecutionError{
		Op:       "execute",
		Tool:     tool,
		Err:      ErrExecutionFailed,
		Code:     ErrCodeExecutionFailed,
		Details:  fmt.Sprintf("exited with code %d", exitCode),
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(tool string, duration string) error {
	return &ExecutionError{
		Op:      "execute",
		Tool:    tool,
		Err:     ErrTimeout,
		Code:    ErrCodeTimeout,
		Details: fmt.Sprintf("execution exceeded timeout of %s", duration),
	}
}

// NewValidationError creates a validation error.
func NewValidationError(tool, field, message string) error {
	return &ExecutionError{
		Op:      "validate",
		Tool:    tool,
		Err:     ErrInvalidCommand,
		Code:    ErrCodeValidationFailed,
		Details: fmt.Sprintf("%s: %s", field, message),
	}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(tool string) error {
	return &ExecutionError{
		Op:         "rate_limit",
		Tool:       tool,
		Err:        ErrRateLimited,
		Code:       ErrCodeRateLimited,
		Details:    "rate limit exceeded",
		Suggestion: "wait before retrying",
	}
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Code
	}
	return ErrCodeInternalError
}
