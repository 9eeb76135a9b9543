// Package validation provides parameter validation for privileged
// command construction. Every untrusted value is classified by Kind and
// either accepted byte-for-byte or rejected with a machine-readable
// reason; no value is ever transformed, trimmed, or partially
// sanitized on the way through.
package validation

import (
	"errors"
	"fmt"
)

// Kind identifies a parameter class.
type Kind int

const (
	// KindIdentifier is a username/groupname-class token.
	KindIdentifier Kind = iota
	// KindPath is an absolute filesystem path.
	KindPath
	// KindNumeric is an unsigned integer in the UID/GID range.
	KindNumeric
	// KindFreeText is a password- or comment-class value, unrestricted
	// except for NUL bytes and length. It never passes through a shell.
	KindFreeText
	// KindACLEntry is an access control list entry.
	KindACLEntry
)

// String returns the parameter kind name.
func (k Kind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindPath:
		return "path"
	case KindNumeric:
		return "numeric"
	case KindFreeText:
		return "free-text"
	case KindACLEntry:
		return "acl-entry"
	default:
		return "unknown"
	}
}

// Sentinel rejection reasons. Callers distinguish rejections with
// errors.Is against these.
var (
	// ErrEmptyInput indicates a required value was empty.
	ErrEmptyInput = errors.New("empty input")

	// ErrTooLong indicates the value exceeds the kind's length bound.
	ErrTooLong = errors.New("input too long")

	// ErrInvalidFormat indicates the value does not match the kind's
	// grammar or character set.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrPathTraversal indicates a ".." path segment was detected.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrOutOfRange indicates a numeric value outside the permitted range.
	ErrOutOfRange = errors.New("value out of range")
)

// Reason provides structured rejection classification for audit and
// user-facing output.
type Reason string

const (
	// ReasonEmptyInput corresponds to ErrEmptyInput.
	ReasonEmptyInput Reason = "EMPTY_INPUT"

	// ReasonTooLong corresponds to ErrTooLong.
	ReasonTooLong Reason = "TOO_LONG"

	// ReasonInvalidFormat corresponds to ErrInvalidFormat.
	ReasonInvalidFormat Reason = "INVALID_FORMAT"

	// ReasonPathTraversal corresponds to ErrPathTraversal.
	ReasonPathTraversal Reason = "PATH_TRAVERSAL"

	// ReasonOutOfRange corresponds to ErrOutOfRange.
	ReasonOutOfRange Reason = "OUT_OF_RANGE"

	// ReasonUnknown classifies errors that are not validation rejections.
	ReasonUnknown Reason = "UNKNOWN"
)

// reasonFor maps a sentinel to its structured reason.
func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return ReasonEmptyInput
	case errors.Is(err, ErrTooLong):
		return ReasonTooLong
	case errors.Is(err, ErrInvalidFormat):
		return ReasonInvalidFormat
	case errors.Is(err, ErrPathTraversal):
		return ReasonPathTraversal
	case errors.Is(err, ErrOutOfRange):
		return ReasonOutOfRange
	default:
		return ReasonUnknown
	}
}

// Error describes a rejected parameter. The offending value itself is
// not embedded; messages name the field and the violated constraint so
// rejections can be surfaced to an operator without replaying payloads.
type Error struct {
	// Field is the parameter name as the caller knows it.
	Field string

	// Kind is the parameter class that was applied.
	Kind Kind

	// Code is the structured rejection reason.
	Code Reason

	// Err is the sentinel rejection reason.
	Err error

	// Message describes the violated constraint.
	Message string
}

// Error returns the rejection message.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v: %s", e.Field, e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the sentinel reason.
func (e *Error) Unwrap() error {
	return e.Err
}

// reject builds a rejection for the given field and sentinel.
func reject(kind Kind, field string, sentinel error, format string, args ...interface{}) *Error {
	return &Error{
		Field:   field,
		Kind:    kind,
		Code:    reasonFor(sentinel),
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// ReasonOf extracts the structured reason from a rejection, or
// ReasonUnknown if the error is not a validation rejection.
func ReasonOf(err error) Reason {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Code
	}
	return reasonFor(err)
}

// Value validates a raw value against the given kind and returns the
// accepted canonical value. The canonical value is always byte-identical
// to the input; acceptance never rewrites.
func Value(kind Kind, field, raw string) (string, error) {
	switch kind {
	case KindIdentifier:
		return Identifier(field, raw)
	case KindPath:
		return Path(field, raw)
	case KindNumeric:
		return Numeric(field, raw)
	case KindFreeText:
		return FreeText(field, raw)
	case KindACLEntry:
		if _, err := ACLEntry(field, raw); err != nil {
			return "", err
		}
		return raw, nil
	default:
		return "", fmt.Errorf("unknown parameter kind %d", int(kind))
	}
}

// Errors aggregates rejections across the fields of one operation.
type Errors struct {
	Errors []error
}

// Append records a rejection. Nil errors are ignored so callers can
// append unconditionally.
func (e *Errors) Append(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// Err returns the aggregate as an error, or nil when every field passed.
func (e *Errors) Err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error returns the aggregate message.
func (e *Errors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the first rejection.
func (e *Errors) Unwrap() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Is reports whether any rejection matches the target.
func (e *Errors) Is(target error) bool {
	for _, err := range e.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
