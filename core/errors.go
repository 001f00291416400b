package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// FieldMap returns the field errors keyed by field name; the last error wins on duplicate keys.
func (err ValidationError) FieldMap() map[string]string {
	flds := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

// ConflictKind identifies which uniqueness rule a ConflictError violates.
type ConflictKind string

const (
	SessionConflict   ConflictKind = "session"
	TeacherConflict   ConflictKind = "teacher"
	TimetableConflict ConflictKind = "timetable"
)

// ConflictError is a uniqueness violation detected by the backend.
type ConflictError struct {
	Kind    ConflictKind
	Message string
	Fields  []FieldError
}

func NewConflictError(kind ConflictKind, msg string, flds ...FieldError) error {
	return &ConflictError{Kind: kind, Message: msg, Fields: flds}
}

func (err ConflictError) Error() string {
	return err.Message
}

// UserMessage is the human readable message surfaced for the conflict kind.
func (err ConflictError) UserMessage() string {
	switch err.Kind {
	case TeacherConflict:
		return "teacher conflict: this teacher is already booked at that time"
	case TimetableConflict:
		return "a timetable already exists for this class and academic year"
	default:
		return "session conflict: another session already occupies this slot"
	}
}

// IsConflict reports whether any error in err's chain is a *ConflictError.
func IsConflict(err error) bool {
	var cErr *ConflictError
	return errors.As(err, &cErr)
}

// IsUniquenessMessage reports whether a backend message describes a uniqueness violation.
func IsUniquenessMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// NetworkError is a transport failure or an unexpected server error.
// Local state must be left untouched so that the operation can be retried.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (err NetworkError) Error() string {
	if err.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", err.Op, err.StatusCode, err.Err)
	}
	return fmt.Sprintf("%s: %v", err.Op, err.Err)
}

func (err NetworkError) Unwrap() error { return err.Err }

func IsNetwork(err error) bool {
	var nErr *NetworkError
	return errors.As(err, &nErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
