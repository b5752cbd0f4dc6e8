package apperr

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for the error kinds the core surfaces. Callers match with
// errors.Is (or the Is* helpers below); the HTTP layer maps them to status
// codes via HTTPStatusFromErr.
var (
	ErrUnauthenticated     = newSentinel(CodeUnauthenticated, "not authenticated")
	ErrNotFound            = newSentinel(CodeNotFound, "resource not found")
	ErrInvalidState        = newSentinel(CodeInvalidState, "operation not allowed in current state")
	ErrReferentialConflict = newSentinel(CodeReferentialConflict, "resource is still referenced")
	ErrValidation          = newSentinel(CodeValidation, "validation error")
	ErrDatabase            = newSentinel(CodeDatabase, "database error")

	statusCodeMap = map[error]int{
		ErrUnauthenticated:     http.StatusUnauthorized,
		ErrNotFound:            http.StatusNotFound,
		ErrInvalidState:        http.StatusConflict,
		ErrReferentialConflict: http.StatusConflict,
		ErrValidation:          http.StatusBadRequest,
		ErrDatabase:            http.StatusInternalServerError,
	}
)

const (
	CodeUnauthenticated     = "unauthenticated"
	CodeNotFound            = "not_found"
	CodeInvalidState        = "invalid_state"
	CodeReferentialConflict = "referential_conflict"
	CodeValidation          = "validation_error"
	CodeDatabase            = "database_error"
)

// Error is the domain error type carrying a machine-readable code.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two taxonomy errors by code so that wrapped errors marked with a
// sentinel compare equal to it.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return errors.Is(e.Err, target)
	}
	return e.Code == t.Code
}

func newSentinel(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Code extracts the taxonomy code from err, or CodeDatabase when err carries
// no recognisable code (unexpected failures are reported as storage faults).
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for sentinel := range statusCodeMap {
		if errors.Is(err, sentinel) {
			return sentinel.(*Error).Code
		}
	}
	return CodeDatabase
}

func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsInvalidState(err error) bool    { return errors.Is(err, ErrInvalidState) }
func IsReferentialConflict(err error) bool {
	return errors.Is(err, ErrReferentialConflict)
}
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// HTTPStatusFromErr maps a taxonomy error to its HTTP status code.
func HTTPStatusFromErr(err error) int {
	for sentinel, status := range statusCodeMap {
		if errors.Is(err, sentinel) {
			return status
		}
	}
	return http.StatusInternalServerError
}
