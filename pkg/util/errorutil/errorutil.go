// Package errorutil carries the error vocabulary of the portal. Services
// return *DomainError values; the HTTP layer renders them as
// {"error":{code,message,details}} with the attached status.
package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeValidation:   http.StatusBadRequest,
	CodeNotFound:     http.StatusNotFound,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeConflict:     http.StatusConflict,
	CodeInternal:     http.StatusInternalServerError,
}

// DomainError is a failure with a stable code clients can branch on. Err,
// when set, is the underlying cause and is never shown to clients.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError builds an error with an explicit status, for codes raised
// outside this package such as fiber routing errors.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func newCoded(code, message string, details map[string]any) *DomainError {
	return NewDomainError(code, message, statusByCode[code], details)
}

func NewValidationError(message string, details map[string]any) error {
	return newCoded(CodeValidation, message, details)
}

// NewNotFound names the missing resource; details always render as an object.
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return newCoded(CodeNotFound, resource+" not found", details)
}

func NewUnauthorized(message string) error {
	return newCoded(CodeUnauthorized, message, nil)
}

// NewForbidden reports a permission denial: the actor is neither the ticket
// creator nor an administrator.
func NewForbidden(message string) error {
	return newCoded(CodeForbidden, message, nil)
}

func NewConflict(message string, details map[string]any) error {
	return newCoded(CodeConflict, message, details)
}

// NewInternalError hides cause behind a generic message.
func NewInternalError(cause error) error {
	e := newCoded(CodeInternal, "internal server error", nil)
	e.Err = cause
	return e
}

// ToDomainError finds the DomainError in err's chain. sql.ErrNoRows, which
// pgx.ErrNoRows also matches, becomes NOT_FOUND; anything else is internal.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, sql.ErrNoRows):
		return newCoded(CodeNotFound, "resource not found", map[string]any{})
	default:
		de = newCoded(CodeInternal, "internal server error", nil)
		de.Err = err
		return de
	}
}

// HasCode reports whether err carries the given DomainError code.
func HasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}
