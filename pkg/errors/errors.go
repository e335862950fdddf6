package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by the cart packages.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal error")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Kind describes how a class of errors is reported to API clients.
type Kind struct {
	Code   string
	Status int
	// Message is shown when the error carries no message of its own. Empty
	// means the error text itself is safe to show.
	Message string
}

var (
	kindNotFound    = Kind{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: "resource not found"}
	kindInvalid     = Kind{Code: "INVALID_INPUT", Status: http.StatusBadRequest}
	kindConflict    = Kind{Code: "CONFLICT", Status: http.StatusConflict}
	kindUnavailable = Kind{Code: "SERVICE_UNAVAILABLE", Status: http.StatusServiceUnavailable, Message: "service unavailable"}
	kindInternal    = Kind{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError, Message: "an internal error occurred"}
)

// Order matters: the first sentinel matched by errors.Is wins.
var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, kindNotFound},
	{ErrConflict, kindConflict},
	{ErrInvalidInput, kindInvalid},
	{ErrServiceUnavail, kindUnavailable},
	{ErrInternal, kindInternal},
}

// AppError is an error carrying an API code and the HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(k Kind, message string, err error) *AppError {
	return &AppError{Code: k.Code, Message: message, Status: k.Status, Err: err}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return newAppError(kindNotFound, fmt.Sprintf("%s %q not found", resource, id), ErrNotFound)
}

// InvalidInput reports a rejected argument.
func InvalidInput(message string) *AppError {
	return newAppError(kindInvalid, message, ErrInvalidInput)
}

// Conflict reports a write that lost against concurrent state.
func Conflict(message string) *AppError {
	return newAppError(kindConflict, message, ErrConflict)
}

// Unavailable reports a dependency that cannot serve right now. The result
// matches both ErrServiceUnavail and cause under errors.Is.
func Unavailable(message string, cause error) *AppError {
	err := ErrServiceUnavail
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrServiceUnavail, cause)
	}
	return newAppError(kindUnavailable, message, err)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Classify returns the Kind for err and the message clients should see.
// An *AppError anywhere in the chain decides; otherwise the wrapped sentinel
// does, and anything unrecognised is an internal error with a generic message.
func Classify(err error) (Kind, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Kind{Code: appErr.Code, Status: appErr.Status}, appErr.Message
	}
	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			if s.kind.Message != "" {
				return s.kind, s.kind.Message
			}
			return s.kind, err.Error()
		}
	}
	return kindInternal, kindInternal.Message
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	k, _ := Classify(err)
	return k.Status
}
