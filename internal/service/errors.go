package service

import (
	"errors"
	"log/slog"
)

// Error classes. The API layer turns each class into one HTTP status.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal")
	ErrUnavailable  = errors.New("unavailable")
)

// ServiceError is a failure reported to API clients: its class, a stable
// upper-case code such as "UNKNOWN_CHANNEL" and a readable message.
type ServiceError struct {
	Err     error
	Code    string
	Message string
}

func (e *ServiceError) Error() string { return e.Message }
func (e *ServiceError) Unwrap() error { return e.Err }

// NewError creates a ServiceError of the given class.
func NewError(class error, code, message string) *ServiceError {
	return &ServiceError{Err: class, Code: code, Message: message}
}

func BadRequest(code, message string) *ServiceError   { return NewError(ErrBadRequest, code, message) }
func Unauthorized(code, message string) *ServiceError { return NewError(ErrUnauthorized, code, message) }
func Forbidden(code, message string) *ServiceError    { return NewError(ErrForbidden, code, message) }
func NotFound(code, message string) *ServiceError     { return NewError(ErrNotFound, code, message) }
func Conflict(code, message string) *ServiceError     { return NewError(ErrConflict, code, message) }
func Internal(code, message string) *ServiceError     { return NewError(ErrInternal, code, message) }
func Unavailable(code, message string) *ServiceError  { return NewError(ErrUnavailable, code, message) }

// internalError logs a repository or infrastructure failure and returns the
// generic error clients see in its place. op names the failed call.
func internalError(op string, cause error) *ServiceError {
	slog.Error("service: internal error", "op", op, "error", cause)
	return Internal("INTERNAL", "internal server error")
}

func notAMember() *ServiceError {
	return Forbidden("NOT_A_MEMBER", "you are not a member of this channel")
}

func missingPermissions(message string) *ServiceError {
	return Forbidden("MISSING_PERMISSIONS", message)
}

func unknownUser() *ServiceError {
	return NotFound("UNKNOWN_USER", "user not found")
}
