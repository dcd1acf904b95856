package errs

import (
	"errors"
	"fmt"
)

var (
	Unauthenticated = NewUnauthenticatedError("unauthenticated")
)

type Error struct {
	Kind    Kind
	Message string
	Field   *string
}

type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindNotFound         Kind = "not_found"
	KindAlreadyExists    Kind = "already_exists"
	KindPermissionDenied Kind = "permission_denied"
	KindUnauthenticated  Kind = "unauthenticated"
	KindConflict         Kind = "conflict"
	KindUnavailable      Kind = "unavailable"
)

func NewInvalidArgumentError(field, message string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Message: message,
		Field:   &field,
	}
}

func NewNotFoundError(message string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: message,
	}
}

func NewAlreadyExistsError(field, message string) *Error {
	return &Error{
		Kind:    KindAlreadyExists,
		Message: message,
		Field:   &field,
	}
}

func NewPermissionDeniedError(message string) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Message: message,
	}
}

func NewUnauthenticatedError(message string) *Error {
	return &Error{
		Kind:    KindUnauthenticated,
		Message: message,
	}
}

// NewConflictError denotes a conditional write that lost to a concurrent
// writer, such as a queue pair claim racing another matcher.
func NewConflictError(message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: message,
	}
}

// NewUnavailableError denotes an underlying store failure that the caller
// may retry.
func NewUnavailableError(message string) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Message: message,
	}
}

func (e *Error) Error() string {
	if e.Field != nil {
		return fmt.Sprintf("%s (field: %s): %s", e.Kind, *e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func IsNotFound(err error) bool {
	return isKind(err, KindNotFound)
}

func IsAlreadyExists(err error) bool {
	return isKind(err, KindAlreadyExists)
}

func IsPermissionDenied(err error) bool {
	return isKind(err, KindPermissionDenied)
}

func IsConflict(err error) bool {
	return isKind(err, KindConflict)
}

func IsUnavailable(err error) bool {
	return isKind(err, KindUnavailable)
}

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
