// Package errs defines the error taxonomy shared by services and the HTTP
// layer. Callers classify errors with the Is* predicates instead of matching
// on message text.
package errs

import "errors"

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func NewConflictError(msg string) error {
	return &ConflictError{Msg: msg}
}

func IsConflictError(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func NewNotFoundError(msg string) error {
	return &NotFoundError{Msg: msg}
}

func IsNotFoundError(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string { return e.Msg }

func NewForbiddenError(msg string) error {
	return &ForbiddenError{Msg: msg}
}

func IsForbiddenError(err error) bool {
	var f *ForbiddenError
	return errors.As(err, &f)
}

// StorageUnavailableError signals that the document store could not be
// reached. The registry degrades on it; every other path surfaces a 500.
type StorageUnavailableError struct {
	Msg string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func NewStorageUnavailableError(msg string, err error) error {
	return &StorageUnavailableError{Msg: msg, Err: err}
}

func IsStorageUnavailableError(err error) bool {
	var s *StorageUnavailableError
	return errors.As(err, &s)
}
