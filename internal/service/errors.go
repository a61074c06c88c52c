package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/sports-marketplace/internal/repository"
)

// NotFoundError means a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// BusinessError means a precondition of the operation does not hold:
// the entity is in the wrong state, or the operation would duplicate
// something that may exist only once.
type BusinessError struct {
	Msg string
	Err error
}

func (e BusinessError) Error() string {
	if e.Msg == "" {
		return "business rule violation"
	}
	return e.Msg
}

func (e BusinessError) Unwrap() error { return e.Err }

// ForbiddenError means the caller has no authority over the resource.
type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

func (e ForbiddenError) Unwrap() error { return repository.ErrForbidden }

// PaymentError means the payment gateway declined the charge.
type PaymentError struct {
	Msg string
	Err error
}

func (e PaymentError) Error() string {
	if e.Msg == "" {
		return "payment failed"
	}
	return "payment failed: " + e.Msg
}

func (e PaymentError) Unwrap() error { return e.Err }

// ValidationError means the input itself is malformed.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func IsNotFound(err error) bool {
	var e NotFoundError
	return errors.As(err, &e)
}

func IsBusiness(err error) bool {
	var e BusinessError
	return errors.As(err, &e)
}

func IsForbidden(err error) bool {
	var e ForbiddenError
	return errors.As(err, &e)
}

func IsPayment(err error) bool {
	var e PaymentError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e ValidationError
	return errors.As(err, &e)
}

// ErrInvalidCredentials is returned by Authenticate for an unknown email
// or a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// lookup maps repository.ErrNotFound to a NotFoundError for resource.
func lookup(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFoundError{Resource: resource, Err: err}
	}
	return err
}
