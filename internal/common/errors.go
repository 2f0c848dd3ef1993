package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy for the whole backend. ValidationError and AccessDeniedError
// surface to the immediate caller (HTTP response or socket "error" event).
// PersistenceError aborts the operation that needed the durable store.
// DeliveryWarning is recorded for operational visibility and never propagated.

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type AccessDeniedError struct {
	Resource string
}

func (e *AccessDeniedError) Error() string {
	if e.Resource == "" {
		return "access denied"
	}
	return fmt.Sprintf("access denied: %s", e.Resource)
}

type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DeliveryWarning records a failed best-effort delivery leg (live, push or
// email). One instance per failed leg; logged, never returned to the caller
// that triggered the notification.
type DeliveryWarning struct {
	Leg            string
	NotificationID string
	Err            error
}

func (w *DeliveryWarning) Error() string {
	return fmt.Sprintf("delivery warning: %s leg failed for notification %s: %v", w.Leg, w.NotificationID, w.Err)
}

func (w *DeliveryWarning) Unwrap() error { return w.Err }

// ErrNotFound is the storage-agnostic "no such document" sentinel repositories
// return so handlers don't depend on driver error values.
var ErrNotFound = errors.New("not found")

// ErrPushTokenInvalid marks a provider-reported invalid/unregistered device
// token. The fan-out pipeline reacts by deleting the stored token.
var ErrPushTokenInvalid = errors.New("push token invalid or unregistered")

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAccessDenied(err error) bool {
	var ae *AccessDeniedError
	return errors.As(err, &ae)
}

func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func IsPushTokenInvalid(err error) bool {
	return errors.Is(err, ErrPushTokenInvalid)
}

// HTTPStatus maps a service error onto the response code the REST layer
// should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsAuthentication(err):
		return http.StatusUnauthorized
	case IsAccessDenied(err):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
