package errors

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the publish transaction. Every stage failure is
// classified into exactly one of these before it reaches the user.

var (
	// ErrLocalValidation indicates the submission failed validation before
	// any network call was made
	ErrLocalValidation = errors.New("local validation failed")

	// ErrUpstreamRejection indicates a collaborator answered with a non-2xx
	ErrUpstreamRejection = errors.New("upstream rejection")

	// ErrTransport indicates the HTTP call itself failed (network, DNS, TLS)
	ErrTransport = errors.New("transport error")

	// ErrPartialSuccess indicates a later stage failed after an earlier one
	// durably succeeded and was not (or could not be) compensated
	ErrPartialSuccess = errors.New("partially succeeded")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or invalid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates a conflict with existing data, e.g. a
	// submission whose idempotency key is still being processed
	ErrConflict = errors.New("conflict")
)

// UpstreamError carries the collaborator's identity and whatever detail it
// returned, so the support string shown to the user can include it.
type UpstreamError struct {
	Service    string
	Operation  string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s returned status %d: %s", e.Service, e.Operation, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s returned status %d", e.Service, e.Operation, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamRejection
}

// Upstream creates an UpstreamError for a non-2xx collaborator response
func Upstream(service, operation string, statusCode int, detail string) error {
	return &UpstreamError{Service: service, Operation: operation, StatusCode: statusCode, Detail: detail}
}

// Transport wraps a failed HTTP call
func Transport(service, operation string, err error) error {
	return fmt.Errorf("%s %s: %v: %w", service, operation, err, ErrTransport)
}

// LocalValidationError creates a validation error with field context
func LocalValidationError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrLocalValidation)
}

// PartialSuccessError marks a failure that left earlier writes in place.
// SupportRef identifies the surviving records so support can reconcile them.
func PartialSuccessError(stage, supportRef string, cause error) error {
	return fmt.Errorf("stage %s failed (ref %s): %v: %w", stage, supportRef, cause, ErrPartialSuccess)
}

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// AsUpstream extracts an UpstreamError from an error chain, if present
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
