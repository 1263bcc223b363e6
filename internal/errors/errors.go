// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service layer. Repositories and services wrap
// these with context via %w so callers can branch with errors.Is.
var (
	// ErrInvalidArgument covers malformed input: self-swipe, self-block,
	// unparsable ids.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFilter covers feed filter bounds violations
	// (minAge > maxAge, minDistance > maxDistance, out-of-range values).
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrNotFound covers missing users/records.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers storage-level uniqueness violations surfaced to the
	// caller: duplicate swipe on the same pair, duplicate block, already matched.
	ErrConflict = errors.New("conflict")

	// ErrForbidden covers actions the caller is not entitled to perform,
	// e.g. a liked-you action against a user who never liked the caller.
	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable covers unreachable backing stores; retryable.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidArgument wraps ErrInvalidArgument with a message.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// InvalidFilter wraps ErrInvalidFilter with a message.
func InvalidFilter(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, msg)
}

// NotFound wraps ErrNotFound with a message.
func NotFound(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

// Conflict wraps ErrConflict with a message.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// Forbidden wraps ErrForbidden with a message.
func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// StoreUnavailable wraps ErrStoreUnavailable around an infra error.
func StoreUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
