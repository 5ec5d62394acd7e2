package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Sentinel errors surfaced by the registry and claim services. Handlers map
// these onto HTTP statuses; everything else is treated as a transient store
// error.
var (
	ErrNotFound         = errors.New("not found")
	ErrParentNotFound   = errors.New("parent source not found")
	ErrMaxDepthExceeded = errors.New("maximum hierarchy depth exceeded")
	ErrDuplicateSlug    = errors.New("slug already in use under this parent")
	ErrNotClaimAuthor   = errors.New("claim belongs to another user")
	ErrHasChildren      = errors.New("source still has children")
)

// ValidationError reports invalid caller input on a named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const pgUniqueViolation = "23505"

// isUniqueViolation detects a unique-constraint conflict across the drivers
// we run against: gorm's translated error, a raw postgres error, or sqlite's
// message in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
