package services

import "errors"

// ErrValidation represents invalid input: malformed filter values, bad date
// ranges, unknown enum values. Mapped to a 400 response; never retried.
var ErrValidation = errors.New("validation error")

// ErrNotFound represents a missing domain entity. Mapped to a 404 response.
// An empty audit history is NOT a not-found condition; it is an empty list.
var ErrNotFound = errors.New("not found")

// ErrConflict represents a uniqueness violation on a domain entity (zone
// name, user email). Audit-number conflicts are retried inside the
// repository and never surface as ErrConflict.
var ErrConflict = errors.New("conflict")

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFoundError checks if an error is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if an error is a uniqueness conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}
