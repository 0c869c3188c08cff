package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors used to classify failures across the application.
// Errors are marked with one of these via the ErrorBuilder and matched with errors.Is.
var (
	ErrNotFound         = errors.New(ErrCodeNotFound)
	ErrAlreadyExists    = errors.New(ErrCodeAlreadyExists)
	ErrVersionConflict  = errors.New(ErrCodeVersionConflict)
	ErrValidation       = errors.New(ErrCodeValidation)
	ErrInvalidOperation = errors.New(ErrCodeInvalidOperation)
	ErrPermissionDenied = errors.New(ErrCodePermissionDenied)
	ErrUnauthenticated  = errors.New(ErrCodeUnauthenticated)
	ErrDatabase         = errors.New(ErrCodeDatabase)
	ErrSystem           = errors.New(ErrCodeSystemError)

	// Renewal taxonomy. Each one is also marked with the generic sentinel
	// that decides its HTTP status.
	ErrInvalidLineItems = errors.New(ErrCodeInvalidLineItems)
	ErrProductNotFound  = errors.New(ErrCodeProductNotFound)

	// maps errors to http status codes
	statusCodeMap = []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrVersionConflict, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeVersionConflict  = "version_conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeUnauthenticated  = "unauthenticated"
	ErrCodeDatabase         = "database_error"
	ErrCodeInvalidLineItems = "invalid_line_items"
	ErrCodeProductNotFound  = "product_not_found"
)

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsDatabase checks if an error is a persistence failure
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsInvalidLineItems checks if pricing rejected its input
func IsInvalidLineItems(err error) bool {
	return errors.Is(err, ErrInvalidLineItems)
}

// IsProductNotFound checks if a referenced product could not be resolved
func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

func HTTPStatusFromErr(err error) int {
	for _, m := range statusCodeMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the first non-empty hint attached to err, falling back to
// the error text. Used where errors are reported to humans outside of HTTP responses.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, hint := range errors.GetAllHints(err) {
		if hint != "" {
			return hint
		}
	}
	return err.Error()
}
