package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// StoreErrorKind classifies a persistence failure for retry and fallback
// decisions: SERVER failures are retried with backoff, AUTH failures get one
// session refresh, NETWORK and UNKNOWN failures degrade immediately.
type StoreErrorKind string

const (
	StoreErrServer  StoreErrorKind = "SERVER"
	StoreErrAuth    StoreErrorKind = "AUTH"
	StoreErrNetwork StoreErrorKind = "NETWORK"
	StoreErrUnknown StoreErrorKind = "UNKNOWN"
)

// StoreError wraps a persistence failure with its classification and the
// operation that produced it.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with its classified kind.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{
		Kind: ClassifyStoreError(err),
		Op:   op,
		Err:  err,
	}
}

// ClassifyStoreError maps an error from the persistence layer onto the retry
// taxonomy. Postgres SQLSTATE classes: 28 is invalid authorization, 08 is a
// connection exception, 53/57/58 and XX are server-side resource, operator
// and internal failures.
func ClassifyStoreError(err error) StoreErrorKind {
	if err == nil {
		return ""
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "28":
			return StoreErrAuth
		case "08":
			return StoreErrNetwork
		case "53", "57", "58", "XX":
			return StoreErrServer
		}
		return StoreErrUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return StoreErrNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return StoreErrNetwork
	}

	// pgx reports dial failures as plain connect errors in some paths.
	if strings.Contains(err.Error(), "connection refused") {
		return StoreErrNetwork
	}

	return StoreErrUnknown
}

// ValidationError represents input validation failures at the admin or
// assessment boundary.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
