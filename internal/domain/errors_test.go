package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want StoreErrorKind
	}{
		{"nil", nil, ""},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, StoreErrServer},
		{"out of memory", &pgconn.PgError{Code: "53200"}, StoreErrServer},
		{"system io error", &pgconn.PgError{Code: "58030"}, StoreErrServer},
		{"internal error", &pgconn.PgError{Code: "XX000"}, StoreErrServer},
		{"invalid password", &pgconn.PgError{Code: "28P01"}, StoreErrAuth},
		{"connection failure", &pgconn.PgError{Code: "08006"}, StoreErrNetwork},
		{"constraint violation", &pgconn.PgError{Code: "23505"}, StoreErrUnknown},
		{"deadline exceeded", context.DeadlineExceeded, StoreErrNetwork},
		{"net timeout", &net.DNSError{IsTimeout: true}, StoreErrNetwork},
		{"connection refused text", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), StoreErrNetwork},
		{"plain error", errors.New("boom"), StoreErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStoreError(tt.err))
		})
	}
}

func TestClassifyStoreErrorUnwrapsWrappedErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "57014"}
	wrapped := fmt.Errorf("listing advice: %w", pgErr)
	assert.Equal(t, StoreErrServer, ClassifyStoreError(wrapped))
}

func TestStoreErrorPreservesKindThroughWrapping(t *testing.T) {
	inner := NewStoreError("list advice", &pgconn.PgError{Code: "28000"})
	assert.Equal(t, StoreErrAuth, inner.Kind)

	wrapped := fmt.Errorf("refreshing advice: %w", inner)
	assert.Equal(t, StoreErrAuth, ClassifyStoreError(wrapped))
}

func TestStoreErrorMessage(t *testing.T) {
	err := NewStoreError("upsert advice", errors.New("boom"))
	assert.Contains(t, err.Error(), "upsert advice")
	assert.Contains(t, err.Error(), "UNKNOWN")
	assert.ErrorContains(t, err, "boom")
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("min_score", "must not exceed max_score", 7)
	assert.Contains(t, err.Error(), "min_score")
	assert.Contains(t, err.Error(), "must not exceed max_score")
}

var _ net.Error = (*timeoutError)(nil)

type timeoutError struct{}

func (timeoutError) Error() string   { return "timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyStoreErrorNetError(t *testing.T) {
	var err error = &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}
	assert.Equal(t, StoreErrNetwork, ClassifyStoreError(err))
}
