package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryTransientThenSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := WithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &Error{Op: "payout.create", Code: "rate_limit", Transient: true, Err: errors.New("slow down")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryPermanentFailsFast(t *testing.T) {
	t.Parallel()

	calls := 0
	permanent := &Error{Op: "payout.create", Code: "account_invalid", Transient: false, Err: errors.New("no such account")}
	err := WithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})
	assert.Equal(t, 1, calls)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "account_invalid", gwErr.Code)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := WithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return &Error{Op: "charge.create", Code: "timeout", Transient: true, Err: errors.New("deadline")}
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTransient(&Error{Transient: true}))
	assert.False(t, IsTransient(&Error{Transient: false}))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("plain")))
}
