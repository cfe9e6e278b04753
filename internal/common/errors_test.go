package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcourtner/leadpipe/internal/service"
)

func TestUserErrorUnwrap(t *testing.T) {
	err := NewUserError("prospect cannot be moved", ErrDNCViolation)

	assert.ErrorIs(t, err, ErrDNCViolation)
	assert.Contains(t, err.Error(), "prospect cannot be moved")

	var userErr *UserError
	require.True(t, errors.As(err, &userErr))
	assert.Equal(t, "prospect cannot be moved", userErr.UserMessage)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "storage busy", err: ErrStorageBusy, want: true},
		{name: "wrapped storage busy", err: fmt.Errorf("op: %w", ErrStorageBusy), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "retryable flag", err: &RetryableError{Err: errors.New("flaky"), Retryable: true}, want: true},
		{name: "non-retryable flag", err: &RetryableError{Err: errors.New("broken"), Retryable: false}, want: false},
		{name: "dnc violation", err: ErrDNCViolation, want: false},
		{name: "dnc inside user error", err: NewUserError("blocked", ErrDNCViolation), want: false},
		{name: "invalid transition", err: ErrInvalidTransition, want: false},
		{name: "validation", err: ErrValidation, want: false},
		{name: "not found", err: ErrNotFound, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	opts := service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries busy then succeeds", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return ErrStorageBusy
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return ErrStorageBusy
		}, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 3, calls)
	})

	t.Run("dnc violation fails immediately", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return NewUserError("blocked", ErrDNCViolation)
		}, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDNCViolation)
		assert.Equal(t, 1, calls, "non-retryable errors must not be retried")
	})
}
