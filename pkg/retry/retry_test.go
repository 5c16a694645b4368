package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts() []Option {
	return []Option{
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
		WithJitter(0),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	}, fastOpts()...)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	}, fastOpts()...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	cause := errors.New("still failing")
	calls := 0
	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return Retryable(cause)
	}, fastOpts()...)

	assert.Equal(t, 3, calls)
	// The wrapper is stripped once the budget is spent.
	assert.Equal(t, cause, err)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	cause := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return Permanent(cause)
	}, fastOpts()...)

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err)
}

func TestDoDoesNotRetryPlainErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return errors.New("unclassified")
	}, fastOpts()...)

	// Without a RetryIf, only RetryableError is retried.
	assert.Equal(t, 1, calls)
	assert.Error(t, err)
}

func TestDoCustomRetryIf(t *testing.T) {
	calls := 0
	opts := append(fastOpts(), WithRetryIf(func(err error) bool {
		return err.Error() == "transient"
	}))

	err := Do(context.Background(), func(_ context.Context) error {
		calls++
		return errors.New("transient")
	}, opts...)

	assert.Equal(t, 3, calls)
	assert.Error(t, err)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, func(_ context.Context) error {
		calls++
		cancel()
		return Retryable(errors.New("transient"))
	}, WithMaxAttempts(5), WithInitialDelay(time.Second), WithJitter(0))

	assert.Equal(t, 1, calls)
	assert.Error(t, err)
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	opts := append(fastOpts(), WithOnRetry(func(attempt int, _ error, _ time.Duration) {
		attempts = append(attempts, attempt)
	}))

	_ = Do(context.Background(), func(_ context.Context) error {
		return Retryable(errors.New("transient"))
	}, opts...)

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	value, err := DoWithData(context.Background(), func(_ context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, Retryable(errors.New("transient"))
		}
		return 42, nil
	}, fastOpts()...)

	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("cause")

	assert.True(t, IsRetryable(Retryable(cause)))
	assert.False(t, IsRetryable(Permanent(cause)))
	assert.False(t, IsRetryable(cause))

	assert.True(t, IsPermanent(Permanent(cause)))
	assert.False(t, IsPermanent(Retryable(cause)))

	assert.ErrorIs(t, Retryable(cause), cause)
	assert.ErrorIs(t, Permanent(cause), cause)
	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))
}

func TestCalculateDelayBackoff(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	assert.Equal(t, 100*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 400*time.Millisecond, r.calculateDelay(3))
	// Capped at the maximum.
	assert.Equal(t, time.Second, r.calculateDelay(10))
}

func TestPresetRetriers(t *testing.T) {
	assert.NotNil(t, EmailRetrier())
	assert.NotNil(t, CloudWatchRetrier())
	assert.NotNil(t, DatabaseRetrier())
}
