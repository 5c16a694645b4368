package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errService = errors.New("service unavailable")

func failingCall(_ context.Context) error { return errService }
func okCall(_ context.Context) error      { return nil }

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(context.Background(), okCall))
	}

	assert.True(t, cb.IsClosed())
	assert.Equal(t, 10, cb.Counts().TotalSuccesses)
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3), WithTimeout(time.Hour))

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), failingCall)
		assert.ErrorIs(t, err, errService)
	}

	assert.True(t, cb.IsOpen())

	// Open circuit rejects without calling the operation.
	called := false
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(2),
		WithSuccessThreshold(2),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(2),
	)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), failingCall)
	}
	require.True(t, cb.IsOpen())

	time.Sleep(20 * time.Millisecond)

	// After the timeout the circuit probes; enough successes close it.
	require.NoError(t, cb.Execute(context.Background(), okCall))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(context.Background(), okCall))
	assert.True(t, cb.IsClosed())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(2),
		WithTimeout(10*time.Millisecond),
	)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), failingCall)
	}
	require.True(t, cb.IsOpen())

	time.Sleep(20 * time.Millisecond)

	_ = cb.Execute(context.Background(), failingCall)
	assert.True(t, cb.IsOpen())
}

func TestBreakerStateChangeCallback(t *testing.T) {
	type transition struct{ from, to State }
	var transitions []transition

	cb := New("sms-gateway",
		WithFailureThreshold(1),
		WithTimeout(time.Hour),
		WithOnStateChange(func(name string, from, to State) {
			assert.Equal(t, "sms-gateway", name)
			transitions = append(transitions, transition{from, to})
		}),
	)

	_ = cb.Execute(context.Background(), failingCall)

	require.Len(t, transitions, 1)
	assert.Equal(t, StateClosed, transitions[0].from)
	assert.Equal(t, StateOpen, transitions[0].to)
}

func TestBreakerIsFailureFilter(t *testing.T) {
	benign := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, benign) }),
	)

	// Filtered errors do not trip the circuit.
	_ = cb.Execute(context.Background(), func(_ context.Context) error { return benign })
	assert.True(t, cb.IsClosed())

	_ = cb.Execute(context.Background(), failingCall)
	assert.True(t, cb.IsOpen())
}

func TestBreakerExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithTimeout(time.Hour))
	_ = cb.Execute(context.Background(), failingCall)
	require.True(t, cb.IsOpen())

	fallbackUsed := false
	err := cb.ExecuteWithFallback(context.Background(), okCall, func(_ error) error {
		fallbackUsed = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, fallbackUsed)
}

func TestBreakerReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithTimeout(time.Hour))
	_ = cb.Execute(context.Background(), failingCall)
	require.True(t, cb.IsOpen())

	cb.Reset()
	assert.True(t, cb.IsClosed())
	assert.Equal(t, Counts{}, cb.Counts())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}

func TestPresetBreakers(t *testing.T) {
	assert.Equal(t, "sendgrid", EmailBreaker(nil).Name())
	assert.Equal(t, "cloudwatch-logs", CloudWatchBreaker(nil).Name())
	assert.Equal(t, "database", DatabaseBreaker(nil).Name())
}
