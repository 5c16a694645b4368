package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

func TestCompositeHealthCheckerAllPassing(t *testing.T) {
	hc := NewCompositeHealthChecker("0.1.0")
	hc.AddCheck("database", NewPingCheck(&fakePinger{}))
	hc.AddCheck("redis", NewPingCheck(&fakePinger{}))

	status := hc.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "All checks passed", status.Message)
	assert.Equal(t, "0.1.0", status.Version)
	require.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["database"].Healthy)
	assert.Equal(t, "OK", status.Checks["database"].Message)
}

func TestCompositeHealthCheckerFailure(t *testing.T) {
	hc := NewCompositeHealthChecker("0.1.0")
	hc.AddCheck("database", NewPingCheck(&fakePinger{}))
	hc.AddCheck("redis", NewPingCheck(&fakePinger{err: errors.New("connection refused")}))

	status := hc.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.Contains(t, status.Message, "redis")
	assert.True(t, status.Checks["database"].Healthy)
	assert.False(t, status.Checks["redis"].Healthy)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}

func TestCompositeHealthCheckerNoChecks(t *testing.T) {
	hc := NewCompositeHealthChecker("0.1.0")

	status := hc.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)
}

func TestCompositeHealthCheckerRemoveCheck(t *testing.T) {
	hc := NewCompositeHealthChecker("0.1.0")
	hc.AddCheck("flaky", NewPingCheck(&fakePinger{err: errors.New("down")}))

	assert.False(t, hc.Check(context.Background()).Healthy)

	hc.RemoveCheck("flaky")
	assert.True(t, hc.Check(context.Background()).Healthy)
}

func TestCompositeHealthCheckerTimeout(t *testing.T) {
	hc := NewCompositeHealthChecker("0.1.0")
	hc.SetTimeout(20 * time.Millisecond)
	hc.AddCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	status := hc.Check(context.Background())
	assert.False(t, status.Healthy)
}

func TestSchedulerCheck(t *testing.T) {
	running := true
	check := NewSchedulerCheck(func() bool { return running })

	assert.NoError(t, check(context.Background()))

	running = false
	err := check(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerStopped)
}
