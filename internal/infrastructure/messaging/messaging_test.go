package messaging

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/domain/shared"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	cfg.Logger = quietLogger()
	return NewInMemoryEventBus(cfg)
}

type baseTestEvent struct {
	shared.BaseEvent
}

func (e baseTestEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

func testEvent(eventType shared.EventType) shared.Event {
	return baseTestEvent{BaseEvent: shared.NewBaseEvent(eventType, "student-1")}
}

// ─────────────────────────────────────────────────────────────────────────────
// Event bus
// ─────────────────────────────────────────────────────────────────────────────

func TestPublishReachesTypedAndCatchAllHandlers(t *testing.T) {
	bus := syncBus()

	var typed, catchAll int
	require.NoError(t, bus.Subscribe(shared.EventCatalogRecomputed, func(shared.Event) error {
		typed++
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		catchAll++
		return nil
	}))

	require.NoError(t, bus.Publish(testEvent(shared.EventCatalogRecomputed)))
	require.NoError(t, bus.Publish(testEvent(shared.EventRiskChanged)))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, catchAll)
}

func TestPublishWithoutHandlersIsNoop(t *testing.T) {
	bus := syncBus()
	assert.NoError(t, bus.Publish(testEvent(shared.EventAlertRaised)))
}

func TestClosedBusRefusesOperations(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(testEvent(shared.EventRiskChanged)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventRiskChanged, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)

	// A second Close is harmless.
	assert.NoError(t, bus.Close())
}

func TestAsyncPublishRunsHandlers(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Logger = quietLogger()
	bus := NewInMemoryEventBus(cfg)

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(2)
	require.NoError(t, bus.Subscribe(shared.EventRiskChanged, func(shared.Event) error {
		count.Add(1)
		wg.Done()
		return nil
	}))

	require.NoError(t, bus.Publish(testEvent(shared.EventRiskChanged)))
	require.NoError(t, bus.Publish(testEvent(shared.EventRiskChanged)))
	wg.Wait()

	assert.Equal(t, int64(2), count.Load())
}

func TestEventBusMetrics(t *testing.T) {
	bus := syncBus()
	handlerErr := errors.New("boom")

	require.NoError(t, bus.Subscribe(shared.EventCatalogRecomputed, func(shared.Event) error { return nil }))
	require.NoError(t, bus.Subscribe(shared.EventRiskChanged, func(shared.Event) error { return handlerErr }))

	require.NoError(t, bus.Publish(testEvent(shared.EventCatalogRecomputed)))
	require.NoError(t, bus.Publish(testEvent(shared.EventRiskChanged)))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, int64(1), snap.HandlerFailures)
	assert.InDelta(t, 0.5, snap.HandlerSuccessRate, 0.001)
}

// ─────────────────────────────────────────────────────────────────────────────
// Dispatcher
// ─────────────────────────────────────────────────────────────────────────────

func testDispatcher(bus shared.EventBus) *Dispatcher {
	cfg := DefaultDispatcherConfig(bus)
	cfg.Logger = quietLogger()
	cfg.RetryConfig = RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	return NewDispatcher(cfg)
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	d := testDispatcher(syncBus())

	attempts := 0
	require.NoError(t, d.RegisterSync(shared.EventRiskChanged, "flaky", func(shared.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, d.Dispatch(testEvent(shared.EventRiskChanged)))
	assert.Equal(t, 3, attempts)

	snap := d.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.RetrySuccesses)
	assert.Equal(t, int64(0), snap.TotalExhausted)
	assert.Equal(t, 0, d.DeadLetterQueue().Size())
}

func TestDispatcherDeadLettersExhaustedEvents(t *testing.T) {
	d := testDispatcher(syncBus())
	cause := errors.New("always failing")

	require.NoError(t, d.RegisterSync(shared.EventAlertRaised, "broken", func(shared.Event) error {
		return cause
	}))

	err := d.Dispatch(testEvent(shared.EventAlertRaised))
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	require.Equal(t, 1, d.DeadLetterQueue().Size())
	entry, ok := d.DeadLetterQueue().Pop()
	require.True(t, ok)
	assert.Equal(t, "broken", entry.HandlerName)
	assert.Equal(t, 3, entry.Attempts) // MaxRetries 2 plus the first try
	assert.ErrorIs(t, entry.Error, cause)

	snap := d.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExhausted)
}

func TestDispatcherEventsWithoutRoutesAreIgnored(t *testing.T) {
	d := testDispatcher(syncBus())
	assert.NoError(t, d.Dispatch(testEvent(shared.EventRiskCleared)))
	assert.Equal(t, int64(0), d.Metrics().Snapshot().TotalDispatched)
}

func TestRecoveryMiddlewareTurnsPanicIntoError(t *testing.T) {
	d := testDispatcher(syncBus())
	d.Use(RecoveryMiddleware(quietLogger()))

	require.NoError(t, d.RegisterSync(shared.EventRiskChanged, "panicky", func(shared.Event) error {
		panic("unexpected nil")
	}))

	err := d.Dispatch(testEvent(shared.EventRiskChanged))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}

func TestDispatcherRunsThroughBus(t *testing.T) {
	bus := syncBus()
	d := testDispatcher(bus)

	var handled atomic.Int64
	require.NoError(t, d.RegisterSync(shared.EventCatalogRecomputed, "counter", func(shared.Event) error {
		handled.Add(1)
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(testEvent(shared.EventCatalogRecomputed)))
	assert.Equal(t, int64(1), handled.Load())

	require.NoError(t, d.Stop())
}

func TestDeadLetterQueueEvictsOldest(t *testing.T) {
	q := NewDeadLetterQueue(2)
	for i, name := range []string{"a", "b", "c"} {
		q.Add(DeadLetterEntry{HandlerName: name, Attempts: i})
	}

	require.Equal(t, 2, q.Size())
	entries := q.Entries()
	assert.Equal(t, "b", entries[0].HandlerName)
	assert.Equal(t, "c", entries[1].HandlerName)
}
