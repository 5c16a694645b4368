package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/edualert/edualert/internal/domain/shared"
)

// Dispatcher sits between the event bus and the application handlers.
// It subscribes to every event, routes by type, and gives each handler
// panic recovery, a timeout, bounded retries with backoff, and a dead
// letter queue for events that exhaust their attempts. Notification
// side effects (parent mails, SMS) go through here, so a transient
// failure in a handler does not silently drop a risk transition.
type Dispatcher struct {
	eventBus    shared.EventBus
	routes      map[shared.EventType][]HandlerRegistration
	middlewares []Middleware
	retry       RetryConfig
	deadLetters *DeadLetterQueue
	logger      *slog.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	sem         chan struct{}
	metrics     *DispatcherMetrics
}

// HandlerRegistration describes one handler attached to an event type.
type HandlerRegistration struct {
	Name       string
	Handler    shared.EventHandler
	Async      bool
	MaxRetries int
	Timeout    time.Duration
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// EventBus is the bus the dispatcher attaches to.
	EventBus shared.EventBus

	// WorkerPoolSize bounds concurrent handler executions.
	WorkerPoolSize int

	// RetryConfig controls the per-handler retry budget and backoff.
	RetryConfig RetryConfig

	// EnableDeadLetterQueue keeps events whose handlers exhausted
	// their retries, so operators can inspect what was lost.
	EnableDeadLetterQueue bool

	// DeadLetterQueueSize caps the queue; the oldest entry is evicted
	// when full.
	DeadLetterQueueSize int

	// Logger receives routing and retry logs.
	Logger *slog.Logger
}

// RetryConfig controls handler retries.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the retry defaults for event handlers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DefaultDispatcherConfig returns the defaults used by the worker.
func DefaultDispatcherConfig(eventBus shared.EventBus) DispatcherConfig {
	return DispatcherConfig{
		EventBus:              eventBus,
		WorkerPoolSize:        10,
		RetryConfig:           DefaultRetryConfig(),
		EnableDeadLetterQueue: true,
		DeadLetterQueueSize:   1000,
	}
}

// NewDispatcher creates a dispatcher; call Start to attach it to the bus.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		eventBus: config.EventBus,
		routes:   make(map[shared.EventType][]HandlerRegistration),
		retry:    config.RetryConfig,
		logger:   config.Logger,
		ctx:      ctx,
		cancel:   cancel,
		sem:      make(chan struct{}, config.WorkerPoolSize),
		metrics:  NewDispatcherMetrics(),
	}
	if config.EnableDeadLetterQueue {
		d.deadLetters = NewDeadLetterQueue(config.DeadLetterQueueSize)
	}
	return d
}

// RegisterHandler attaches a handler with explicit settings.
func (d *Dispatcher) RegisterHandler(eventType shared.EventType, reg HandlerRegistration) error {
	if reg.Handler == nil {
		return errors.New("handler cannot be nil")
	}
	if reg.Name == "" {
		reg.Name = fmt.Sprintf("handler-%d", time.Now().UnixNano())
	}
	if reg.MaxRetries <= 0 {
		reg.MaxRetries = d.retry.MaxRetries
	}
	if reg.Timeout <= 0 {
		reg.Timeout = 30 * time.Second
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.routes[eventType] = append(d.routes[eventType], reg)
	d.logger.Debug("handler registered",
		"event_type", eventType,
		"handler", reg.Name,
		"async", reg.Async,
	)
	return nil
}

// Register attaches an async handler with default retry settings.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.RegisterHandler(eventType, HandlerRegistration{
		Name:    name,
		Handler: handler,
		Async:   true,
	})
}

// RegisterSync attaches a handler whose errors propagate to the publisher.
func (d *Dispatcher) RegisterSync(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.RegisterHandler(eventType, HandlerRegistration{
		Name:    name,
		Handler: handler,
		Async:   false,
	})
}

// Middleware wraps handler execution; applied in registration order.
type Middleware func(shared.EventHandler) shared.EventHandler

// Use appends a middleware to the chain.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// RecoveryMiddleware turns handler panics into errors so one broken
// handler cannot take the dispatch loop down.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs every handler run with its duration.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			if err != nil {
				logger.Error("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", time.Since(start),
					"error", err,
				)
				return err
			}
			logger.Debug("handler completed",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"duration", time.Since(start),
			)
			return nil
		}
	}
}

// Start subscribes the dispatcher to every event on the bus.
func (d *Dispatcher) Start() error {
	return d.eventBus.SubscribeAll(func(event shared.Event) error {
		return d.dispatch(event)
	})
}

// Dispatch routes an event directly, bypassing the bus. Used in tests
// and for replaying dead letters.
func (d *Dispatcher) Dispatch(event shared.Event) error {
	return d.dispatch(event)
}

func (d *Dispatcher) dispatch(event shared.Event) error {
	d.mu.RLock()
	regs := d.routes[event.EventType()]
	middlewares := d.middlewares
	d.mu.RUnlock()

	if len(regs) == 0 {
		return nil
	}

	d.metrics.RecordDispatch(event.EventType())

	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex

	for _, reg := range regs {
		if reg.Async {
			wg.Add(1)
			go func(r HandlerRegistration) {
				defer wg.Done()
				_ = d.runWithRetry(event, r, middlewares)
			}(reg)
			continue
		}
		if err := d.runWithRetry(event, reg, middlewares); err != nil {
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
		}
	}
	wg.Wait()

	return firstErr
}

func (d *Dispatcher) runWithRetry(event shared.Event, reg HandlerRegistration, middlewares []Middleware) error {
	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-d.ctx.Done():
		return d.ctx.Err()
	}

	handler := reg.Handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	var lastErr error
	for attempt := 0; attempt <= reg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := d.backoffFor(attempt)
			d.logger.Debug("retrying handler",
				"handler", reg.Name,
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(backoff):
			}
		}

		start := time.Now()
		err := d.runWithTimeout(handler, event, reg.Timeout)
		d.metrics.RecordExecution(event.EventType(), time.Since(start), err == nil)

		if err == nil {
			if attempt > 0 {
				d.metrics.RecordRetrySuccess()
			}
			return nil
		}

		lastErr = err
		d.logger.Warn("handler attempt failed",
			"handler", reg.Name,
			"attempt", attempt,
			"error", err,
		)
	}

	if d.deadLetters != nil {
		d.deadLetters.Add(DeadLetterEntry{
			Event:       event,
			HandlerName: reg.Name,
			Error:       lastErr,
			Attempts:    reg.MaxRetries + 1,
			FailedAt:    time.Now(),
		})
	}
	d.metrics.RecordExhausted(event.EventType())

	return fmt.Errorf("handler %s exhausted %d attempts: %w", reg.Name, reg.MaxRetries+1, lastErr)
}

func (d *Dispatcher) runWithTimeout(handler shared.EventHandler, event shared.Event, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("handler timeout after %v", timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *Dispatcher) backoffFor(attempt int) time.Duration {
	backoff := float64(d.retry.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= d.retry.BackoffMultiplier
	}
	if backoff > float64(d.retry.MaxBackoff) {
		backoff = float64(d.retry.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Stop cancels in-flight retries and timeouts.
func (d *Dispatcher) Stop() error {
	d.cancel()
	d.logger.Info("dispatcher stopped")
	return nil
}

// Metrics returns the dispatch counters.
func (d *Dispatcher) Metrics() *DispatcherMetrics {
	return d.metrics
}

// DeadLetterQueue returns the queue of exhausted events, or nil.
func (d *Dispatcher) DeadLetterQueue() *DeadLetterQueue {
	return d.deadLetters
}

// DeadLetterEntry records an event whose handler gave up.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue is a bounded FIFO of exhausted events.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry, evicting the oldest when full.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the queue contents.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the number of queued entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Pop removes and returns the oldest entry.
func (q *DeadLetterQueue) Pop() (DeadLetterEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return DeadLetterEntry{}, false
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}

// DispatcherMetrics tracks routing outcomes.
type DispatcherMetrics struct {
	mu sync.RWMutex

	dispatched     map[shared.EventType]int64
	executions     int64
	successes      int64
	failures       int64
	retrySuccesses int64
	exhausted      map[shared.EventType]int64
	duration       time.Duration
}

// NewDispatcherMetrics creates an empty counter set.
func NewDispatcherMetrics() *DispatcherMetrics {
	return &DispatcherMetrics{
		dispatched: make(map[shared.EventType]int64),
		exhausted:  make(map[shared.EventType]int64),
	}
}

// RecordDispatch counts one routed event.
func (m *DispatcherMetrics) RecordDispatch(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched[eventType]++
}

// RecordExecution counts one handler attempt.
func (m *DispatcherMetrics) RecordExecution(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	m.duration += duration
	if success {
		m.successes++
	} else {
		m.failures++
	}
}

// RecordRetrySuccess counts a handler that recovered on a retry.
func (m *DispatcherMetrics) RecordRetrySuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrySuccesses++
}

// RecordExhausted counts an event sent to the dead letter queue.
func (m *DispatcherMetrics) RecordExhausted(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exhausted[eventType]++
}

// Snapshot returns a consistent copy of the counters.
func (m *DispatcherMetrics) Snapshot() DispatcherMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var totalDispatched, totalExhausted int64
	for _, n := range m.dispatched {
		totalDispatched += n
	}
	for _, n := range m.exhausted {
		totalExhausted += n
	}

	avg := time.Duration(0)
	successRate := 1.0
	if m.executions > 0 {
		avg = m.duration / time.Duration(m.executions)
		successRate = float64(m.successes) / float64(m.executions)
	}

	return DispatcherMetricsSnapshot{
		TotalDispatched: totalDispatched,
		TotalExecutions: m.executions,
		TotalFailures:   m.failures,
		RetrySuccesses:  m.retrySuccesses,
		TotalExhausted:  totalExhausted,
		SuccessRate:     successRate,
		AverageDuration: avg,
	}
}

// DispatcherMetricsSnapshot is a point-in-time view of the counters.
type DispatcherMetricsSnapshot struct {
	TotalDispatched int64
	TotalExecutions int64
	TotalFailures   int64
	RetrySuccesses  int64
	TotalExhausted  int64
	SuccessRate     float64
	AverageDuration time.Duration
}
