package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edualert/edualert/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETRY NOTIFICATIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RetryNotificationsJob re-sends failed notifications from the outbox
// that still have retry budget.
type RetryNotificationsJob struct {
	retryService *service.NotificationRetryService
	logger       *slog.Logger
	config       RetryNotificationsConfig
}

// RetryNotificationsConfig contains configuration for the retry job.
type RetryNotificationsConfig struct {
	// BatchSize caps how many notifications one run attempts.
	BatchSize int

	// Timeout is the maximum duration of one run.
	Timeout time.Duration
}

// DefaultRetryNotificationsConfig returns sensible defaults.
func DefaultRetryNotificationsConfig() RetryNotificationsConfig {
	return RetryNotificationsConfig{
		BatchSize: 50,
		Timeout:   5 * time.Minute,
	}
}

// NewRetryNotificationsJob creates the job.
func NewRetryNotificationsJob(
	retryService *service.NotificationRetryService,
	logger *slog.Logger,
	config RetryNotificationsConfig,
) *RetryNotificationsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryNotificationsJob{
		retryService: retryService,
		logger:       logger,
		config:       config,
	}
}

// Name returns the job name.
func (j *RetryNotificationsJob) Name() string {
	return "retry_notifications"
}

// Description returns a human-readable description.
func (j *RetryNotificationsJob) Description() string {
	return "Re-sends failed notifications that still have retry budget"
}

// Run executes one retry pass.
func (j *RetryNotificationsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	delivered, err := j.retryService.RetryFailed(ctx, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("retry pass: %w", err)
	}

	if delivered > 0 {
		j.logger.Info("retry pass delivered notifications", "count", delivered)
	}
	return nil
}
