package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edualert/edualert/internal/infrastructure/external/cloudwatch"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHIP REQUEST LOGS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ShipRequestLogsJob flushes buffered request logs to CloudWatch Logs.
// The shipper also flushes on its own interval; this job exists so a
// flush can be forced from the ops endpoint and shows up in job history.
type ShipRequestLogsJob struct {
	shipper *cloudwatch.Shipper
	logger  *slog.Logger
}

// NewShipRequestLogsJob creates the job.
func NewShipRequestLogsJob(shipper *cloudwatch.Shipper, logger *slog.Logger) *ShipRequestLogsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShipRequestLogsJob{shipper: shipper, logger: logger}
}

// Name returns the job name.
func (j *ShipRequestLogsJob) Name() string {
	return "ship_request_logs"
}

// Description returns a human-readable description.
func (j *ShipRequestLogsJob) Description() string {
	return "Flushes buffered request logs to CloudWatch Logs"
}

// Run executes one flush.
func (j *ShipRequestLogsJob) Run(ctx context.Context) error {
	if err := j.shipper.Flush(ctx); err != nil {
		return fmt.Errorf("flush request logs: %w", err)
	}
	return nil
}
