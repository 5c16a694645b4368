package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edualert/edualert/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE RISK JOB
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateRiskJob runs the dropout-risk evaluation over all active
// students and updates the risk registry and the monthly risk series.
type EvaluateRiskJob struct {
	handler *command.RiskHandler
	logger  *slog.Logger
	config  EvaluateRiskConfig
}

// EvaluateRiskConfig contains configuration for the risk job.
type EvaluateRiskConfig struct {
	// SchoolUnitID limits the run to one school unit (empty = all).
	SchoolUnitID string

	// Timeout is the maximum duration of one run.
	Timeout time.Duration
}

// DefaultEvaluateRiskConfig returns sensible defaults.
func DefaultEvaluateRiskConfig() EvaluateRiskConfig {
	return EvaluateRiskConfig{
		Timeout: 30 * time.Minute,
	}
}

// NewEvaluateRiskJob creates the job.
func NewEvaluateRiskJob(handler *command.RiskHandler, logger *slog.Logger, config EvaluateRiskConfig) *EvaluateRiskJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateRiskJob{
		handler: handler,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *EvaluateRiskJob) Name() string {
	return "calculate_students_risk_level"
}

// Description returns a human-readable description.
func (j *EvaluateRiskJob) Description() string {
	return "Evaluates dropout risk for all active students and records the monthly series"
}

// Run executes the risk pass.
func (j *EvaluateRiskJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.handler.Handle(ctx, command.EvaluateRiskCommand{
		SchoolUnitID: j.config.SchoolUnitID,
	})
	if err != nil {
		return fmt.Errorf("risk pass: %w", err)
	}

	j.logger.Info("risk pass finished",
		"students_evaluated", result.StudentsEvaluated,
		"transitions", result.Transitions,
		"at_risk_total", result.AtRiskTotal,
	)
	return nil
}
