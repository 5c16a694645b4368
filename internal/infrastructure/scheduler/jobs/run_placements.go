// Package jobs contains implementations of scheduled jobs for EduAlert.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edualert/edualert/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN PLACEMENTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RunPlacementsJob recomputes the class and school placement boards.
// Placements order students by average, then by fewer unfounded absences,
// so the boards only move after the nightly average recalculation.
type RunPlacementsJob struct {
	handler *command.PlacementsHandler
	logger  *slog.Logger
	config  RunPlacementsConfig
}

// RunPlacementsConfig contains configuration for the placements job.
type RunPlacementsConfig struct {
	// SchoolUnitID limits the run to one school unit (empty = all).
	SchoolUnitID string

	// Timeout is the maximum duration of one run.
	Timeout time.Duration
}

// DefaultRunPlacementsConfig returns sensible defaults.
func DefaultRunPlacementsConfig() RunPlacementsConfig {
	return RunPlacementsConfig{
		Timeout: 15 * time.Minute,
	}
}

// NewRunPlacementsJob creates the job.
func NewRunPlacementsJob(handler *command.PlacementsHandler, logger *slog.Logger, config RunPlacementsConfig) *RunPlacementsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunPlacementsJob{
		handler: handler,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *RunPlacementsJob) Name() string {
	return "calculate_student_placements"
}

// Description returns a human-readable description.
func (j *RunPlacementsJob) Description() string {
	return "Recomputes class and school placement boards from current averages"
}

// Run executes the placement pass.
func (j *RunPlacementsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.handler.Handle(ctx, command.RunPlacementsCommand{
		SchoolUnitID: j.config.SchoolUnitID,
	})
	if err != nil {
		return fmt.Errorf("placement pass: %w", err)
	}

	j.logger.Info("placement pass finished",
		"classes_ranked", result.ClassesRanked,
		"schools_ranked", result.SchoolsRanked,
		"catalogs_placed", result.CatalogsPlaced,
	)
	return nil
}
