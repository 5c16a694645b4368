package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/ranking"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN PLACEMENTS COMMAND
// The scheduled placement pass: rank every class cohort and every
// school cohort by average and by unfounded absences, write the places
// back onto the yearly catalogs and drop stale cached boards.
// ══════════════════════════════════════════════════════════════════════════════

// RunPlacementsCommand runs the placement pass. With SchoolUnitID set,
// only that school's cohorts are ranked.
type RunPlacementsCommand struct {
	SchoolUnitID string
}

// RunPlacementsResult summarizes one placement pass. ClassesSkipped
// counts classes whose semester-end window was not open; a pass run
// mid-semester skips every class and writes nothing.
type RunPlacementsResult struct {
	ClassesRanked  int
	ClassesSkipped int
	SchoolsRanked  int
	CatalogsPlaced int
}

// PlacementsHandler runs the placement pass.
type PlacementsHandler struct {
	schoolUnits    school.SchoolUnitRepository
	classes        school.StudyClassRepository
	yearlyCatalogs catalog.YearlyCatalogRepository
	calendars      calendar.Repository
	cache          ranking.PlacementCache
	publisher      shared.EventPublisher
	logger         *slog.Logger
	now            func() time.Time
}

// NewPlacementsHandler creates a PlacementsHandler.
func NewPlacementsHandler(
	schoolUnits school.SchoolUnitRepository,
	classes school.StudyClassRepository,
	yearlyCatalogs catalog.YearlyCatalogRepository,
	calendars calendar.Repository,
	cache ranking.PlacementCache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *PlacementsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlacementsHandler{
		schoolUnits:    schoolUnits,
		classes:        classes,
		yearlyCatalogs: yearlyCatalogs,
		calendars:      calendars,
		cache:          cache,
		publisher:      publisher,
		logger:         logger.With("command", "run_placements"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes RunPlacementsCommand.
func (h *PlacementsHandler) Handle(ctx context.Context, cmd RunPlacementsCommand) (*RunPlacementsResult, error) {
	now := h.now()

	cal, err := h.calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("ranking", "RunPlacements", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}

	units, err := h.resolveUnits(ctx, cmd.SchoolUnitID)
	if err != nil {
		return nil, err
	}

	result := &RunPlacementsResult{}
	for _, unit := range units {
		if err := h.rankSchoolUnit(ctx, cal, unit, now, result); err != nil {
			h.logger.Error("placement pass failed for school unit",
				"school_unit_id", unit.ID,
				"error", err,
			)
		}
	}

	h.logger.Info("placement pass finished",
		"classes_ranked", result.ClassesRanked,
		"classes_skipped", result.ClassesSkipped,
		"schools_ranked", result.SchoolsRanked,
		"catalogs_placed", result.CatalogsPlaced,
	)
	return result, nil
}

func (h *PlacementsHandler) resolveUnits(ctx context.Context, schoolUnitID string) ([]*school.SchoolUnit, error) {
	if schoolUnitID != "" {
		unit, err := h.schoolUnits.GetByID(ctx, schoolUnitID)
		if err != nil {
			return nil, fmt.Errorf("failed to load school unit: %w", err)
		}
		return []*school.SchoolUnit{unit}, nil
	}
	units, err := h.schoolUnits.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list school units: %w", err)
	}
	return units, nil
}

func (h *PlacementsHandler) rankSchoolUnit(ctx context.Context, cal *calendar.AcademicYearCalendar, unit *school.SchoolUnit, now time.Time, result *RunPlacementsResult) error {
	classes, err := h.classes.GetBySchoolUnit(ctx, unit.ID, cal.AcademicYear)
	if err != nil {
		return fmt.Errorf("failed to load study classes: %w", err)
	}

	// Class cohorts first, then the whole school over the same catalogs.
	// Classes outside their semester-end window are left untouched.
	schoolCohort := make([]*catalog.StudentCatalogPerYear, 0)
	for _, class := range classes {
		if !cal.PlacementsDue(calendar.VariantFor(class.GradeLevel, class.Track), now) {
			result.ClassesSkipped++
			continue
		}
		cohort, err := h.yearlyCatalogs.GetByStudyClass(ctx, class.ID)
		if err != nil {
			h.logger.Error("failed to load class cohort",
				"study_class_id", class.ID,
				"error", err,
			)
			continue
		}
		ranking.AssignAllPlaces(cohort, ranking.ScopeClass)
		schoolCohort = append(schoolCohort, cohort...)
		result.ClassesRanked++

		h.invalidate(ctx, class.ID)
		h.publish(class.ID, "class", len(cohort))
	}

	if len(schoolCohort) == 0 {
		return nil
	}

	ranking.AssignAllPlaces(schoolCohort, ranking.ScopeSchool)
	result.SchoolsRanked++

	for _, c := range schoolCohort {
		if err := h.yearlyCatalogs.Update(ctx, c); err != nil {
			h.logger.Error("failed to store placed catalog",
				"catalog_id", c.ID,
				"error", err,
			)
			continue
		}
		result.CatalogsPlaced++
	}

	h.invalidate(ctx, unit.ID)
	h.publish(unit.ID, "school", len(schoolCohort))
	return nil
}

func (h *PlacementsHandler) invalidate(ctx context.Context, scopeID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateScope(ctx, scopeID); err != nil {
		h.logger.Warn("failed to invalidate placement cache",
			"scope_id", scopeID,
			"error", err,
		)
	}
}

func (h *PlacementsHandler) publish(scopeID, scope string, count int) {
	event := shared.NewPlacementsUpdatedEvent(scopeID, scope, "all", count)
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish placements event",
			"scope_id", scopeID,
			"error", err,
		)
	}
}
