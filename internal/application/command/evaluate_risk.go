package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/risk"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE RISK COMMAND
// The scheduled risk pass: classify every student, detect transitions,
// refresh the at-risk time series at class, school and country scope.
// Risk events fire only on transitions, so re-running over unchanged
// catalogs stays silent.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateRiskCommand runs the risk pass. With SchoolUnitID set, only
// that school is evaluated; empty means the whole country.
type EvaluateRiskCommand struct {
	SchoolUnitID string
}

// EvaluateRiskResult summarizes one risk pass.
type EvaluateRiskResult struct {
	StudentsEvaluated int
	Transitions       int
	AtRiskTotal       int
}

// RiskHandler runs the risk evaluation pass.
type RiskHandler struct {
	profiles        school.UserProfileRepository
	classes         school.StudyClassRepository
	schoolUnits     school.SchoolUnitRepository
	subjectCatalogs catalog.SubjectCatalogRepository
	yearlyCatalogs  catalog.YearlyCatalogRepository
	calendars       calendar.Repository
	counts          risk.CountsRepository
	publisher       shared.EventPublisher
	logger          *slog.Logger
	now             func() time.Time
}

// NewRiskHandler creates a RiskHandler.
func NewRiskHandler(
	profiles school.UserProfileRepository,
	classes school.StudyClassRepository,
	schoolUnits school.SchoolUnitRepository,
	subjectCatalogs catalog.SubjectCatalogRepository,
	yearlyCatalogs catalog.YearlyCatalogRepository,
	calendars calendar.Repository,
	counts risk.CountsRepository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RiskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskHandler{
		profiles:        profiles,
		classes:         classes,
		schoolUnits:     schoolUnits,
		subjectCatalogs: subjectCatalogs,
		yearlyCatalogs:  yearlyCatalogs,
		calendars:       calendars,
		counts:          counts,
		publisher:       publisher,
		logger:          logger.With("command", "evaluate_risk"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes EvaluateRiskCommand.
func (h *RiskHandler) Handle(ctx context.Context, cmd EvaluateRiskCommand) (*EvaluateRiskResult, error) {
	now := h.now()

	cal, err := h.calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("risk", "Evaluate", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}

	units, err := h.resolveUnits(ctx, cmd.SchoolUnitID)
	if err != nil {
		return nil, err
	}

	result := &EvaluateRiskResult{}
	countryAtRisk := 0
	for _, unit := range units {
		atRisk, err := h.evaluateSchoolUnit(ctx, cal, unit, now, result)
		if err != nil {
			h.logger.Error("risk pass failed for school unit",
				"school_unit_id", unit.ID,
				"error", err,
			)
			continue
		}
		countryAtRisk += atRisk
	}
	result.AtRiskTotal = countryAtRisk

	// The country series is refreshed only on full runs so a single-unit
	// invocation cannot undercount the national total.
	if cmd.SchoolUnitID == "" {
		h.recordCounts(ctx, risk.GranularityCountry, "", cal.AcademicYear, countryAtRisk, now)
	}

	h.logger.Info("risk pass finished",
		"students_evaluated", result.StudentsEvaluated,
		"transitions", result.Transitions,
		"at_risk_total", result.AtRiskTotal,
	)
	return result, nil
}

func (h *RiskHandler) resolveUnits(ctx context.Context, schoolUnitID string) ([]*school.SchoolUnit, error) {
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

func (h *RiskHandler) evaluateSchoolUnit(ctx context.Context, cal *calendar.AcademicYearCalendar, unit *school.SchoolUnit, now time.Time, result *EvaluateRiskResult) (int, error) {
	classes, err := h.classes.GetBySchoolUnit(ctx, unit.ID, cal.AcademicYear)
	if err != nil {
		return 0, fmt.Errorf("failed to load study classes: %w", err)
	}

	schoolAtRisk := 0
	for _, class := range classes {
		classAtRisk, err := h.evaluateClass(ctx, cal, class, now, result)
		if err != nil {
			h.logger.Error("risk pass failed for study class",
				"study_class_id", class.ID,
				"error", err,
			)
			continue
		}
		schoolAtRisk += classAtRisk
		h.recordCounts(ctx, risk.GranularityClass, class.ID, cal.AcademicYear, classAtRisk, now)
	}

	h.recordCounts(ctx, risk.GranularitySchool, unit.ID, cal.AcademicYear, schoolAtRisk, now)
	return schoolAtRisk, nil
}

func (h *RiskHandler) evaluateClass(ctx context.Context, cal *calendar.AcademicYearCalendar, class *school.StudyClass, now time.Time, result *EvaluateRiskResult) (int, error) {
	students, err := h.profiles.GetStudentsByClass(ctx, class.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load students: %w", err)
	}

	variant := calendar.VariantFor(class.GradeLevel, class.Track)
	gradesDue := now.After(cal.SemesterEndDate(shared.SemesterFirst, variant))
	behaviorDue := cal.SecondSemesterEvaluationDue(class.GradeLevel, class.Track, now)

	atRisk := 0
	for _, student := range students {
		cur, err := h.evaluateStudent(ctx, cal, class, student, gradesDue, behaviorDue)
		if err != nil {
			h.logger.Error("failed to evaluate student",
				"student_id", student.ID,
				"error", err,
			)
			continue
		}
		result.StudentsEvaluated++
		if cur.Overall() != risk.LevelNone {
			atRisk++
		}
		if h.transitioned(student, cur) {
			result.Transitions++
			h.publishTransition(class, student, cur)
		}
	}
	return atRisk, nil
}

func (h *RiskHandler) evaluateStudent(ctx context.Context, cal *calendar.AcademicYearCalendar, class *school.StudyClass, student *school.UserProfile, gradesDue, behaviorDue bool) (risk.Assessment, error) {
	subjects, err := h.subjectCatalogs.GetByStudent(ctx, student.ID, cal.AcademicYear)
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("failed to load subject catalogs: %w", err)
	}

	yearly, err := h.yearlyCatalogs.GetByStudent(ctx, student.ID, cal.AcademicYear)
	if err != nil {
		if !shared.IsNotFound(err) {
			return risk.Assessment{}, fmt.Errorf("failed to load yearly catalog: %w", err)
		}
		yearly = nil
	}

	cur := risk.Evaluate(subjects, yearly, gradesDue, behaviorDue)
	h.markAtRiskSubjects(ctx, subjects)
	return cur, nil
}

// markAtRiskSubjects flags the subject catalogs whose absence count
// triggers on its own, so teachers see the risk inside the catalog view.
func (h *RiskHandler) markAtRiskSubjects(ctx context.Context, subjects []*catalog.StudentCatalogPerSubject) {
	for _, s := range subjects {
		flagged := risk.ClassifyAbsences(s.UnfoundedAbsCountAnnual) != risk.LevelNone
		if flagged == s.IsAtRisk {
			continue
		}
		s.IsAtRisk = flagged
		if err := h.subjectCatalogs.Update(ctx, s); err != nil {
			h.logger.Warn("failed to flag at-risk catalog",
				"catalog_id", s.ID,
				"error", err,
			)
		}
	}
}

// transitioned compares the new assessment against the state stored on
// the profile. The profile keeps the worst level (as labels) and the
// description; a change in either is a transition.
func (h *RiskHandler) transitioned(student *school.UserProfile, cur risk.Assessment) bool {
	prevLevel := risk.LevelNone
	if student.HasLabel(risk.Level2.Label()) {
		prevLevel = risk.Level2
	} else if student.HasLabel(risk.Level1.Label()) {
		prevLevel = risk.Level1
	}
	return prevLevel != cur.Overall() || student.RiskDescription != cur.Describe()
}

func (h *RiskHandler) publishTransition(class *school.StudyClass, student *school.UserProfile, cur risk.Assessment) {
	notifyParent := cur.Overall() != risk.LevelNone
	event := shared.NewRiskChangedEvent(
		student.ID,
		class.ID,
		class.SchoolUnitID,
		cur.Describe(),
		int(cur.Overall()),
		notifyParent,
	)
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Error("failed to publish risk transition",
			"student_id", student.ID,
			"error", err,
		)
	}
}

func (h *RiskHandler) recordCounts(ctx context.Context, granularity risk.Granularity, refID string, year shared.AcademicYear, count int, now time.Time) {
	counts, err := h.counts.Get(ctx, granularity, refID, year)
	if err != nil {
		if !shared.IsNotFound(err) {
			h.logger.Warn("failed to load at-risk series",
				"granularity", string(granularity),
				"ref_id", refID,
				"error", err,
			)
			return
		}
		counts = &risk.StudentAtRiskCounts{
			ID:           uuid.NewString(),
			Granularity:  granularity,
			RefID:        refID,
			AcademicYear: year,
		}
	}
	counts.Record(now, count)
	if err := h.counts.Save(ctx, counts); err != nil {
		h.logger.Warn("failed to save at-risk series",
			"granularity", string(granularity),
			"ref_id", refID,
			"error", err,
		)
	}
}
