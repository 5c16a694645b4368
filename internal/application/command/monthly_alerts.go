package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/risk"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY ALERTS COMMAND
// The monthly alerting pass, independent of the risk registry: absence
// counts over the threshold and subjects below the passing limit raise
// alerts every month, whether or not the risk level changed.
// ══════════════════════════════════════════════════════════════════════════════

// AlertTypeAbsences and AlertTypeAverageBelowLimit name the two alert
// kinds carried on AlertRaisedEvent.
const (
	AlertTypeAbsences          = "absence_threshold"
	AlertTypeAverageBelowLimit = "average_below_limit"
)

// SendMonthlyAlertsCommand runs the alert pass. With SchoolUnitID set,
// only that school's students are checked.
type SendMonthlyAlertsCommand struct {
	SchoolUnitID string
}

// SendMonthlyAlertsResult summarizes one alert pass.
type SendMonthlyAlertsResult struct {
	StudentsChecked int
	AlertsRaised    int
}

// MonthlyAlertsHandler runs the monthly alert pass.
type MonthlyAlertsHandler struct {
	profiles        school.UserProfileRepository
	schoolUnits     school.SchoolUnitRepository
	subjectCatalogs catalog.SubjectCatalogRepository
	calendars       calendar.Repository
	publisher       shared.EventPublisher
	logger          *slog.Logger
	now             func() time.Time
}

// NewMonthlyAlertsHandler creates a MonthlyAlertsHandler.
func NewMonthlyAlertsHandler(
	profiles school.UserProfileRepository,
	schoolUnits school.SchoolUnitRepository,
	subjectCatalogs catalog.SubjectCatalogRepository,
	calendars calendar.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *MonthlyAlertsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonthlyAlertsHandler{
		profiles:        profiles,
		schoolUnits:     schoolUnits,
		subjectCatalogs: subjectCatalogs,
		calendars:       calendars,
		publisher:       publisher,
		logger:          logger.With("command", "monthly_alerts"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes SendMonthlyAlertsCommand.
func (h *MonthlyAlertsHandler) Handle(ctx context.Context, cmd SendMonthlyAlertsCommand) (*SendMonthlyAlertsResult, error) {
	now := h.now()

	cal, err := h.calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("risk", "MonthlyAlerts", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}

	students, err := h.resolveStudents(ctx, cmd.SchoolUnitID)
	if err != nil {
		return nil, err
	}

	result := &SendMonthlyAlertsResult{}
	for _, student := range students {
		if err := h.checkStudent(ctx, cal, student, result); err != nil {
			h.logger.Error("alert check failed",
				"student_id", student.ID,
				"error", err,
			)
		}
	}

	h.logger.Info("monthly alert pass finished",
		"students_checked", result.StudentsChecked,
		"alerts_raised", result.AlertsRaised,
	)
	return result, nil
}

func (h *MonthlyAlertsHandler) resolveStudents(ctx context.Context, schoolUnitID string) ([]*school.UserProfile, error) {
	if schoolUnitID != "" {
		students, err := h.profiles.GetStudentsBySchoolUnit(ctx, schoolUnitID)
		if err != nil {
			return nil, fmt.Errorf("failed to load students: %w", err)
		}
		return students, nil
	}

	units, err := h.schoolUnits.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list school units: %w", err)
	}
	var all []*school.UserProfile
	for _, unit := range units {
		students, err := h.profiles.GetStudentsBySchoolUnit(ctx, unit.ID)
		if err != nil {
			h.logger.Error("failed to load students",
				"school_unit_id", unit.ID,
				"error", err,
			)
			continue
		}
		all = append(all, students...)
	}
	return all, nil
}

func (h *MonthlyAlertsHandler) checkStudent(ctx context.Context, cal *calendar.AcademicYearCalendar, student *school.UserProfile, result *SendMonthlyAlertsResult) error {
	subjects, err := h.subjectCatalogs.GetByStudent(ctx, student.ID, cal.AcademicYear)
	if err != nil {
		return fmt.Errorf("failed to load subject catalogs: %w", err)
	}
	result.StudentsChecked++

	unfounded := 0
	for _, s := range subjects {
		unfounded += s.UnfoundedAbsCountAnnual
	}
	if risk.NeedsAbsenceAlert(unfounded) {
		message := fmt.Sprintf("Elevul %s a acumulat %d absențe nemotivate în acest an școlar.",
			student.FullName, unfounded)
		h.raise(student, AlertTypeAbsences, message, result)
	}

	below := risk.SubjectsBelowLimit(subjects)
	if len(below) > 0 {
		names := make([]string, 0, len(below))
		for _, s := range below {
			names = append(names, s.SubjectName)
		}
		message := fmt.Sprintf("Elevul %s are media sub limita de promovare la: %s.",
			student.FullName, strings.Join(names, ", "))
		h.raise(student, AlertTypeAverageBelowLimit, message, result)
	}
	return nil
}

func (h *MonthlyAlertsHandler) raise(student *school.UserProfile, alertType, message string, result *SendMonthlyAlertsResult) {
	event := shared.NewAlertRaisedEvent(student.ID, student.StudyClassID, student.SchoolUnitID, alertType, message)
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish alert",
			"student_id", student.ID,
			"alert_type", alertType,
			"error", err,
		)
		return
	}
	result.AlertsRaised++
}
