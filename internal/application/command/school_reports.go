package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/notification"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL REPORTS COMMANDS
// Two periodic report passes: the school situation summary sent to the
// parents of every active student, and the monthly absence report sent
// to each school principal.
// ══════════════════════════════════════════════════════════════════════════════

// AlertTypeSchoolSituation marks the periodic situation summary on
// AlertRaisedEvent.
const AlertTypeSchoolSituation = "school_situation"

// SendSchoolSituationCommand runs the situation summary pass. With
// SchoolUnitID set, only that school's students are covered.
type SendSchoolSituationCommand struct {
	SchoolUnitID string
}

// SendSchoolSituationResult summarizes one situation pass.
type SendSchoolSituationResult struct {
	StudentsChecked int
	SummariesRaised int
}

// SchoolSituationHandler composes per-student situation summaries and
// raises them as alert events; delivery to the parents happens in the
// alert event handler.
type SchoolSituationHandler struct {
	profiles        school.UserProfileRepository
	schoolUnits     school.SchoolUnitRepository
	subjectCatalogs catalog.SubjectCatalogRepository
	calendars       calendar.Repository
	publisher       shared.EventPublisher
	logger          *slog.Logger
	now             func() time.Time
}

// NewSchoolSituationHandler creates a SchoolSituationHandler.
func NewSchoolSituationHandler(
	profiles school.UserProfileRepository,
	schoolUnits school.SchoolUnitRepository,
	subjectCatalogs catalog.SubjectCatalogRepository,
	calendars calendar.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SchoolSituationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchoolSituationHandler{
		profiles:        profiles,
		schoolUnits:     schoolUnits,
		subjectCatalogs: subjectCatalogs,
		calendars:       calendars,
		publisher:       publisher,
		logger:          logger.With("command", "school_situation"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes SendSchoolSituationCommand.
func (h *SchoolSituationHandler) Handle(ctx context.Context, cmd SendSchoolSituationCommand) (*SendSchoolSituationResult, error) {
	now := h.now()

	cal, err := h.calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("school", "SchoolSituation", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}

	students, err := h.resolveStudents(ctx, cmd.SchoolUnitID)
	if err != nil {
		return nil, err
	}

	result := &SendSchoolSituationResult{}
	for _, student := range students {
		subjects, err := h.subjectCatalogs.GetByStudent(ctx, student.ID, cal.AcademicYear)
		if err != nil {
			h.logger.Error("failed to load subject catalogs",
				"student_id", student.ID,
				"error", err,
			)
			continue
		}
		result.StudentsChecked++

		message := SituationSummary(student.FullName, subjects)
		if message == "" {
			continue
		}
		event := shared.NewAlertRaisedEvent(student.ID, student.StudyClassID, student.SchoolUnitID,
			AlertTypeSchoolSituation, message)
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish situation summary",
				"student_id", student.ID,
				"error", err,
			)
			continue
		}
		result.SummariesRaised++
	}

	h.logger.Info("school situation pass finished",
		"students_checked", result.StudentsChecked,
		"summaries_raised", result.SummariesRaised,
	)
	return result, nil
}

func (h *SchoolSituationHandler) resolveStudents(ctx context.Context, schoolUnitID string) ([]*school.UserProfile, error) {
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

// SituationSummary renders the per-subject situation of one student as
// the body of the parent summary. Subjects without any published average
// or recorded absence are skipped; an empty string means there is
// nothing to report yet.
func SituationSummary(studentName string, subjects []*catalog.StudentCatalogPerSubject) string {
	var lines []string
	for _, s := range subjects {
		parts := make([]string, 0, 3)
		if s.AvgSem1 != nil {
			parts = append(parts, fmt.Sprintf("media sem. I %.2f", *s.AvgSem1))
		}
		if s.AvgSem2 != nil {
			parts = append(parts, fmt.Sprintf("media sem. II %.2f", *s.AvgSem2))
		}
		if s.AbsCountAnnual > 0 {
			parts = append(parts, fmt.Sprintf("%d absențe (%d nemotivate)",
				s.AbsCountAnnual, s.UnfoundedAbsCountAnnual))
		}
		if len(parts) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", s.SubjectName, strings.Join(parts, ", ")))
	}
	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("Situația școlară a elevului %s:\n%s", studentName, strings.Join(lines, "\n"))
}

// ─────────────────────────────────────────────────────────────────────────────
// MONTHLY ABSENCE REPORT
// ─────────────────────────────────────────────────────────────────────────────

// SendAbsenceReportCommand runs the monthly absence report pass. With
// SchoolUnitID set, only that school is reported.
type SendAbsenceReportCommand struct {
	SchoolUnitID string
}

// SendAbsenceReportResult summarizes one report pass.
type SendAbsenceReportResult struct {
	SchoolsChecked int
	ReportsSent    int
}

// AbsenceReportHandler totals the absences of each school unit and
// delivers the figures to its principal.
type AbsenceReportHandler struct {
	profiles        school.UserProfileRepository
	schoolUnits     school.SchoolUnitRepository
	subjectCatalogs catalog.SubjectCatalogRepository
	calendars       calendar.Repository
	sender          notification.Sender
	store           notification.Repository
	logger          *slog.Logger
	now             func() time.Time
}

// NewAbsenceReportHandler creates an AbsenceReportHandler.
func NewAbsenceReportHandler(
	profiles school.UserProfileRepository,
	schoolUnits school.SchoolUnitRepository,
	subjectCatalogs catalog.SubjectCatalogRepository,
	calendars calendar.Repository,
	sender notification.Sender,
	store notification.Repository,
	logger *slog.Logger,
) *AbsenceReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AbsenceReportHandler{
		profiles:        profiles,
		schoolUnits:     schoolUnits,
		subjectCatalogs: subjectCatalogs,
		calendars:       calendars,
		sender:          sender,
		store:           store,
		logger:          logger.With("command", "absence_report"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes SendAbsenceReportCommand.
func (h *AbsenceReportHandler) Handle(ctx context.Context, cmd SendAbsenceReportCommand) (*SendAbsenceReportResult, error) {
	now := h.now()

	cal, err := h.calendars.GetCurrent(ctx, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("school", "AbsenceReport", shared.ErrNoCurrentCalendar,
				"no academic calendar is active", err)
		}
		return nil, fmt.Errorf("failed to resolve current calendar: %w", err)
	}

	var units []*school.SchoolUnit
	if cmd.SchoolUnitID != "" {
		unit, err := h.schoolUnits.GetByID(ctx, cmd.SchoolUnitID)
		if err != nil {
			return nil, fmt.Errorf("failed to load school unit: %w", err)
		}
		units = []*school.SchoolUnit{unit}
	} else {
		units, err = h.schoolUnits.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list school units: %w", err)
		}
	}

	result := &SendAbsenceReportResult{}
	for _, unit := range units {
		if err := h.reportUnit(ctx, cal, unit, now, result); err != nil {
			h.logger.Error("absence report failed",
				"school_unit_id", unit.ID,
				"error", err,
			)
		}
	}

	h.logger.Info("absence report pass finished",
		"schools_checked", result.SchoolsChecked,
		"reports_sent", result.ReportsSent,
	)
	return result, nil
}

func (h *AbsenceReportHandler) reportUnit(
	ctx context.Context,
	cal *calendar.AcademicYearCalendar,
	unit *school.SchoolUnit,
	now time.Time,
	result *SendAbsenceReportResult,
) error {
	students, err := h.profiles.GetStudentsBySchoolUnit(ctx, unit.ID)
	if err != nil {
		return fmt.Errorf("load students: %w", err)
	}
	result.SchoolsChecked++

	var founded, unfounded int
	for _, student := range students {
		subjects, err := h.subjectCatalogs.GetByStudent(ctx, student.ID, cal.AcademicYear)
		if err != nil {
			h.logger.Warn("failed to load subject catalogs",
				"student_id", student.ID,
				"error", err,
			)
			continue
		}
		for _, s := range subjects {
			founded += s.FoundedAbsCountAnnual
			unfounded += s.UnfoundedAbsCountAnnual
		}
	}

	if unit.PrincipalID == "" {
		h.logger.Warn("school unit has no principal, report skipped",
			"school_unit_id", unit.ID,
		)
		return nil
	}
	principal, err := h.profiles.GetByID(ctx, unit.PrincipalID)
	if err != nil {
		return fmt.Errorf("load principal: %w", err)
	}
	if principal.Email == "" {
		h.logger.Warn("principal has no email, report skipped",
			"school_unit_id", unit.ID,
		)
		return nil
	}

	subject := fmt.Sprintf("EduAlert: raport lunar de absențe %s", now.Format("01-2006"))
	body := fmt.Sprintf(
		"Raport lunar pentru %s: %d absențe motivate și %d absențe nemotivate înregistrate în anul școlar curent, %d elevi activi.",
		unit.Name, founded, unfounded, len(students))

	notif, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notification.NotificationTypeMonthlyAbsenceReport,
		RecipientID: notification.RecipientID(principal.ID),
		Channel:     notification.ChannelEmail,
		Address:     principal.Email,
		Subject:     subject,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	if h.store != nil {
		if err := h.store.Save(ctx, notif); err != nil {
			h.logger.Warn("failed to persist report notification",
				"notification_id", notif.ID,
				"error", err,
			)
		}
	}

	_ = notif.MarkSending()
	delivery := h.sender.Send(ctx, notif)
	if !delivery.Success {
		_ = notif.MarkFailed(fmt.Sprintf("%v", delivery.Error))
		if h.store != nil {
			_ = h.store.Update(ctx, notif)
		}
		return fmt.Errorf("deliver report: %v", delivery.Error)
	}
	_ = notif.MarkDelivered()
	if h.store != nil {
		_ = h.store.Update(ctx, notif)
	}
	result.ReportsSent++
	return nil
}
