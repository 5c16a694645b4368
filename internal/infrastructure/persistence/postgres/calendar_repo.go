package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/calendar"
	"github.com/edualert/edualert/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CalendarRepository implements calendar.Repository for PostgreSQL. A
// calendar is stored as three tables: the calendar row, its two semester
// rows and the school events hanging off either level.
type CalendarRepository struct {
	conn *Connection
}

// NewCalendarRepository creates a new CalendarRepository.
func NewCalendarRepository(conn *Connection) *CalendarRepository {
	return &CalendarRepository{conn: conn}
}

// GetCurrent resolves the calendar containing the given time. An academic
// year straddles two calendar years, so both candidates are checked.
func (r *CalendarRepository) GetCurrent(ctx context.Context, now time.Time) (*calendar.AcademicYearCalendar, error) {
	for _, year := range []shared.AcademicYear{shared.AcademicYearFor(now), shared.AcademicYearFor(now) - 1} {
		cal, err := r.GetByYear(ctx, year)
		if shared.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if cal.Contains(now) {
			return cal, nil
		}
	}
	return nil, shared.ErrCalendarNotFound
}

// GetByYear returns the calendar of one academic year.
func (r *CalendarRepository) GetByYear(ctx context.Context, year shared.AcademicYear) (*calendar.AcademicYearCalendar, error) {
	query := `SELECT id, academic_year, created_at, updated_at FROM calendars WHERE academic_year = $1`

	var cal calendar.AcademicYearCalendar
	var yearInt int
	err := r.conn.QueryRow(ctx, query, int(year)).Scan(&cal.ID, &yearInt, &cal.CreatedAt, &cal.UpdatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrCalendarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}
	cal.AcademicYear = shared.AcademicYear(yearInt)

	if err := r.loadSemesters(ctx, &cal); err != nil {
		return nil, err
	}
	if err := r.loadEvents(ctx, &cal); err != nil {
		return nil, err
	}
	return &cal, nil
}

// Save inserts a calendar with its semesters and events in one transaction.
func (r *CalendarRepository) Save(ctx context.Context, cal *calendar.AcademicYearCalendar) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `INSERT INTO calendars (id, academic_year, created_at, updated_at) VALUES ($1, $2, $3, $4)`
		_, err := tx.Exec(ctx, query, cal.ID, int(cal.AcademicYear), cal.CreatedAt, cal.UpdatedAt)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrCalendarAlreadyExists
			}
			return fmt.Errorf("failed to save calendar: %w", err)
		}
		return r.insertChildren(ctx, tx, cal)
	})
}

// Update rewrites a calendar, replacing its semesters and events.
func (r *CalendarRepository) Update(ctx context.Context, cal *calendar.AcademicYearCalendar) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `UPDATE calendars SET updated_at = $1 WHERE id = $2`
		result, err := tx.Exec(ctx, query, time.Now().UTC(), cal.ID)
		if err != nil {
			return fmt.Errorf("failed to update calendar: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.ErrCalendarNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM school_events WHERE calendar_id = $1", cal.ID); err != nil {
			return fmt.Errorf("failed to clear school events: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM semester_calendars WHERE calendar_id = $1", cal.ID); err != nil {
			return fmt.Errorf("failed to clear semester calendars: %w", err)
		}
		return r.insertChildren(ctx, tx, cal)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *CalendarRepository) insertChildren(ctx context.Context, tx pgx.Tx, cal *calendar.AcademicYearCalendar) error {
	semQuery := `
		INSERT INTO semester_calendars (
			id, calendar_id, semester, starts, ends, working_weeks_count,
			working_weeks_count_primary_school, working_weeks_count_viii_grade,
			working_weeks_count_xii_grade, working_weeks_count_technological
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	eventQuery := `
		INSERT INTO school_events (id, calendar_id, semester_calendar_id, event_type, starts, ends, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, sem := range []*calendar.SemesterCalendar{cal.FirstSemester, cal.SecondSemester} {
		if sem == nil {
			continue
		}
		_, err := tx.Exec(ctx, semQuery,
			sem.ID,
			cal.ID,
			int(sem.Semester),
			sem.Range.Starts,
			sem.Range.Ends,
			sem.WorkingWeeksCount,
			sem.WorkingWeeksCountPrimarySchool,
			sem.WorkingWeeksCountVIIIGrade,
			sem.WorkingWeeksCountXIIGrade,
			sem.WorkingWeeksCountTechnological,
		)
		if err != nil {
			return fmt.Errorf("failed to save semester calendar: %w", err)
		}
		for _, ev := range sem.Events {
			_, err := tx.Exec(ctx, eventQuery,
				ev.ID, cal.ID, sem.ID, string(ev.EventType), ev.Range.Starts, ev.Range.Ends, ev.Comment,
			)
			if err != nil {
				return fmt.Errorf("failed to save school event: %w", err)
			}
		}
	}

	for _, ev := range cal.Events {
		_, err := tx.Exec(ctx, eventQuery,
			ev.ID, cal.ID, nil, string(ev.EventType), ev.Range.Starts, ev.Range.Ends, ev.Comment,
		)
		if err != nil {
			return fmt.Errorf("failed to save school event: %w", err)
		}
	}
	return nil
}

func (r *CalendarRepository) loadSemesters(ctx context.Context, cal *calendar.AcademicYearCalendar) error {
	query := `
		SELECT id, semester, starts, ends, working_weeks_count,
			   working_weeks_count_primary_school, working_weeks_count_viii_grade,
			   working_weeks_count_xii_grade, working_weeks_count_technological
		FROM semester_calendars
		WHERE calendar_id = $1
		ORDER BY semester ASC
	`

	rows, err := r.conn.Query(ctx, query, cal.ID)
	if err != nil {
		return fmt.Errorf("failed to query semester calendars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		sem := &calendar.SemesterCalendar{}
		var semNo int
		err := rows.Scan(
			&sem.ID,
			&semNo,
			&sem.Range.Starts,
			&sem.Range.Ends,
			&sem.WorkingWeeksCount,
			&sem.WorkingWeeksCountPrimarySchool,
			&sem.WorkingWeeksCountVIIIGrade,
			&sem.WorkingWeeksCountXIIGrade,
			&sem.WorkingWeeksCountTechnological,
		)
		if err != nil {
			return fmt.Errorf("failed to scan semester calendar: %w", err)
		}
		sem.Semester = shared.Semester(semNo)
		if sem.Semester == shared.SemesterSecond {
			cal.SecondSemester = sem
		} else {
			cal.FirstSemester = sem
		}
	}
	return rows.Err()
}

func (r *CalendarRepository) loadEvents(ctx context.Context, cal *calendar.AcademicYearCalendar) error {
	query := `
		SELECT id, semester_calendar_id, event_type, starts, ends, comment
		FROM school_events
		WHERE calendar_id = $1
		ORDER BY starts ASC
	`

	rows, err := r.conn.Query(ctx, query, cal.ID)
	if err != nil {
		return fmt.Errorf("failed to query school events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev := &calendar.SchoolEvent{}
		var semesterID *string
		var eventType string
		err := rows.Scan(&ev.ID, &semesterID, &eventType, &ev.Range.Starts, &ev.Range.Ends, &ev.Comment)
		if err != nil {
			return fmt.Errorf("failed to scan school event: %w", err)
		}
		ev.EventType = calendar.EventType(eventType)

		switch {
		case semesterID == nil:
			cal.Events = append(cal.Events, ev)
		case cal.FirstSemester != nil && *semesterID == cal.FirstSemester.ID:
			cal.FirstSemester.Events = append(cal.FirstSemester.Events, ev)
		case cal.SecondSemester != nil && *semesterID == cal.SecondSemester.ID:
			cal.SecondSemester.Events = append(cal.SecondSemester.Events, ev)
		}
	}
	return rows.Err()
}
