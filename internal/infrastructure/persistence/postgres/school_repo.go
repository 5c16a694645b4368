// Package postgres implements the PostgreSQL persistence layer for EduAlert.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL UNIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SchoolUnitRepository implements school.SchoolUnitRepository for PostgreSQL.
type SchoolUnitRepository struct {
	conn *Connection
}

// NewSchoolUnitRepository creates a new SchoolUnitRepository.
func NewSchoolUnitRepository(conn *Connection) *SchoolUnitRepository {
	return &SchoolUnitRepository{conn: conn}
}

const schoolUnitColumns = `
	id, sirues_code, name, district, city, categories, principal_id,
	last_change_in_catalog, is_active, created_at, updated_at
`

// GetByID returns a school unit by ID.
func (r *SchoolUnitRepository) GetByID(ctx context.Context, id string) (*school.SchoolUnit, error) {
	query := `SELECT ` + schoolUnitColumns + ` FROM school_units WHERE id = $1`
	row := r.conn.QueryRow(ctx, query, id)
	return scanSchoolUnit(row)
}

// GetAll returns all active school units.
func (r *SchoolUnitRepository) GetAll(ctx context.Context) ([]*school.SchoolUnit, error) {
	query := `SELECT ` + schoolUnitColumns + ` FROM school_units WHERE is_active ORDER BY name ASC`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query school units: %w", err)
	}
	defer rows.Close()

	var units []*school.SchoolUnit
	for rows.Next() {
		unit, err := scanSchoolUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// Save inserts a new school unit.
func (r *SchoolUnitRepository) Save(ctx context.Context, unit *school.SchoolUnit) error {
	query := `
		INSERT INTO school_units (
			id, sirues_code, name, district, city, categories, principal_id,
			last_change_in_catalog, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		unit.ID,
		unit.SIRUESCode,
		unit.Name,
		unit.District,
		unit.City,
		categoriesToStrings(unit.Categories),
		nullableID(unit.PrincipalID),
		unit.LastChangeInCatalog,
		unit.IsActive,
		unit.CreatedAt,
		unit.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to save school unit: %w", err)
	}
	return nil
}

// Update rewrites a school unit.
func (r *SchoolUnitRepository) Update(ctx context.Context, unit *school.SchoolUnit) error {
	query := `
		UPDATE school_units SET
			sirues_code = $1,
			name = $2,
			district = $3,
			city = $4,
			categories = $5,
			principal_id = $6,
			last_change_in_catalog = $7,
			is_active = $8,
			updated_at = $9
		WHERE id = $10
	`

	result, err := r.conn.Exec(ctx, query,
		unit.SIRUESCode,
		unit.Name,
		unit.District,
		unit.City,
		categoriesToStrings(unit.Categories),
		nullableID(unit.PrincipalID),
		unit.LastChangeInCatalog,
		unit.IsActive,
		time.Now().UTC(),
		unit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update school unit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrSchoolUnitNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Aggregate Statistics
// ─────────────────────────────────────────────────────────────────────────────

// GetStats returns the per-school aggregates for one academic year.
func (r *SchoolUnitRepository) GetStats(ctx context.Context, schoolUnitID string, year shared.AcademicYear) (*school.SchoolUnitStats, error) {
	query := `
		SELECT id, school_unit_id, academic_year, avg_sem1, avg_sem2, avg_annual,
			   unfounded_abs_avg_sem1, unfounded_abs_avg_sem2, unfounded_abs_avg_annual, updated_at
		FROM school_unit_stats
		WHERE school_unit_id = $1 AND academic_year = $2
	`

	var stats school.SchoolUnitStats
	var yearInt int
	err := r.conn.QueryRow(ctx, query, schoolUnitID, int(year)).Scan(
		&stats.ID,
		&stats.SchoolUnitID,
		&yearInt,
		&stats.AvgSem1,
		&stats.AvgSem2,
		&stats.AvgAnnual,
		&stats.UnfoundedAbsAvgSem1,
		&stats.UnfoundedAbsAvgSem2,
		&stats.UnfoundedAbsAvgAnnual,
		&stats.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("school", "GetStats", shared.ErrNotFound, "school unit stats not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get school unit stats: %w", err)
	}
	stats.AcademicYear = shared.AcademicYear(yearInt)
	return &stats, nil
}

// SaveStats upserts the per-school aggregates.
func (r *SchoolUnitRepository) SaveStats(ctx context.Context, stats *school.SchoolUnitStats) error {
	query := `
		INSERT INTO school_unit_stats (
			id, school_unit_id, academic_year, avg_sem1, avg_sem2, avg_annual,
			unfounded_abs_avg_sem1, unfounded_abs_avg_sem2, unfounded_abs_avg_annual, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT(school_unit_id, academic_year) DO UPDATE SET
			avg_sem1 = EXCLUDED.avg_sem1,
			avg_sem2 = EXCLUDED.avg_sem2,
			avg_annual = EXCLUDED.avg_annual,
			unfounded_abs_avg_sem1 = EXCLUDED.unfounded_abs_avg_sem1,
			unfounded_abs_avg_sem2 = EXCLUDED.unfounded_abs_avg_sem2,
			unfounded_abs_avg_annual = EXCLUDED.unfounded_abs_avg_annual,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		stats.ID,
		stats.SchoolUnitID,
		int(stats.AcademicYear),
		stats.AvgSem1,
		stats.AvgSem2,
		stats.AvgAnnual,
		stats.UnfoundedAbsAvgSem1,
		stats.UnfoundedAbsAvgSem2,
		stats.UnfoundedAbsAvgAnnual,
		stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save school unit stats: %w", err)
	}
	return nil
}

// GetEnrollmentStats returns the enrollment time series of a school unit.
func (r *SchoolUnitRepository) GetEnrollmentStats(ctx context.Context, schoolUnitID string, year shared.AcademicYear) (*school.SchoolUnitEnrollmentStats, error) {
	query := `
		SELECT id, school_unit_id, academic_year, series, updated_at
		FROM enrollment_stats
		WHERE school_unit_id = $1 AND academic_year = $2
	`

	var stats school.SchoolUnitEnrollmentStats
	var yearInt int
	var seriesJSON []byte
	err := r.conn.QueryRow(ctx, query, schoolUnitID, int(year)).Scan(
		&stats.ID,
		&stats.SchoolUnitID,
		&yearInt,
		&seriesJSON,
		&stats.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("school", "GetEnrollmentStats", shared.ErrNotFound, "enrollment stats not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment stats: %w", err)
	}
	stats.AcademicYear = shared.AcademicYear(yearInt)
	stats.Series = unmarshalSeries(seriesJSON)
	return &stats, nil
}

// SaveEnrollmentStats upserts the enrollment time series.
func (r *SchoolUnitRepository) SaveEnrollmentStats(ctx context.Context, stats *school.SchoolUnitEnrollmentStats) error {
	seriesJSON, err := json.Marshal(stats.Series)
	if err != nil {
		return fmt.Errorf("failed to marshal enrollment series: %w", err)
	}

	query := `
		INSERT INTO enrollment_stats (id, school_unit_id, academic_year, series, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(school_unit_id, academic_year) DO UPDATE SET
			series = EXCLUDED.series,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.conn.Exec(ctx, query,
		stats.ID,
		stats.SchoolUnitID,
		int(stats.AcademicYear),
		seriesJSON,
		stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save enrollment stats: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY CLASS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudyClassRepository implements school.StudyClassRepository for PostgreSQL.
// Classes are loaded with their subject list in a second query.
type StudyClassRepository struct {
	conn *Connection
}

// NewStudyClassRepository creates a new StudyClassRepository.
func NewStudyClassRepository(conn *Connection) *StudyClassRepository {
	return &StudyClassRepository{conn: conn}
}

const studyClassColumns = `
	id, school_unit_id, academic_program_id, academic_year, grade_level, letter,
	track, class_master_id, avg_sem1, avg_sem2, avg_annual, unfounded_abs_avg,
	created_at, updated_at
`

// GetByID returns a study class with its subject list.
func (r *StudyClassRepository) GetByID(ctx context.Context, id string) (*school.StudyClass, error) {
	query := `SELECT ` + studyClassColumns + ` FROM study_classes WHERE id = $1`

	class, err := scanStudyClass(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadSubjects(ctx, []*school.StudyClass{class}); err != nil {
		return nil, err
	}
	return class, nil
}

// GetBySchoolUnit returns the classes of a school unit in one year.
func (r *StudyClassRepository) GetBySchoolUnit(ctx context.Context, schoolUnitID string, year shared.AcademicYear) ([]*school.StudyClass, error) {
	query := `
		SELECT ` + studyClassColumns + `
		FROM study_classes
		WHERE school_unit_id = $1 AND academic_year = $2
		ORDER BY grade_level ASC, letter ASC
	`
	return r.queryClasses(ctx, query, schoolUnitID, int(year))
}

// GetByAcademicYear returns all classes of one academic year nationwide.
func (r *StudyClassRepository) GetByAcademicYear(ctx context.Context, year shared.AcademicYear) ([]*school.StudyClass, error) {
	query := `
		SELECT ` + studyClassColumns + `
		FROM study_classes
		WHERE academic_year = $1
		ORDER BY school_unit_id, grade_level ASC, letter ASC
	`
	return r.queryClasses(ctx, query, int(year))
}

// Save inserts a class and its subject rows in one transaction.
func (r *StudyClassRepository) Save(ctx context.Context, class *school.StudyClass) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO study_classes (
				id, school_unit_id, academic_program_id, academic_year, grade_level,
				letter, track, class_master_id, avg_sem1, avg_sem2, avg_annual,
				unfounded_abs_avg, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		_, err := tx.Exec(ctx, query,
			class.ID,
			class.SchoolUnitID,
			nullableID(class.AcademicProgramID),
			int(class.AcademicYear),
			int(class.GradeLevel),
			class.Letter,
			string(class.Track),
			nullableID(class.ClassMasterID),
			class.AvgSem1,
			class.AvgSem2,
			class.AvgAnnual,
			class.UnfoundedAbsAvg,
			class.CreatedAt,
			class.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save study class: %w", err)
		}
		return r.replaceSubjects(ctx, tx, class)
	})
}

// Update rewrites a class and replaces its subject rows.
func (r *StudyClassRepository) Update(ctx context.Context, class *school.StudyClass) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			UPDATE study_classes SET
				academic_program_id = $1,
				grade_level = $2,
				letter = $3,
				track = $4,
				class_master_id = $5,
				avg_sem1 = $6,
				avg_sem2 = $7,
				avg_annual = $8,
				unfounded_abs_avg = $9,
				updated_at = $10
			WHERE id = $11
		`
		result, err := tx.Exec(ctx, query,
			nullableID(class.AcademicProgramID),
			int(class.GradeLevel),
			class.Letter,
			string(class.Track),
			nullableID(class.ClassMasterID),
			class.AvgSem1,
			class.AvgSem2,
			class.AvgAnnual,
			class.UnfoundedAbsAvg,
			time.Now().UTC(),
			class.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update study class: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.ErrStudyClassNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM class_subjects WHERE study_class_id = $1", class.ID); err != nil {
			return fmt.Errorf("failed to clear class subjects: %w", err)
		}
		return r.replaceSubjects(ctx, tx, class)
	})
}

func (r *StudyClassRepository) replaceSubjects(ctx context.Context, tx pgx.Tx, class *school.StudyClass) error {
	query := `
		INSERT INTO class_subjects (study_class_id, subject_id, teacher_id, weekly_hours_count, is_coordination)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, cs := range class.Subjects {
		_, err := tx.Exec(ctx, query,
			class.ID,
			cs.SubjectID,
			nullableID(cs.TeacherID),
			cs.WeeklyHoursCount,
			cs.IsCoordination,
		)
		if err != nil {
			return fmt.Errorf("failed to save class subject: %w", err)
		}
	}
	return nil
}

func (r *StudyClassRepository) queryClasses(ctx context.Context, query string, args ...interface{}) ([]*school.StudyClass, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query study classes: %w", err)
	}
	defer rows.Close()

	var classes []*school.StudyClass
	for rows.Next() {
		class, err := scanStudyClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	if err := r.loadSubjects(ctx, classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// loadSubjects fills the subject lists of the given classes in one query.
func (r *StudyClassRepository) loadSubjects(ctx context.Context, classes []*school.StudyClass) error {
	if len(classes) == 0 {
		return nil
	}

	byID := make(map[string]*school.StudyClass, len(classes))
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	query := `
		SELECT cs.study_class_id, cs.subject_id, s.name, s.abbrev,
			   COALESCE(cs.teacher_id::text, ''), cs.weekly_hours_count, cs.is_coordination
		FROM class_subjects cs
		JOIN subjects s ON s.id = cs.subject_id
		WHERE cs.study_class_id = ANY($1)
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query class subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var classID string
		cs := &school.ClassSubject{}
		err := rows.Scan(
			&classID,
			&cs.SubjectID,
			&cs.SubjectName,
			&cs.SubjectAbbrev,
			&cs.TeacherID,
			&cs.WeeklyHoursCount,
			&cs.IsCoordination,
		)
		if err != nil {
			return fmt.Errorf("failed to scan class subject: %w", err)
		}
		if class, ok := byID[classID]; ok {
			class.Subjects = append(class.Subjects, cs)
		}
	}
	return rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC PROGRAM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AcademicProgramRepository implements school.AcademicProgramRepository for PostgreSQL.
type AcademicProgramRepository struct {
	conn *Connection
}

// NewAcademicProgramRepository creates a new AcademicProgramRepository.
func NewAcademicProgramRepository(conn *Connection) *AcademicProgramRepository {
	return &AcademicProgramRepository{conn: conn}
}

const programColumns = `
	id, school_unit_id, name, academic_year, track, core_subject_allows_six,
	avg_sem1, avg_sem2, avg_annual, unfounded_abs_avg, created_at, updated_at
`

// GetByID returns a program by ID.
func (r *AcademicProgramRepository) GetByID(ctx context.Context, id string) (*school.AcademicProgram, error) {
	query := `SELECT ` + programColumns + ` FROM academic_programs WHERE id = $1`
	return scanProgram(r.conn.QueryRow(ctx, query, id))
}

// GetBySchoolUnit returns the programs of a school unit in one year.
func (r *AcademicProgramRepository) GetBySchoolUnit(ctx context.Context, schoolUnitID string, year shared.AcademicYear) ([]*school.AcademicProgram, error) {
	query := `
		SELECT ` + programColumns + `
		FROM academic_programs
		WHERE school_unit_id = $1 AND academic_year = $2
		ORDER BY name ASC
	`

	rows, err := r.conn.Query(ctx, query, schoolUnitID, int(year))
	if err != nil {
		return nil, fmt.Errorf("failed to query academic programs: %w", err)
	}
	defer rows.Close()

	var programs []*school.AcademicProgram
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, program)
	}
	return programs, rows.Err()
}

// Save inserts a new program.
func (r *AcademicProgramRepository) Save(ctx context.Context, program *school.AcademicProgram) error {
	query := `
		INSERT INTO academic_programs (
			id, school_unit_id, name, academic_year, track, core_subject_allows_six,
			avg_sem1, avg_sem2, avg_annual, unfounded_abs_avg, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.conn.Exec(ctx, query,
		program.ID,
		program.SchoolUnitID,
		program.Name,
		int(program.AcademicYear),
		string(program.Track),
		program.CoreSubjectAllowsSix,
		program.AvgSem1,
		program.AvgSem2,
		program.AvgAnnual,
		program.UnfoundedAbsAvg,
		program.CreatedAt,
		program.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save academic program: %w", err)
	}
	return nil
}

// Update rewrites a program.
func (r *AcademicProgramRepository) Update(ctx context.Context, program *school.AcademicProgram) error {
	query := `
		UPDATE academic_programs SET
			name = $1,
			track = $2,
			core_subject_allows_six = $3,
			avg_sem1 = $4,
			avg_sem2 = $5,
			avg_annual = $6,
			unfounded_abs_avg = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.conn.Exec(ctx, query,
		program.Name,
		string(program.Track),
		program.CoreSubjectAllowsSix,
		program.AvgSem1,
		program.AvgSem2,
		program.AvgAnnual,
		program.UnfoundedAbsAvg,
		time.Now().UTC(),
		program.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update academic program: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.NewDomainError("school", "UpdateProgram", shared.ErrNotFound, "academic program not found")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRepository implements school.SubjectRepository for PostgreSQL.
type SubjectRepository struct {
	conn *Connection
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(conn *Connection) *SubjectRepository {
	return &SubjectRepository{conn: conn}
}

// GetByID returns a subject by ID.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*school.Subject, error) {
	query := `
		SELECT id, name, abbrev, is_coordination, should_be_in_timetable
		FROM subjects
		WHERE id = $1
	`

	var s school.Subject
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Abbrev,
		&s.IsCoordination,
		&s.ShouldBeInTimetable,
	)
	if IsNoRows(err) {
		return nil, shared.ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &s, nil
}

// GetAll returns the whole subject registry.
func (r *SubjectRepository) GetAll(ctx context.Context) ([]*school.Subject, error) {
	query := `
		SELECT id, name, abbrev, is_coordination, should_be_in_timetable
		FROM subjects
		ORDER BY name ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*school.Subject
	for rows.Next() {
		var s school.Subject
		err := rows.Scan(&s.ID, &s.Name, &s.Abbrev, &s.IsCoordination, &s.ShouldBeInTimetable)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, &s)
	}
	return subjects, rows.Err()
}

// Save inserts a new subject.
func (r *SubjectRepository) Save(ctx context.Context, subject *school.Subject) error {
	query := `
		INSERT INTO subjects (id, name, abbrev, is_coordination, should_be_in_timetable)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		subject.ID,
		subject.Name,
		subject.Abbrev,
		subject.IsCoordination,
		subject.ShouldBeInTimetable,
	)
	if err != nil {
		return fmt.Errorf("failed to save subject: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCAN HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func scanSchoolUnit(row pgx.Row) (*school.SchoolUnit, error) {
	var unit school.SchoolUnit
	var categories []string
	var principalID *string

	err := row.Scan(
		&unit.ID,
		&unit.SIRUESCode,
		&unit.Name,
		&unit.District,
		&unit.City,
		&categories,
		&principalID,
		&unit.LastChangeInCatalog,
		&unit.IsActive,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrSchoolUnitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan school unit: %w", err)
	}

	unit.Categories = stringsToCategories(categories)
	unit.PrincipalID = deref(principalID)
	return &unit, nil
}

func scanStudyClass(row pgx.Row) (*school.StudyClass, error) {
	var class school.StudyClass
	var programID, masterID *string
	var year, gradeLevel int
	var track string

	err := row.Scan(
		&class.ID,
		&class.SchoolUnitID,
		&programID,
		&year,
		&gradeLevel,
		&class.Letter,
		&track,
		&masterID,
		&class.AvgSem1,
		&class.AvgSem2,
		&class.AvgAnnual,
		&class.UnfoundedAbsAvg,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrStudyClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan study class: %w", err)
	}

	class.AcademicProgramID = deref(programID)
	class.ClassMasterID = deref(masterID)
	class.AcademicYear = shared.AcademicYear(year)
	class.GradeLevel = school.GradeLevel(gradeLevel)
	class.Track = school.AcademicTrack(track)
	return &class, nil
}

func scanProgram(row pgx.Row) (*school.AcademicProgram, error) {
	var program school.AcademicProgram
	var year int
	var track string

	err := row.Scan(
		&program.ID,
		&program.SchoolUnitID,
		&program.Name,
		&year,
		&track,
		&program.CoreSubjectAllowsSix,
		&program.AvgSem1,
		&program.AvgSem2,
		&program.AvgAnnual,
		&program.UnfoundedAbsAvg,
		&program.CreatedAt,
		&program.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("school", "FindProgram", shared.ErrNotFound, "academic program not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan academic program: %w", err)
	}

	program.AcademicYear = shared.AcademicYear(year)
	program.Track = school.AcademicTrack(track)
	return &program, nil
}

func categoriesToStrings(categories []school.SchoolUnitCategory) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

func stringsToCategories(values []string) []school.SchoolUnitCategory {
	out := make([]school.SchoolUnitCategory, len(values))
	for i, v := range values {
		out[i] = school.SchoolUnitCategory(v)
	}
	return out
}

// nullableID maps an empty string ID to SQL NULL.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func unmarshalSeries(data []byte) school.MonthlySeries {
	series := school.MonthlySeries{}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &series)
	}
	return series
}
