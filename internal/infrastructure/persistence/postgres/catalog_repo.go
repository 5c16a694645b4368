package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubjectCatalogRepository implements catalog.SubjectCatalogRepository for
// PostgreSQL. Catalogs are aggregates: the grade, absence and examination
// rows are loaded with their catalog and rewritten with it. Row rewrites
// happen as delete-and-insert inside one transaction, which keeps the
// persistence logic independent of which rows the average engine touched.
type SubjectCatalogRepository struct {
	conn *Connection
}

// NewSubjectCatalogRepository creates a new SubjectCatalogRepository.
func NewSubjectCatalogRepository(conn *Connection) *SubjectCatalogRepository {
	return &SubjectCatalogRepository{conn: conn}
}

const subjectCatalogColumns = `
	id, student_id, subject_id, subject_name, study_class_id, school_unit_id,
	teacher_id, academic_year, weekly_hours_count, is_coordination_subject,
	is_core_subject, wants_thesis, is_exempted, is_at_risk,
	avg_sem1, avg_sem2, avg_annual, avg_after_second_examination, avg_final,
	abs_count_sem1, abs_count_sem2, abs_count_annual,
	founded_abs_count_sem1, founded_abs_count_sem2, founded_abs_count_annual,
	unfounded_abs_count_sem1, unfounded_abs_count_sem2, unfounded_abs_count_annual,
	created_at, updated_at
`

// GetByID returns a subject catalog with its rows.
func (r *SubjectCatalogRepository) GetByID(ctx context.Context, id string) (*catalog.StudentCatalogPerSubject, error) {
	query := `SELECT ` + subjectCatalogColumns + ` FROM subject_catalogs WHERE id = $1`

	cat, err := scanSubjectCatalog(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadRows(ctx, []*catalog.StudentCatalogPerSubject{cat}); err != nil {
		return nil, err
	}
	return cat, nil
}

// GetByStudent returns all subject catalogs of a student for one year.
func (r *SubjectCatalogRepository) GetByStudent(ctx context.Context, studentID string, year shared.AcademicYear) ([]*catalog.StudentCatalogPerSubject, error) {
	query := `
		SELECT ` + subjectCatalogColumns + `
		FROM subject_catalogs
		WHERE student_id = $1 AND academic_year = $2
		ORDER BY subject_name ASC
	`
	return r.queryCatalogs(ctx, query, studentID, int(year))
}

// GetByStudyClass returns all subject catalogs of a class.
func (r *SubjectCatalogRepository) GetByStudyClass(ctx context.Context, studyClassID string) ([]*catalog.StudentCatalogPerSubject, error) {
	query := `
		SELECT ` + subjectCatalogColumns + `
		FROM subject_catalogs
		WHERE study_class_id = $1
		ORDER BY student_id, subject_name ASC
	`
	return r.queryCatalogs(ctx, query, studyClassID)
}

// GetBySubjectAndClass returns the catalogs of one subject in one class.
func (r *SubjectCatalogRepository) GetBySubjectAndClass(ctx context.Context, subjectID, studyClassID string) ([]*catalog.StudentCatalogPerSubject, error) {
	query := `
		SELECT ` + subjectCatalogColumns + `
		FROM subject_catalogs
		WHERE subject_id = $1 AND study_class_id = $2
		ORDER BY student_id
	`
	return r.queryCatalogs(ctx, query, subjectID, studyClassID)
}

// Save inserts a catalog and its rows in one transaction.
func (r *SubjectCatalogRepository) Save(ctx context.Context, cat *catalog.StudentCatalogPerSubject) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO subject_catalogs (
				id, student_id, subject_id, subject_name, study_class_id, school_unit_id,
				teacher_id, academic_year, weekly_hours_count, is_coordination_subject,
				is_core_subject, wants_thesis, is_exempted, is_at_risk,
				avg_sem1, avg_sem2, avg_annual, avg_after_second_examination, avg_final,
				abs_count_sem1, abs_count_sem2, abs_count_annual,
				founded_abs_count_sem1, founded_abs_count_sem2, founded_abs_count_annual,
				unfounded_abs_count_sem1, unfounded_abs_count_sem2, unfounded_abs_count_annual,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30
			)
		`
		_, err := tx.Exec(ctx, query,
			cat.ID,
			cat.StudentID,
			cat.SubjectID,
			cat.SubjectName,
			cat.StudyClassID,
			cat.SchoolUnitID,
			nullableID(cat.TeacherID),
			int(cat.AcademicYear),
			cat.WeeklyHoursCount,
			cat.IsCoordinationSubject,
			cat.IsCoreSubject,
			cat.WantsThesis,
			cat.IsExempted,
			cat.IsAtRisk,
			cat.AvgSem1,
			cat.AvgSem2,
			cat.AvgAnnual,
			cat.AvgAfterSecondExamination,
			cat.AvgFinal,
			cat.AbsCountSem1,
			cat.AbsCountSem2,
			cat.AbsCountAnnual,
			cat.FoundedAbsCountSem1,
			cat.FoundedAbsCountSem2,
			cat.FoundedAbsCountAnnual,
			cat.UnfoundedAbsCountSem1,
			cat.UnfoundedAbsCountSem2,
			cat.UnfoundedAbsCountAnnual,
			cat.CreatedAt,
			cat.UpdatedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return fmt.Errorf("failed to save subject catalog: %w", err)
		}
		return r.replaceRows(ctx, tx, cat)
	})
}

// Update rewrites a catalog and replaces its rows.
func (r *SubjectCatalogRepository) Update(ctx context.Context, cat *catalog.StudentCatalogPerSubject) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			UPDATE subject_catalogs SET
				teacher_id = $1,
				weekly_hours_count = $2,
				is_coordination_subject = $3,
				is_core_subject = $4,
				wants_thesis = $5,
				is_exempted = $6,
				is_at_risk = $7,
				avg_sem1 = $8,
				avg_sem2 = $9,
				avg_annual = $10,
				avg_after_second_examination = $11,
				avg_final = $12,
				abs_count_sem1 = $13,
				abs_count_sem2 = $14,
				abs_count_annual = $15,
				founded_abs_count_sem1 = $16,
				founded_abs_count_sem2 = $17,
				founded_abs_count_annual = $18,
				unfounded_abs_count_sem1 = $19,
				unfounded_abs_count_sem2 = $20,
				unfounded_abs_count_annual = $21,
				updated_at = $22
			WHERE id = $23
		`
		result, err := tx.Exec(ctx, query,
			nullableID(cat.TeacherID),
			cat.WeeklyHoursCount,
			cat.IsCoordinationSubject,
			cat.IsCoreSubject,
			cat.WantsThesis,
			cat.IsExempted,
			cat.IsAtRisk,
			cat.AvgSem1,
			cat.AvgSem2,
			cat.AvgAnnual,
			cat.AvgAfterSecondExamination,
			cat.AvgFinal,
			cat.AbsCountSem1,
			cat.AbsCountSem2,
			cat.AbsCountAnnual,
			cat.FoundedAbsCountSem1,
			cat.FoundedAbsCountSem2,
			cat.FoundedAbsCountAnnual,
			cat.UnfoundedAbsCountSem1,
			cat.UnfoundedAbsCountSem2,
			cat.UnfoundedAbsCountAnnual,
			time.Now().UTC(),
			cat.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update subject catalog: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.ErrCatalogNotFound
		}

		for _, table := range []string{"catalog_grades", "catalog_absences", "catalog_examination_grades"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE catalog_id = $1", cat.ID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return r.replaceRows(ctx, tx, cat)
	})
}

func (r *SubjectCatalogRepository) replaceRows(ctx context.Context, tx pgx.Tx, cat *catalog.StudentCatalogPerSubject) error {
	gradeQuery := `
		INSERT INTO catalog_grades (id, catalog_id, value, grade_type, semester, taken_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, g := range cat.Grades {
		_, err := tx.Exec(ctx, gradeQuery,
			g.ID, cat.ID, int(g.Value), string(g.GradeType), int(g.Semester),
			g.TakenAt, nullableID(g.CreatedBy), g.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save grade row: %w", err)
		}
	}

	absenceQuery := `
		INSERT INTO catalog_absences (id, catalog_id, semester, taken_at, is_founded, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, a := range cat.Absences {
		_, err := tx.Exec(ctx, absenceQuery,
			a.ID, cat.ID, int(a.Semester), a.TakenAt, a.IsFounded,
			nullableID(a.CreatedBy), a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save absence row: %w", err)
		}
	}

	examQuery := `
		INSERT INTO catalog_examination_grades (
			id, catalog_id, grade1, grade2, examination_type, grade_type,
			semester, taken_at, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, e := range cat.ExaminationGrades {
		var sem *int
		if e.Semester != nil {
			v := int(*e.Semester)
			sem = &v
		}
		_, err := tx.Exec(ctx, examQuery,
			e.ID, cat.ID, int(e.Grade1), int(e.Grade2), string(e.ExaminationType),
			string(e.GradeType), sem, e.TakenAt, nullableID(e.CreatedBy), e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save examination row: %w", err)
		}
	}
	return nil
}

func (r *SubjectCatalogRepository) queryCatalogs(ctx context.Context, query string, args ...interface{}) ([]*catalog.StudentCatalogPerSubject, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subject catalogs: %w", err)
	}
	defer rows.Close()

	var catalogs []*catalog.StudentCatalogPerSubject
	for rows.Next() {
		cat, err := scanSubjectCatalog(rows)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	if err := r.loadRows(ctx, catalogs); err != nil {
		return nil, err
	}
	return catalogs, nil
}

// loadRows fills the grade, absence and examination rows of the given
// catalogs in three queries.
func (r *SubjectCatalogRepository) loadRows(ctx context.Context, catalogs []*catalog.StudentCatalogPerSubject) error {
	if len(catalogs) == 0 {
		return nil
	}

	byID := make(map[string]*catalog.StudentCatalogPerSubject, len(catalogs))
	ids := make([]string, 0, len(catalogs))
	for _, c := range catalogs {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	if err := r.loadGrades(ctx, byID, ids); err != nil {
		return err
	}
	if err := r.loadAbsences(ctx, byID, ids); err != nil {
		return err
	}
	return r.loadExaminations(ctx, byID, ids)
}

func (r *SubjectCatalogRepository) loadGrades(ctx context.Context, byID map[string]*catalog.StudentCatalogPerSubject, ids []string) error {
	query := `
		SELECT id, catalog_id, value, grade_type, semester, taken_at,
			   COALESCE(created_by::text, ''), created_at
		FROM catalog_grades
		WHERE catalog_id = ANY($1)
		ORDER BY taken_at ASC
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query grade rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g := &catalog.SubjectGrade{}
		var value, semester int
		var gradeType string
		err := rows.Scan(&g.ID, &g.CatalogID, &value, &gradeType, &semester, &g.TakenAt, &g.CreatedBy, &g.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan grade row: %w", err)
		}
		g.Value = shared.GradeValue(value)
		g.GradeType = catalog.GradeType(gradeType)
		g.Semester = shared.Semester(semester)
		if cat, ok := byID[g.CatalogID]; ok {
			cat.Grades = append(cat.Grades, g)
		}
	}
	return rows.Err()
}

func (r *SubjectCatalogRepository) loadAbsences(ctx context.Context, byID map[string]*catalog.StudentCatalogPerSubject, ids []string) error {
	query := `
		SELECT id, catalog_id, semester, taken_at, is_founded,
			   COALESCE(created_by::text, ''), created_at
		FROM catalog_absences
		WHERE catalog_id = ANY($1)
		ORDER BY taken_at ASC
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query absence rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := &catalog.SubjectAbsence{}
		var semester int
		err := rows.Scan(&a.ID, &a.CatalogID, &semester, &a.TakenAt, &a.IsFounded, &a.CreatedBy, &a.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan absence row: %w", err)
		}
		a.Semester = shared.Semester(semester)
		if cat, ok := byID[a.CatalogID]; ok {
			cat.Absences = append(cat.Absences, a)
		}
	}
	return rows.Err()
}

func (r *SubjectCatalogRepository) loadExaminations(ctx context.Context, byID map[string]*catalog.StudentCatalogPerSubject, ids []string) error {
	query := `
		SELECT id, catalog_id, grade1, grade2, examination_type, grade_type,
			   semester, taken_at, COALESCE(created_by::text, ''), created_at
		FROM catalog_examination_grades
		WHERE catalog_id = ANY($1)
		ORDER BY taken_at ASC
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query examination rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e := &catalog.ExaminationGrade{}
		var grade1, grade2 int
		var examType, gradeType string
		var semester *int
		err := rows.Scan(&e.ID, &e.CatalogID, &grade1, &grade2, &examType, &gradeType, &semester, &e.TakenAt, &e.CreatedBy, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan examination row: %w", err)
		}
		e.Grade1 = shared.GradeValue(grade1)
		e.Grade2 = shared.GradeValue(grade2)
		e.ExaminationType = catalog.ExaminationType(examType)
		e.GradeType = catalog.ExamGradeType(gradeType)
		if semester != nil {
			s := shared.Semester(*semester)
			e.Semester = &s
		}
		if cat, ok := byID[e.CatalogID]; ok {
			cat.ExaminationGrades = append(cat.ExaminationGrades, e)
		}
	}
	return rows.Err()
}

func scanSubjectCatalog(row pgx.Row) (*catalog.StudentCatalogPerSubject, error) {
	var c catalog.StudentCatalogPerSubject
	var teacherID *string
	var year int

	err := row.Scan(
		&c.ID,
		&c.StudentID,
		&c.SubjectID,
		&c.SubjectName,
		&c.StudyClassID,
		&c.SchoolUnitID,
		&teacherID,
		&year,
		&c.WeeklyHoursCount,
		&c.IsCoordinationSubject,
		&c.IsCoreSubject,
		&c.WantsThesis,
		&c.IsExempted,
		&c.IsAtRisk,
		&c.AvgSem1,
		&c.AvgSem2,
		&c.AvgAnnual,
		&c.AvgAfterSecondExamination,
		&c.AvgFinal,
		&c.AbsCountSem1,
		&c.AbsCountSem2,
		&c.AbsCountAnnual,
		&c.FoundedAbsCountSem1,
		&c.FoundedAbsCountSem2,
		&c.FoundedAbsCountAnnual,
		&c.UnfoundedAbsCountSem1,
		&c.UnfoundedAbsCountSem2,
		&c.UnfoundedAbsCountAnnual,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrCatalogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subject catalog: %w", err)
	}

	c.TeacherID = deref(teacherID)
	c.AcademicYear = shared.AcademicYear(year)
	return &c, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// YEARLY CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// YearlyCatalogRepository implements catalog.YearlyCatalogRepository for PostgreSQL.
type YearlyCatalogRepository struct {
	conn *Connection
}

// NewYearlyCatalogRepository creates a new YearlyCatalogRepository.
func NewYearlyCatalogRepository(conn *Connection) *YearlyCatalogRepository {
	return &YearlyCatalogRepository{conn: conn}
}

const yearlyCatalogColumns = `
	id, student_id, study_class_id, school_unit_id, academic_year,
	avg_sem1, avg_sem2, avg_annual, avg_final,
	behavior_grade_sem1, behavior_grade_sem2, behavior_grade_annual,
	abs_count_sem1, abs_count_sem2, abs_count_annual,
	founded_abs_count_sem1, founded_abs_count_sem2, founded_abs_count_annual,
	unfounded_abs_count_sem1, unfounded_abs_count_sem2, unfounded_abs_count_annual,
	class_place_by_avg_sem1, class_place_by_avg_sem2, class_place_by_avg_annual,
	school_place_by_avg_sem1, school_place_by_avg_sem2, school_place_by_avg_annual,
	class_place_by_abs_sem1, class_place_by_abs_sem2, class_place_by_abs_annual,
	school_place_by_abs_sem1, school_place_by_abs_sem2, school_place_by_abs_annual,
	is_exempted, created_at, updated_at
`

// GetByID returns a yearly catalog by ID.
func (r *YearlyCatalogRepository) GetByID(ctx context.Context, id string) (*catalog.StudentCatalogPerYear, error) {
	query := `SELECT ` + yearlyCatalogColumns + ` FROM yearly_catalogs WHERE id = $1`
	return scanYearlyCatalog(r.conn.QueryRow(ctx, query, id))
}

// GetByStudent returns a student's yearly catalog for one year.
func (r *YearlyCatalogRepository) GetByStudent(ctx context.Context, studentID string, year shared.AcademicYear) (*catalog.StudentCatalogPerYear, error) {
	query := `SELECT ` + yearlyCatalogColumns + ` FROM yearly_catalogs WHERE student_id = $1 AND academic_year = $2`
	return scanYearlyCatalog(r.conn.QueryRow(ctx, query, studentID, int(year)))
}

// GetByStudyClass returns the yearly catalogs of a class.
func (r *YearlyCatalogRepository) GetByStudyClass(ctx context.Context, studyClassID string) ([]*catalog.StudentCatalogPerYear, error) {
	query := `
		SELECT ` + yearlyCatalogColumns + `
		FROM yearly_catalogs
		WHERE study_class_id = $1
		ORDER BY student_id
	`
	return r.queryYearly(ctx, query, studyClassID)
}

// GetBySchoolUnit returns the yearly catalogs of a school unit in one year.
func (r *YearlyCatalogRepository) GetBySchoolUnit(ctx context.Context, schoolUnitID string, year shared.AcademicYear) ([]*catalog.StudentCatalogPerYear, error) {
	query := `
		SELECT ` + yearlyCatalogColumns + `
		FROM yearly_catalogs
		WHERE school_unit_id = $1 AND academic_year = $2
		ORDER BY student_id
	`
	return r.queryYearly(ctx, query, schoolUnitID, int(year))
}

// Save inserts a new yearly catalog.
func (r *YearlyCatalogRepository) Save(ctx context.Context, cat *catalog.StudentCatalogPerYear) error {
	query := `
		INSERT INTO yearly_catalogs (
			id, student_id, study_class_id, school_unit_id, academic_year,
			avg_sem1, avg_sem2, avg_annual, avg_final,
			behavior_grade_sem1, behavior_grade_sem2, behavior_grade_annual,
			abs_count_sem1, abs_count_sem2, abs_count_annual,
			founded_abs_count_sem1, founded_abs_count_sem2, founded_abs_count_annual,
			unfounded_abs_count_sem1, unfounded_abs_count_sem2, unfounded_abs_count_annual,
			class_place_by_avg_sem1, class_place_by_avg_sem2, class_place_by_avg_annual,
			school_place_by_avg_sem1, school_place_by_avg_sem2, school_place_by_avg_annual,
			class_place_by_abs_sem1, class_place_by_abs_sem2, class_place_by_abs_annual,
			school_place_by_abs_sem1, school_place_by_abs_sem2, school_place_by_abs_annual,
			is_exempted, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36
		)
	`

	_, err := r.conn.Exec(ctx, query, yearlyCatalogArgs(cat)...)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to save yearly catalog: %w", err)
	}
	return nil
}

// Update rewrites a yearly catalog.
func (r *YearlyCatalogRepository) Update(ctx context.Context, cat *catalog.StudentCatalogPerYear) error {
	query := `
		UPDATE yearly_catalogs SET
			avg_sem1 = $1, avg_sem2 = $2, avg_annual = $3, avg_final = $4,
			behavior_grade_sem1 = $5, behavior_grade_sem2 = $6, behavior_grade_annual = $7,
			abs_count_sem1 = $8, abs_count_sem2 = $9, abs_count_annual = $10,
			founded_abs_count_sem1 = $11, founded_abs_count_sem2 = $12, founded_abs_count_annual = $13,
			unfounded_abs_count_sem1 = $14, unfounded_abs_count_sem2 = $15, unfounded_abs_count_annual = $16,
			class_place_by_avg_sem1 = $17, class_place_by_avg_sem2 = $18, class_place_by_avg_annual = $19,
			school_place_by_avg_sem1 = $20, school_place_by_avg_sem2 = $21, school_place_by_avg_annual = $22,
			class_place_by_abs_sem1 = $23, class_place_by_abs_sem2 = $24, class_place_by_abs_annual = $25,
			school_place_by_abs_sem1 = $26, school_place_by_abs_sem2 = $27, school_place_by_abs_annual = $28,
			is_exempted = $29, updated_at = $30
		WHERE id = $31
	`

	result, err := r.conn.Exec(ctx, query,
		cat.AvgSem1, cat.AvgSem2, cat.AvgAnnual, cat.AvgFinal,
		cat.BehaviorGradeSem1, cat.BehaviorGradeSem2, cat.BehaviorGradeAnnual,
		cat.AbsCountSem1, cat.AbsCountSem2, cat.AbsCountAnnual,
		cat.FoundedAbsCountSem1, cat.FoundedAbsCountSem2, cat.FoundedAbsCountAnnual,
		cat.UnfoundedAbsCountSem1, cat.UnfoundedAbsCountSem2, cat.UnfoundedAbsCountAnnual,
		cat.ClassPlaceByAvgSem1, cat.ClassPlaceByAvgSem2, cat.ClassPlaceByAvgAnnual,
		cat.SchoolPlaceByAvgSem1, cat.SchoolPlaceByAvgSem2, cat.SchoolPlaceByAvgAnnual,
		cat.ClassPlaceByAbsSem1, cat.ClassPlaceByAbsSem2, cat.ClassPlaceByAbsAnnual,
		cat.SchoolPlaceByAbsSem1, cat.SchoolPlaceByAbsSem2, cat.SchoolPlaceByAbsAnnual,
		cat.IsExempted, time.Now().UTC(),
		cat.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update yearly catalog: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrCatalogNotFound
	}
	return nil
}

func (r *YearlyCatalogRepository) queryYearly(ctx context.Context, query string, args ...interface{}) ([]*catalog.StudentCatalogPerYear, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query yearly catalogs: %w", err)
	}
	defer rows.Close()

	var catalogs []*catalog.StudentCatalogPerYear
	for rows.Next() {
		cat, err := scanYearlyCatalog(rows)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, cat)
	}
	return catalogs, rows.Err()
}

func yearlyCatalogArgs(cat *catalog.StudentCatalogPerYear) []interface{} {
	return []interface{}{
		cat.ID, cat.StudentID, cat.StudyClassID, cat.SchoolUnitID, int(cat.AcademicYear),
		cat.AvgSem1, cat.AvgSem2, cat.AvgAnnual, cat.AvgFinal,
		cat.BehaviorGradeSem1, cat.BehaviorGradeSem2, cat.BehaviorGradeAnnual,
		cat.AbsCountSem1, cat.AbsCountSem2, cat.AbsCountAnnual,
		cat.FoundedAbsCountSem1, cat.FoundedAbsCountSem2, cat.FoundedAbsCountAnnual,
		cat.UnfoundedAbsCountSem1, cat.UnfoundedAbsCountSem2, cat.UnfoundedAbsCountAnnual,
		cat.ClassPlaceByAvgSem1, cat.ClassPlaceByAvgSem2, cat.ClassPlaceByAvgAnnual,
		cat.SchoolPlaceByAvgSem1, cat.SchoolPlaceByAvgSem2, cat.SchoolPlaceByAvgAnnual,
		cat.ClassPlaceByAbsSem1, cat.ClassPlaceByAbsSem2, cat.ClassPlaceByAbsAnnual,
		cat.SchoolPlaceByAbsSem1, cat.SchoolPlaceByAbsSem2, cat.SchoolPlaceByAbsAnnual,
		cat.IsExempted, cat.CreatedAt, cat.UpdatedAt,
	}
}

func scanYearlyCatalog(row pgx.Row) (*catalog.StudentCatalogPerYear, error) {
	var c catalog.StudentCatalogPerYear
	var year int

	err := row.Scan(
		&c.ID,
		&c.StudentID,
		&c.StudyClassID,
		&c.SchoolUnitID,
		&year,
		&c.AvgSem1,
		&c.AvgSem2,
		&c.AvgAnnual,
		&c.AvgFinal,
		&c.BehaviorGradeSem1,
		&c.BehaviorGradeSem2,
		&c.BehaviorGradeAnnual,
		&c.AbsCountSem1,
		&c.AbsCountSem2,
		&c.AbsCountAnnual,
		&c.FoundedAbsCountSem1,
		&c.FoundedAbsCountSem2,
		&c.FoundedAbsCountAnnual,
		&c.UnfoundedAbsCountSem1,
		&c.UnfoundedAbsCountSem2,
		&c.UnfoundedAbsCountAnnual,
		&c.ClassPlaceByAvgSem1,
		&c.ClassPlaceByAvgSem2,
		&c.ClassPlaceByAvgAnnual,
		&c.SchoolPlaceByAvgSem1,
		&c.SchoolPlaceByAvgSem2,
		&c.SchoolPlaceByAvgAnnual,
		&c.ClassPlaceByAbsSem1,
		&c.ClassPlaceByAbsSem2,
		&c.ClassPlaceByAbsAnnual,
		&c.SchoolPlaceByAbsSem1,
		&c.SchoolPlaceByAbsSem2,
		&c.SchoolPlaceByAbsAnnual,
		&c.IsExempted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrCatalogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan yearly catalog: %w", err)
	}

	c.AcademicYear = shared.AcademicYear(year)
	return &c, nil
}
