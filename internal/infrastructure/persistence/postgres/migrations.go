// Embedded schema migrations, applied at worker startup when
// DB_AUTO_MIGRATE is set.

package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE SCHOOLS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create school registry tables
-- Version: 001

-- National school registry
CREATE TABLE IF NOT EXISTS school_units (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    sirues_code VARCHAR(20) NOT NULL UNIQUE,
    name VARCHAR(200) NOT NULL,
    district VARCHAR(100) NOT NULL,
    city VARCHAR(100) NOT NULL,
    categories TEXT[] NOT NULL DEFAULT '{}',
    principal_id UUID,
    last_change_in_catalog TIMESTAMP WITH TIME ZONE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_school_units_district ON school_units(district);
CREATE INDEX IF NOT EXISTS idx_school_units_active ON school_units(is_active) WHERE is_active;

-- National subject registry, shared by all classes
CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    abbrev VARCHAR(10) NOT NULL,
    is_coordination BOOLEAN NOT NULL DEFAULT FALSE,
    should_be_in_timetable BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_subjects_abbrev ON subjects(abbrev);

-- Academic programs offered by a school unit in one academic year
CREATE TABLE IF NOT EXISTS academic_programs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    school_unit_id UUID NOT NULL REFERENCES school_units(id) ON DELETE CASCADE,
    name VARCHAR(200) NOT NULL,
    academic_year INTEGER NOT NULL,
    track VARCHAR(20) NOT NULL DEFAULT '',
    core_subject_allows_six BOOLEAN NOT NULL DEFAULT FALSE,
    avg_sem1 DECIMAL(4,2),
    avg_sem2 DECIMAL(4,2),
    avg_annual DECIMAL(4,2),
    unfounded_abs_avg DECIMAL(6,2),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_programs_unit_year ON academic_programs(school_unit_id, academic_year);

-- Study classes ("IX A") with their aggregates
CREATE TABLE IF NOT EXISTS study_classes (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    school_unit_id UUID NOT NULL REFERENCES school_units(id) ON DELETE CASCADE,
    academic_program_id UUID REFERENCES academic_programs(id) ON DELETE SET NULL,
    academic_year INTEGER NOT NULL,
    grade_level SMALLINT NOT NULL,
    letter VARCHAR(5) NOT NULL,
    track VARCHAR(20) NOT NULL DEFAULT '',
    class_master_id UUID,
    avg_sem1 DECIMAL(4,2),
    avg_sem2 DECIMAL(4,2),
    avg_annual DECIMAL(4,2),
    unfounded_abs_avg DECIMAL(6,2),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_grade_level CHECK (grade_level >= 0 AND grade_level <= 13)
);

CREATE INDEX IF NOT EXISTS idx_classes_unit_year ON study_classes(school_unit_id, academic_year);
CREATE INDEX IF NOT EXISTS idx_classes_year ON study_classes(academic_year);

-- Subject list of a class, with weekly-hour weight and assigned teacher
CREATE TABLE IF NOT EXISTS class_subjects (
    study_class_id UUID NOT NULL REFERENCES study_classes(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    teacher_id UUID,
    weekly_hours_count SMALLINT NOT NULL DEFAULT 1,
    is_coordination BOOLEAN NOT NULL DEFAULT FALSE,

    PRIMARY KEY (study_class_id, subject_id),
    CONSTRAINT valid_weekly_hours CHECK (weekly_hours_count >= 0)
);

CREATE INDEX IF NOT EXISTS idx_class_subjects_teacher ON class_subjects(teacher_id);

-- Every person in the system; students carry the risk fields
CREATE TABLE IF NOT EXISTS user_profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    school_unit_id UUID REFERENCES school_units(id) ON DELETE SET NULL,
    full_name VARCHAR(200) NOT NULL,
    email VARCHAR(254) NOT NULL DEFAULT '',
    phone_number VARCHAR(30) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL,
    password_hash VARCHAR(100) NOT NULL DEFAULT '',
    study_class_id UUID REFERENCES study_classes(id) ON DELETE SET NULL,
    parent_ids UUID[] NOT NULL DEFAULT '{}',
    is_exempted BOOLEAN NOT NULL DEFAULT FALSE,
    educator_full_name VARCHAR(200) NOT NULL DEFAULT '',
    labels TEXT[] NOT NULL DEFAULT '{}',
    risk_description TEXT NOT NULL DEFAULT '',
    risk_level_last_changed TIMESTAMP WITH TIME ZONE,
    last_change_in_catalog TIMESTAMP WITH TIME ZONE,
    last_online TIMESTAMP WITH TIME ZONE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('administrator', 'school_admin', 'teacher', 'parent', 'student'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON user_profiles(LOWER(email)) WHERE email != '';
CREATE INDEX IF NOT EXISTS idx_profiles_class ON user_profiles(study_class_id) WHERE role = 'student';
CREATE INDEX IF NOT EXISTS idx_profiles_unit_role ON user_profiles(school_unit_id, role);
CREATE INDEX IF NOT EXISTS idx_profiles_labels ON user_profiles USING GIN(labels);
`

const migration001Down = `
DROP TABLE IF EXISTS user_profiles;
DROP TABLE IF EXISTS class_subjects;
DROP TABLE IF EXISTS study_classes;
DROP TABLE IF EXISTS academic_programs;
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS school_units;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CATALOGS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create student catalog tables
-- Version: 002

-- One catalog per (student, subject, class, year)
CREATE TABLE IF NOT EXISTS subject_catalogs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
    subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    subject_name VARCHAR(100) NOT NULL DEFAULT '',
    study_class_id UUID NOT NULL REFERENCES study_classes(id) ON DELETE CASCADE,
    school_unit_id UUID NOT NULL REFERENCES school_units(id) ON DELETE CASCADE,
    teacher_id UUID,
    academic_year INTEGER NOT NULL,
    weekly_hours_count SMALLINT NOT NULL DEFAULT 1,
    is_coordination_subject BOOLEAN NOT NULL DEFAULT FALSE,
    is_core_subject BOOLEAN NOT NULL DEFAULT FALSE,
    wants_thesis BOOLEAN NOT NULL DEFAULT FALSE,
    is_exempted BOOLEAN NOT NULL DEFAULT FALSE,
    is_at_risk BOOLEAN NOT NULL DEFAULT FALSE,
    avg_sem1 DECIMAL(4,2),
    avg_sem2 DECIMAL(4,2),
    avg_annual DECIMAL(4,2),
    avg_after_second_examination DECIMAL(4,2),
    avg_final DECIMAL(4,2),
    abs_count_sem1 INTEGER NOT NULL DEFAULT 0,
    abs_count_sem2 INTEGER NOT NULL DEFAULT 0,
    abs_count_annual INTEGER NOT NULL DEFAULT 0,
    founded_abs_count_sem1 INTEGER NOT NULL DEFAULT 0,
    founded_abs_count_sem2 INTEGER NOT NULL DEFAULT 0,
    founded_abs_count_annual INTEGER NOT NULL DEFAULT 0,
    unfounded_abs_count_sem1 INTEGER NOT NULL DEFAULT 0,
    unfounded_abs_count_sem2 INTEGER NOT NULL DEFAULT 0,
    unfounded_abs_count_annual INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_catalog_scope UNIQUE (student_id, subject_id, study_class_id, academic_year)
);

CREATE INDEX IF NOT EXISTS idx_catalogs_student_year ON subject_catalogs(student_id, academic_year);
CREATE INDEX IF NOT EXISTS idx_catalogs_class ON subject_catalogs(study_class_id);
CREATE INDEX IF NOT EXISTS idx_catalogs_subject_class ON subject_catalogs(subject_id, study_class_id);
CREATE INDEX IF NOT EXISTS idx_catalogs_at_risk ON subject_catalogs(study_class_id) WHERE is_at_risk;

-- Grade rows
CREATE TABLE IF NOT EXISTS catalog_grades (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    catalog_id UUID NOT NULL REFERENCES subject_catalogs(id) ON DELETE CASCADE,
    value SMALLINT NOT NULL,
    grade_type VARCHAR(10) NOT NULL DEFAULT 'regular',
    semester SMALLINT NOT NULL,
    taken_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_by UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_grade_value CHECK (value >= 1 AND value <= 10),
    CONSTRAINT valid_grade_type CHECK (grade_type IN ('regular', 'thesis')),
    CONSTRAINT valid_grade_semester CHECK (semester IN (1, 2))
);

CREATE INDEX IF NOT EXISTS idx_grades_catalog ON catalog_grades(catalog_id);

-- Absence rows
CREATE TABLE IF NOT EXISTS catalog_absences (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    catalog_id UUID NOT NULL REFERENCES subject_catalogs(id) ON DELETE CASCADE,
    semester SMALLINT NOT NULL,
    taken_at TIMESTAMP WITH TIME ZONE NOT NULL,
    is_founded BOOLEAN NOT NULL DEFAULT FALSE,
    created_by UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_absence_semester CHECK (semester IN (1, 2))
);

CREATE INDEX IF NOT EXISTS idx_absences_catalog ON catalog_absences(catalog_id);

-- Examination rows: Corigente and Diferente papers, two examiner scores each
CREATE TABLE IF NOT EXISTS catalog_examination_grades (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    catalog_id UUID NOT NULL REFERENCES subject_catalogs(id) ON DELETE CASCADE,
    grade1 SMALLINT NOT NULL,
    grade2 SMALLINT NOT NULL,
    examination_type VARCHAR(10) NOT NULL,
    grade_type VARCHAR(20) NOT NULL,
    semester SMALLINT,
    taken_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_by UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_exam_grade1 CHECK (grade1 >= 1 AND grade1 <= 10),
    CONSTRAINT valid_exam_grade2 CHECK (grade2 >= 1 AND grade2 <= 10),
    CONSTRAINT valid_examination_type CHECK (examination_type IN ('written', 'oral')),
    CONSTRAINT valid_exam_grade_type CHECK (grade_type IN ('second_examination', 'difference')),
    CONSTRAINT valid_exam_semester CHECK (semester IS NULL OR semester IN (1, 2))
);

CREATE INDEX IF NOT EXISTS idx_exam_grades_catalog ON catalog_examination_grades(catalog_id);

-- Per-student yearly roll-up with the twelve rank columns
CREATE TABLE IF NOT EXISTS yearly_catalogs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id UUID NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
    study_class_id UUID NOT NULL REFERENCES study_classes(id) ON DELETE CASCADE,
    school_unit_id UUID NOT NULL REFERENCES school_units(id) ON DELETE CASCADE,
    academic_year INTEGER NOT NULL,
    avg_sem1 DECIMAL(4,2),
    avg_sem2 DECIMAL(4,2),
    avg_annual DECIMAL(4,2),
    avg_final DECIMAL(4,2),
    behavior_grade_sem1 DECIMAL(4,2),
    behavior_grade_sem2 DECIMAL(4,2),
    behavior_grade_annual DECIMAL(4,2),
    abs_count_sem1 INTEGER NOT NULL DEFAULT 0,
    abs_count_sem2 INTEGER NOT NULL DEFAULT 0,
    abs_count_annual INTEGER NOT NULL DEFAULT 0,
    founded_abs_count_sem1 INTEGER NOT NULL DEFAULT 0,
    founded_abs_count_sem2 INTEGER NOT NULL DEFAULT 0,
    founded_abs_count_annual INTEGER NOT NULL DEFAULT 0,
    unfounded_abs_count_sem1 INTEGER NOT NULL DEFAULT 0,
    unfounded_abs_count_sem2 INTEGER NOT NULL DEFAULT 0,
    unfounded_abs_count_annual INTEGER NOT NULL DEFAULT 0,
    class_place_by_avg_sem1 INTEGER,
    class_place_by_avg_sem2 INTEGER,
    class_place_by_avg_annual INTEGER,
    school_place_by_avg_sem1 INTEGER,
    school_place_by_avg_sem2 INTEGER,
    school_place_by_avg_annual INTEGER,
    class_place_by_abs_sem1 INTEGER,
    class_place_by_abs_sem2 INTEGER,
    class_place_by_abs_annual INTEGER,
    school_place_by_abs_sem1 INTEGER,
    school_place_by_abs_sem2 INTEGER,
    school_place_by_abs_annual INTEGER,
    is_exempted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_yearly_scope UNIQUE (student_id, academic_year)
);

CREATE INDEX IF NOT EXISTS idx_yearly_class ON yearly_catalogs(study_class_id);
CREATE INDEX IF NOT EXISTS idx_yearly_unit_year ON yearly_catalogs(school_unit_id, academic_year);
`

const migration002Down = `
DROP TABLE IF EXISTS yearly_catalogs;
DROP TABLE IF EXISTS catalog_examination_grades;
DROP TABLE IF EXISTS catalog_absences;
DROP TABLE IF EXISTS catalog_grades;
DROP TABLE IF EXISTS subject_catalogs;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CALENDARS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create academic calendar tables
-- Version: 003

CREATE TABLE IF NOT EXISTS calendars (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    academic_year INTEGER NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS semester_calendars (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    calendar_id UUID NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
    semester SMALLINT NOT NULL,
    starts TIMESTAMP WITH TIME ZONE NOT NULL,
    ends TIMESTAMP WITH TIME ZONE NOT NULL,
    working_weeks_count SMALLINT NOT NULL DEFAULT 0,
    working_weeks_count_primary_school SMALLINT NOT NULL DEFAULT 0,
    working_weeks_count_viii_grade SMALLINT NOT NULL DEFAULT 0,
    working_weeks_count_xii_grade SMALLINT NOT NULL DEFAULT 0,
    working_weeks_count_technological SMALLINT NOT NULL DEFAULT 0,

    CONSTRAINT valid_semester CHECK (semester IN (1, 2)),
    CONSTRAINT uq_semester_per_calendar UNIQUE (calendar_id, semester)
);

-- Typed date ranges: holidays, semester-end markers and exam windows.
-- semester_calendar_id is NULL for year-level events.
CREATE TABLE IF NOT EXISTS school_events (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    calendar_id UUID NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
    semester_calendar_id UUID REFERENCES semester_calendars(id) ON DELETE CASCADE,
    event_type VARCHAR(40) NOT NULL,
    starts TIMESTAMP WITH TIME ZONE NOT NULL,
    ends TIMESTAMP WITH TIME ZONE NOT NULL,
    comment TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_calendar ON school_events(calendar_id);
CREATE INDEX IF NOT EXISTS idx_events_semester ON school_events(semester_calendar_id);
`

const migration003Down = `
DROP TABLE IF EXISTS school_events;
DROP TABLE IF EXISTS semester_calendars;
DROP TABLE IF EXISTS calendars;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create aggregate statistics tables
-- Version: 004

-- At-risk counts time series per scope (country, school unit or class).
-- A whole year of day-grid samples stays one JSONB row.
CREATE TABLE IF NOT EXISTS at_risk_counts (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    granularity VARCHAR(20) NOT NULL,
    ref_id UUID,
    academic_year INTEGER NOT NULL,
    series JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_granularity CHECK (granularity IN ('country', 'school_unit', 'study_class'))
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_at_risk_scope
    ON at_risk_counts(granularity, COALESCE(ref_id, '00000000-0000-0000-0000-000000000000'::uuid), academic_year);

-- Per-school averages rewritten by the recompute cascade
CREATE TABLE IF NOT EXISTS school_unit_stats (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    school_unit_id UUID NOT NULL REFERENCES school_units(id) ON DELETE CASCADE,
    academic_year INTEGER NOT NULL,
    avg_sem1 DECIMAL(4,2),
    avg_sem2 DECIMAL(4,2),
    avg_annual DECIMAL(4,2),
    unfounded_abs_avg_sem1 DECIMAL(6,2),
    unfounded_abs_avg_sem2 DECIMAL(6,2),
    unfounded_abs_avg_annual DECIMAL(6,2),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_unit_stats UNIQUE (school_unit_id, academic_year)
);

-- Daily enrolled-student counts per school unit
CREATE TABLE IF NOT EXISTS enrollment_stats (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    school_unit_id UUID NOT NULL REFERENCES school_units(id) ON DELETE CASCADE,
    academic_year INTEGER NOT NULL,
    series JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_enrollment_stats UNIQUE (school_unit_id, academic_year)
);
`

const migration004Down = `
DROP TABLE IF EXISTS enrollment_stats;
DROP TABLE IF EXISTS school_unit_stats;
DROP TABLE IF EXISTS at_risk_counts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: CREATE NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
-- Migration: Create notification outbox
-- Version: 005

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    type VARCHAR(40) NOT NULL,
    recipient_id UUID NOT NULL,
    channel VARCHAR(10) NOT NULL,
    address VARCHAR(254) NOT NULL,
    priority SMALLINT NOT NULL DEFAULT 2,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    subject VARCHAR(200) NOT NULL DEFAULT '',
    body TEXT NOT NULL,
    student_id UUID,
    sent_at TIMESTAMP WITH TIME ZONE,
    delivered_at TIMESTAMP WITH TIME ZONE,
    retry_count SMALLINT NOT NULL DEFAULT 0,
    max_retries SMALLINT NOT NULL DEFAULT 3,
    last_error TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_channel CHECK (channel IN ('email', 'sms')),
    CONSTRAINT valid_status CHECK (status IN ('pending', 'sending', 'delivered', 'failed', 'skipped')),
    CONSTRAINT valid_priority CHECK (priority >= 1 AND priority <= 4)
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id);
CREATE INDEX IF NOT EXISTS idx_notifications_retries
    ON notifications(created_at) WHERE status = 'failed' AND retry_count < max_retries;
`

const migration005Down = `
DROP TABLE IF EXISTS notifications;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_schools",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_catalogs",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_calendars",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_statistics",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
		{
			Version: 5,
			Name:    "create_notifications",
			UpSQL:   migration005Up,
			DownSQL: migration005Down,
		},
	}
}
