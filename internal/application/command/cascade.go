// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE CASCADE
// Every catalog mutation recomputes the owning subject catalog, the
// student's yearly catalog, and the class / program / school aggregates,
// then stamps last_change_in_catalog on the acting teacher and school.
// ══════════════════════════════════════════════════════════════════════════════

// Cascade runs the synchronous recompute chain after a catalog mutation.
type Cascade struct {
	subjectCatalogs catalog.SubjectCatalogRepository
	yearlyCatalogs  catalog.YearlyCatalogRepository
	classes         school.StudyClassRepository
	programs        school.AcademicProgramRepository
	schoolUnits     school.SchoolUnitRepository
	profiles        school.UserProfileRepository
	eventPublisher  shared.EventPublisher
}

// NewCascade creates a Cascade with its repositories.
func NewCascade(
	subjectCatalogs catalog.SubjectCatalogRepository,
	yearlyCatalogs catalog.YearlyCatalogRepository,
	classes school.StudyClassRepository,
	programs school.AcademicProgramRepository,
	schoolUnits school.SchoolUnitRepository,
	profiles school.UserProfileRepository,
	eventPublisher shared.EventPublisher,
) *Cascade {
	return &Cascade{
		subjectCatalogs: subjectCatalogs,
		yearlyCatalogs:  yearlyCatalogs,
		classes:         classes,
		programs:        programs,
		schoolUnits:     schoolUnits,
		profiles:        profiles,
		eventPublisher:  eventPublisher,
	}
}

// Run recomputes and persists every aggregate affected by a mutation on
// the given subject catalog, stamps the acting teacher and school unit,
// and publishes the recompute event.
func (c *Cascade) Run(ctx context.Context, cat *catalog.StudentCatalogPerSubject, actingTeacherID string, now time.Time) error {
	cat.Recompute()
	cat.UpdatedAt = now.UTC()
	if err := c.subjectCatalogs.Update(ctx, cat); err != nil {
		return fmt.Errorf("cascade: failed to update subject catalog: %w", err)
	}

	yearly, err := c.recomputeYearly(ctx, cat, now)
	if err != nil {
		return err
	}

	if err := c.recomputeScopes(ctx, cat, yearly); err != nil {
		return err
	}

	if err := c.stampActors(ctx, cat.SchoolUnitID, actingTeacherID, now); err != nil {
		return err
	}

	event := shared.NewCatalogRecomputedEvent(cat.ID, cat.StudentID, cat.StudyClassID, cat.SubjectID, cat.AvgFinal)
	_ = c.eventPublisher.Publish(event)
	return nil
}

func (c *Cascade) recomputeYearly(ctx context.Context, cat *catalog.StudentCatalogPerSubject, now time.Time) (*catalog.StudentCatalogPerYear, error) {
	subjects, err := c.subjectCatalogs.GetByStudent(ctx, cat.StudentID, cat.AcademicYear)
	if err != nil {
		return nil, fmt.Errorf("cascade: failed to load student catalogs: %w", err)
	}

	yearly, err := c.yearlyCatalogs.GetByStudent(ctx, cat.StudentID, cat.AcademicYear)
	if err != nil {
		return nil, fmt.Errorf("cascade: failed to load yearly catalog: %w", err)
	}
	yearly.RecomputeFromSubjects(subjects)
	yearly.UpdatedAt = now.UTC()
	if err := c.yearlyCatalogs.Update(ctx, yearly); err != nil {
		return nil, fmt.Errorf("cascade: failed to update yearly catalog: %w", err)
	}
	return yearly, nil
}

func (c *Cascade) recomputeScopes(ctx context.Context, cat *catalog.StudentCatalogPerSubject, yearly *catalog.StudentCatalogPerYear) error {
	classCatalogs, err := c.yearlyCatalogs.GetByStudyClass(ctx, cat.StudyClassID)
	if err != nil {
		return fmt.Errorf("cascade: failed to load class catalogs: %w", err)
	}
	classAgg := catalog.AggregateYearlyCatalogs(classCatalogs)

	class, err := c.classes.GetByID(ctx, cat.StudyClassID)
	if err != nil {
		return fmt.Errorf("cascade: failed to load study class: %w", err)
	}
	class.AvgSem1 = classAgg.AvgSem1
	class.AvgSem2 = classAgg.AvgSem2
	class.AvgAnnual = classAgg.AvgAnnual
	class.UnfoundedAbsAvg = classAgg.UnfoundedAbsAvgAnnual
	if err := c.classes.Update(ctx, class); err != nil {
		return fmt.Errorf("cascade: failed to update study class: %w", err)
	}

	if class.AcademicProgramID != "" {
		if err := c.recomputeProgram(ctx, class); err != nil {
			return err
		}
	}

	schoolCatalogs, err := c.yearlyCatalogs.GetBySchoolUnit(ctx, cat.SchoolUnitID, cat.AcademicYear)
	if err != nil {
		return fmt.Errorf("cascade: failed to load school catalogs: %w", err)
	}
	schoolAgg := catalog.AggregateYearlyCatalogs(schoolCatalogs)

	stats, err := c.schoolUnits.GetStats(ctx, cat.SchoolUnitID, cat.AcademicYear)
	if err != nil {
		if !shared.IsNotFound(err) {
			return fmt.Errorf("cascade: failed to load school stats: %w", err)
		}
		stats = &school.SchoolUnitStats{SchoolUnitID: cat.SchoolUnitID, AcademicYear: cat.AcademicYear}
	}
	stats.AvgSem1 = schoolAgg.AvgSem1
	stats.AvgSem2 = schoolAgg.AvgSem2
	stats.AvgAnnual = schoolAgg.AvgAnnual
	stats.UnfoundedAbsAvgSem1 = schoolAgg.UnfoundedAbsAvgSem1
	stats.UnfoundedAbsAvgSem2 = schoolAgg.UnfoundedAbsAvgSem2
	stats.UnfoundedAbsAvgAnnual = schoolAgg.UnfoundedAbsAvgAnnual
	if err := c.schoolUnits.SaveStats(ctx, stats); err != nil {
		return fmt.Errorf("cascade: failed to save school stats: %w", err)
	}
	return nil
}

func (c *Cascade) recomputeProgram(ctx context.Context, class *school.StudyClass) error {
	program, err := c.programs.GetByID(ctx, class.AcademicProgramID)
	if err != nil {
		return fmt.Errorf("cascade: failed to load academic program: %w", err)
	}
	classes, err := c.classes.GetBySchoolUnit(ctx, class.SchoolUnitID, class.AcademicYear)
	if err != nil {
		return fmt.Errorf("cascade: failed to load sibling classes: %w", err)
	}

	var catalogs []*catalog.StudentCatalogPerYear
	for _, sibling := range classes {
		if sibling.AcademicProgramID != program.ID {
			continue
		}
		rows, err := c.yearlyCatalogs.GetByStudyClass(ctx, sibling.ID)
		if err != nil {
			return fmt.Errorf("cascade: failed to load program catalogs: %w", err)
		}
		catalogs = append(catalogs, rows...)
	}

	agg := catalog.AggregateYearlyCatalogs(catalogs)
	program.AvgSem1 = agg.AvgSem1
	program.AvgSem2 = agg.AvgSem2
	program.AvgAnnual = agg.AvgAnnual
	program.UnfoundedAbsAvg = agg.UnfoundedAbsAvgAnnual
	if err := c.programs.Update(ctx, program); err != nil {
		return fmt.Errorf("cascade: failed to update academic program: %w", err)
	}
	return nil
}

func (c *Cascade) stampActors(ctx context.Context, schoolUnitID, teacherID string, now time.Time) error {
	if teacherID != "" {
		teacher, err := c.profiles.GetByID(ctx, teacherID)
		if err != nil {
			return fmt.Errorf("cascade: failed to load teacher: %w", err)
		}
		teacher.StampCatalogChange(now)
		if err := c.profiles.Update(ctx, teacher); err != nil {
			return fmt.Errorf("cascade: failed to stamp teacher: %w", err)
		}
	}

	unit, err := c.schoolUnits.GetByID(ctx, schoolUnitID)
	if err != nil {
		return fmt.Errorf("cascade: failed to load school unit: %w", err)
	}
	unit.StampCatalogChange(now)
	if err := c.schoolUnits.Update(ctx, unit); err != nil {
		return fmt.Errorf("cascade: failed to stamp school unit: %w", err)
	}
	return nil
}
