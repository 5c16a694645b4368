package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/edualert/edualert/internal/domain/risk"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RISK REPORT QUERY
// At-risk students of one school unit (or class) plus the monthly
// at-risk counts series for dashboard charts.
// ══════════════════════════════════════════════════════════════════════════════

// GetRiskReportQuery asks for the risk report of one scope.
type GetRiskReportQuery struct {
	// SchoolUnitID scopes the report. Empty with no StudyClassID means
	// the country-wide series (students list stays empty then).
	SchoolUnitID string

	// StudyClassID narrows the report to one class.
	StudyClassID string

	AcademicYear int

	// MinLevel filters the student list: 1 keeps both levels, 2 keeps
	// only severe cases. 0 defaults to 1.
	MinLevel int
}

// Validate checks and normalizes the query parameters.
func (q *GetRiskReportQuery) Validate() error {
	if q.AcademicYear == 0 {
		q.AcademicYear = int(shared.AcademicYearFor(time.Now().UTC()))
	}
	if q.MinLevel == 0 {
		q.MinLevel = 1
	}
	if q.MinLevel < 1 || q.MinLevel > 2 {
		return errors.New("min level must be 1 or 2")
	}
	if q.StudyClassID != "" && q.SchoolUnitID == "" {
		return errors.New("study class filter requires a school unit")
	}
	return nil
}

// AtRiskStudentDTO is one at-risk student in the report.
type AtRiskStudentDTO struct {
	StudentID       string     `json:"student_id"`
	FullName        string     `json:"full_name"`
	StudyClassID    string     `json:"study_class_id"`
	Labels          []string   `json:"labels"`
	RiskDescription string     `json:"risk_description"`
	RiskLevel       int        `json:"risk_level"`
	LastChanged     *time.Time `json:"last_changed,omitempty"`
}

// RiskSeriesPointDTO is one sample of the at-risk counts chart.
type RiskSeriesPointDTO struct {
	Month string `json:"month"` // "MM-YYYY"
	Day   int    `json:"day"`
	Count int    `json:"count"`
}

// GetRiskReportResult is the risk report response.
type GetRiskReportResult struct {
	SchoolUnitID string               `json:"school_unit_id,omitempty"`
	StudyClassID string               `json:"study_class_id,omitempty"`
	AcademicYear int                  `json:"academic_year"`
	Students     []AtRiskStudentDTO   `json:"students"`
	TotalAtRisk  int                  `json:"total_at_risk"`
	SevereCount  int                  `json:"severe_count"`
	Series       []RiskSeriesPointDTO `json:"series"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// GetRiskReportHandler handles risk-report queries.
type GetRiskReportHandler struct {
	profiles school.UserProfileRepository
	counts   risk.CountsRepository
}

// NewGetRiskReportHandler creates a GetRiskReportHandler.
func NewGetRiskReportHandler(
	profiles school.UserProfileRepository,
	counts risk.CountsRepository,
) *GetRiskReportHandler {
	return &GetRiskReportHandler{
		profiles: profiles,
		counts:   counts,
	}
}

// Handle executes the query.
func (h *GetRiskReportHandler) Handle(ctx context.Context, query GetRiskReportQuery) (*GetRiskReportResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetRiskReport", shared.ErrValidation, err.Error(), err)
	}

	result := &GetRiskReportResult{
		SchoolUnitID: query.SchoolUnitID,
		StudyClassID: query.StudyClassID,
		AcademicYear: query.AcademicYear,
		Students:     []AtRiskStudentDTO{},
		GeneratedAt:  time.Now().UTC(),
	}

	if query.SchoolUnitID != "" {
		if err := h.collectStudents(ctx, query, result); err != nil {
			return nil, err
		}
	}

	if err := h.collectSeries(ctx, query, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (h *GetRiskReportHandler) collectStudents(ctx context.Context, query GetRiskReportQuery, result *GetRiskReportResult) error {
	var (
		students []*school.UserProfile
		err      error
	)
	if query.StudyClassID != "" {
		students, err = h.profiles.GetStudentsByClass(ctx, query.StudyClassID)
	} else {
		students, err = h.profiles.GetStudentsBySchoolUnit(ctx, query.SchoolUnitID)
	}
	if err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}

	for _, s := range students {
		level := riskLevelOf(s)
		if level == 0 {
			continue
		}
		result.TotalAtRisk++
		if level == 2 {
			result.SevereCount++
		}
		if level < query.MinLevel {
			continue
		}
		result.Students = append(result.Students, AtRiskStudentDTO{
			StudentID:       s.ID,
			FullName:        s.FullName,
			StudyClassID:    s.StudyClassID,
			Labels:          s.Labels,
			RiskDescription: s.RiskDescription,
			RiskLevel:       level,
			LastChanged:     s.RiskLevelLastChanged,
		})
	}
	return nil
}

func (h *GetRiskReportHandler) collectSeries(ctx context.Context, query GetRiskReportQuery, result *GetRiskReportResult) error {
	granularity := risk.GranularityCountry
	refID := ""
	switch {
	case query.StudyClassID != "":
		granularity = risk.GranularityClass
		refID = query.StudyClassID
	case query.SchoolUnitID != "":
		granularity = risk.GranularitySchool
		refID = query.SchoolUnitID
	}

	counts, err := h.counts.Get(ctx, granularity, refID, shared.AcademicYear(query.AcademicYear))
	if err != nil {
		if shared.IsNotFound(err) {
			result.Series = []RiskSeriesPointDTO{}
			return nil
		}
		return fmt.Errorf("failed to load at-risk series: %w", err)
	}

	result.Series = flattenSeries(counts.Series)
	return nil
}

// flattenSeries orders the monthly map chronologically for charting.
func flattenSeries(series school.MonthlySeries) []RiskSeriesPointDTO {
	type monthEntry struct {
		key string
		at  time.Time
	}
	months := make([]monthEntry, 0, len(series))
	for key := range series {
		at, err := time.Parse("01-2006", key)
		if err != nil {
			continue
		}
		months = append(months, monthEntry{key: key, at: at})
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].at.Before(months[j].at)
	})

	out := []RiskSeriesPointDTO{}
	for _, m := range months {
		for _, sample := range series[m.key] {
			out = append(out, RiskSeriesPointDTO{Month: m.key, Day: sample.Day, Count: sample.Count})
		}
	}
	return out
}

func riskLevelOf(p *school.UserProfile) int {
	level := 0
	for _, label := range p.Labels {
		switch label {
		case risk.Level2.Label():
			return 2
		case risk.Level1.Label():
			level = 1
		}
	}
	return level
}
