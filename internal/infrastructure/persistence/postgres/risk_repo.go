package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edualert/edualert/internal/domain/risk"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AT-RISK COUNTS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RiskCountsRepository implements risk.CountsRepository for PostgreSQL.
// Each scope's whole monthly series lives in one JSONB row.
type RiskCountsRepository struct {
	conn *Connection
}

// NewRiskCountsRepository creates a new RiskCountsRepository.
func NewRiskCountsRepository(conn *Connection) *RiskCountsRepository {
	return &RiskCountsRepository{conn: conn}
}

// Get returns the series for one scope. ref_id is NULL for the country
// granularity, so the match uses IS NOT DISTINCT FROM.
func (r *RiskCountsRepository) Get(ctx context.Context, granularity risk.Granularity, refID string, year shared.AcademicYear) (*risk.StudentAtRiskCounts, error) {
	query := `
		SELECT id, granularity, COALESCE(ref_id::text, ''), academic_year, series, updated_at
		FROM at_risk_counts
		WHERE granularity = $1 AND ref_id IS NOT DISTINCT FROM $2 AND academic_year = $3
	`

	var counts risk.StudentAtRiskCounts
	var gran string
	var yearInt int
	var seriesJSON []byte
	err := r.conn.QueryRow(ctx, query, string(granularity), nullableID(refID), int(year)).Scan(
		&counts.ID,
		&gran,
		&counts.RefID,
		&yearInt,
		&seriesJSON,
		&counts.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("risk", "GetCounts", shared.ErrNotFound, "at-risk counts series not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get at-risk counts: %w", err)
	}

	counts.Granularity = risk.Granularity(gran)
	counts.AcademicYear = shared.AcademicYear(yearInt)
	counts.Series = unmarshalSeries(seriesJSON)
	return &counts, nil
}

// Save upserts the series for one scope.
func (r *RiskCountsRepository) Save(ctx context.Context, counts *risk.StudentAtRiskCounts) error {
	seriesJSON, err := json.Marshal(counts.Series)
	if err != nil {
		return fmt.Errorf("failed to marshal at-risk series: %w", err)
	}

	update := `
		UPDATE at_risk_counts
		SET series = $1, updated_at = $2
		WHERE granularity = $3 AND ref_id IS NOT DISTINCT FROM $4 AND academic_year = $5
	`
	result, err := r.conn.Exec(ctx, update,
		seriesJSON,
		counts.UpdatedAt,
		string(counts.Granularity),
		nullableID(counts.RefID),
		int(counts.AcademicYear),
	)
	if err != nil {
		return fmt.Errorf("failed to update at-risk counts: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	insert := `
		INSERT INTO at_risk_counts (id, granularity, ref_id, academic_year, series, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.conn.Exec(ctx, insert,
		counts.ID,
		string(counts.Granularity),
		nullableID(counts.RefID),
		int(counts.AcademicYear),
		seriesJSON,
		counts.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save at-risk counts: %w", err)
	}
	return nil
}
