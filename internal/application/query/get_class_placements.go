package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/edualert/edualert/internal/domain/catalog"
	"github.com/edualert/edualert/internal/domain/ranking"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CLASS PLACEMENTS QUERY
// The placement board for one study class or school unit: places by
// average and by unfounded absences for the requested period. Served
// from the placement cache when warm, rebuilt from the stored place
// fields otherwise.
// ══════════════════════════════════════════════════════════════════════════════

// placementCacheTTL keeps a rebuilt board until the next nightly
// placement run makes it stale anyway.
const placementCacheTTL = 12 * time.Hour

// GetPlacementsQuery asks for the placement board of one scope.
type GetPlacementsQuery struct {
	// ScopeID is a study class ID or a school unit ID, per Scope.
	ScopeID string

	// Scope is "class" or "school".
	Scope string

	// Period is "sem1", "sem2" or "annual".
	Period string

	// Limit caps the board length (0 = full board).
	Limit int
}

// Validate checks and normalizes the query parameters.
func (q *GetPlacementsQuery) Validate() error {
	if q.ScopeID == "" {
		return errors.New("scope id is required")
	}
	if q.Scope != "class" && q.Scope != "school" {
		return errors.New("scope must be 'class' or 'school'")
	}
	switch q.Period {
	case "sem1", "sem2", "annual":
	case "":
		q.Period = "annual"
	default:
		return errors.New("period must be 'sem1', 'sem2' or 'annual'")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

func (q *GetPlacementsQuery) scope() ranking.Scope {
	if q.Scope == "school" {
		return ranking.ScopeSchool
	}
	return ranking.ScopeClass
}

func (q *GetPlacementsQuery) period() ranking.Period {
	switch q.Period {
	case "sem1":
		return ranking.PeriodSem1
	case "sem2":
		return ranking.PeriodSem2
	default:
		return ranking.PeriodAnnual
	}
}

// GetPlacementsResult is the placement board response.
type GetPlacementsResult struct {
	ScopeID     string                    `json:"scope_id"`
	Scope       string                    `json:"scope"`
	Period      string                    `json:"period"`
	Entries     []*ranking.PlacementEntry `json:"entries"`
	TotalCount  int                       `json:"total_count"`
	FromCache   bool                      `json:"from_cache"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// GetPlacementsHandler handles placement-board queries.
type GetPlacementsHandler struct {
	yearlyCatalogs catalog.YearlyCatalogRepository
	profiles       school.UserProfileRepository
	cache          ranking.PlacementCache
}

// NewGetPlacementsHandler creates a GetPlacementsHandler.
func NewGetPlacementsHandler(
	yearlyCatalogs catalog.YearlyCatalogRepository,
	profiles school.UserProfileRepository,
	cache ranking.PlacementCache,
) *GetPlacementsHandler {
	return &GetPlacementsHandler{
		yearlyCatalogs: yearlyCatalogs,
		profiles:       profiles,
		cache:          cache,
	}
}

// Handle executes the query.
func (h *GetPlacementsHandler) Handle(ctx context.Context, query GetPlacementsQuery) (*GetPlacementsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetPlacements", shared.ErrValidation, err.Error(), err)
	}
	scope := query.scope()
	period := query.period()

	if h.cache != nil {
		entries, err := h.cache.GetPlacements(ctx, query.ScopeID, scope, period)
		if err == nil && len(entries) > 0 {
			return h.buildResult(query, entries, true), nil
		}
	}

	entries, err := h.rebuildBoard(ctx, query.ScopeID, scope, period)
	if err != nil {
		return nil, err
	}

	if h.cache != nil && len(entries) > 0 {
		_ = h.cache.SetPlacements(ctx, query.ScopeID, scope, period, entries, placementCacheTTL)
	}

	return h.buildResult(query, entries, false), nil
}

// rebuildBoard reads the yearly catalogs of the scope and assembles the
// board from the place fields the nightly placement run stored.
func (h *GetPlacementsHandler) rebuildBoard(ctx context.Context, scopeID string, scope ranking.Scope, period ranking.Period) ([]*ranking.PlacementEntry, error) {
	var (
		catalogs []*catalog.StudentCatalogPerYear
		err      error
	)
	if scope == ranking.ScopeSchool {
		year := shared.AcademicYearFor(time.Now().UTC())
		catalogs, err = h.yearlyCatalogs.GetBySchoolUnit(ctx, scopeID, year)
	} else {
		catalogs, err = h.yearlyCatalogs.GetByStudyClass(ctx, scopeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load yearly catalogs: %w", err)
	}

	entries := make([]*ranking.PlacementEntry, 0, len(catalogs))
	for _, c := range catalogs {
		avgPlace := ranking.PlaceByAverage(c, scope, period)
		absPlace := ranking.PlaceByAbsences(c, scope, period)
		if avgPlace == nil && absPlace == nil {
			continue
		}
		entry := &ranking.PlacementEntry{
			StudentID:         c.StudentID,
			Average:           ranking.AverageFor(c, period),
			UnfoundedAbsences: ranking.AbsencesFor(c, period),
		}
		if avgPlace != nil {
			entry.PlaceByAverage = *avgPlace
		}
		if absPlace != nil {
			entry.PlaceByAbsences = *absPlace
		}
		entries = append(entries, entry)
	}

	if err := h.fillNames(ctx, entries); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].PlaceByAverage, entries[j].PlaceByAverage
		if pi == 0 {
			return false
		}
		if pj == 0 {
			return true
		}
		return pi < pj
	})

	return entries, nil
}

func (h *GetPlacementsHandler) fillNames(ctx context.Context, entries []*ranking.PlacementEntry) error {
	for _, e := range entries {
		profile, err := h.profiles.GetByID(ctx, e.StudentID)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("failed to load student profile: %w", err)
		}
		e.StudentName = profile.FullName
	}
	return nil
}

func (h *GetPlacementsHandler) buildResult(query GetPlacementsQuery, entries []*ranking.PlacementEntry, fromCache bool) *GetPlacementsResult {
	total := len(entries)
	if query.Limit > 0 && len(entries) > query.Limit {
		entries = entries[:query.Limit]
	}
	return &GetPlacementsResult{
		ScopeID:     query.ScopeID,
		Scope:       query.Scope,
		Period:      query.Period,
		Entries:     entries,
		TotalCount:  total,
		FromCache:   fromCache,
		GeneratedAt: time.Now().UTC(),
	}
}
