package ranking

import (
	"context"
	"time"
)

// PlacementEntry is one row of a computed placement board for a class
// or school scope.
type PlacementEntry struct {
	StudentID         string   `json:"student_id"`
	StudentName       string   `json:"student_name"`
	PlaceByAverage    int      `json:"place_by_average"`
	PlaceByAbsences   int      `json:"place_by_absences"`
	Average           *float64 `json:"average,omitempty"`
	UnfoundedAbsences int      `json:"unfounded_absences"`
}

// PlacementCache caches computed placement boards keyed by scope and
// period so repeated reads skip the aggregation.
type PlacementCache interface {
	GetPlacements(ctx context.Context, scopeID string, scope Scope, period Period) ([]*PlacementEntry, error)
	SetPlacements(ctx context.Context, scopeID string, scope Scope, period Period, entries []*PlacementEntry, ttl time.Duration) error
	InvalidateScope(ctx context.Context, scopeID string) error
}
