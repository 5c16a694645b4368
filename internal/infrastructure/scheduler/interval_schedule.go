package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule runs a job a fixed duration after each completion.
// Used for the passes that have no natural clock alignment, such as
// the notification retry sweep and the working-weeks recomputation.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a schedule with the given interval.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns t plus the interval.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule as "@every <interval>".
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
