package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CronExpression is a parsed 5-field cron expression
// (minute hour day-of-month month day-of-week). It implements
// Schedule, so it can be registered directly on the Scheduler.
//
// The periodic passes use expressions like:
//   - "0 3 * * *"  nightly placement recomputation
//   - "0 4 * * *"  nightly risk evaluation
//   - "0 8 1 * *"  monthly report on the 1st at 08:00
//   - "0 2 1 8 *"  next-year calendar preparation on August 1st
type CronExpression struct {
	raw      string
	minutes  []int
	hours    []int
	days     []int
	months   []int
	weekdays []int // 0 = Sunday
}

// ParseCronExpression parses a 5-field cron expression. Each field
// accepts "*", single values, lists (n,m), ranges (n-m) and steps
// (*/s or n-m/s).
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	specs := []struct {
		name     string
		min, max int
		dst      *[]int
	}{
		{"minute", 0, 59, nil},
		{"hour", 0, 23, nil},
		{"day", 1, 31, nil},
		{"month", 1, 12, nil},
		{"weekday", 0, 6, nil},
	}

	ce := &CronExpression{raw: expr}
	specs[0].dst = &ce.minutes
	specs[1].dst = &ce.hours
	specs[2].dst = &ce.days
	specs[3].dst = &ce.months
	specs[4].dst = &ce.weekdays

	for i, spec := range specs {
		values, err := parseCronField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dst = values
	}

	return ce, nil
}

func parseCronField(field string, min, max int) ([]int, error) {
	if field == "*" {
		values := make([]int, 0, max-min+1)
		for v := min; v <= max; v++ {
			values = append(values, v)
		}
		return values, nil
	}

	if strings.Contains(field, "/") {
		parts := strings.SplitN(field, "/", 2)
		step, err := strconv.Atoi(parts[1])
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("invalid step value: %s", parts[1])
		}

		start, end := min, max
		if parts[0] != "*" {
			if strings.Contains(parts[0], "-") {
				bounds := strings.SplitN(parts[0], "-", 2)
				start, _ = strconv.Atoi(bounds[0])
				end, _ = strconv.Atoi(bounds[1])
			} else {
				start, _ = strconv.Atoi(parts[0])
			}
		}

		var values []int
		for v := start; v <= end; v += step {
			if v >= min && v <= max {
				values = append(values, v)
			}
		}
		return values, nil
	}

	if strings.Contains(field, "-") {
		bounds := strings.SplitN(field, "-", 2)
		start, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("invalid range start: %s", bounds[0])
		}
		end, err := strconv.Atoi(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("invalid range end: %s", bounds[1])
		}

		var values []int
		for v := start; v <= end; v++ {
			if v >= min && v <= max {
				values = append(values, v)
			}
		}
		return values, nil
	}

	if strings.Contains(field, ",") {
		var values []int
		for _, part := range strings.Split(field, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("invalid list value: %s", part)
			}
			if v >= min && v <= max {
				values = append(values, v)
			}
		}
		sort.Ints(values)
		return values, nil
	}

	v, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %s", field)
	}
	if v < min || v > max {
		return nil, fmt.Errorf("value out of range [%d-%d]: %d", min, max, v)
	}
	return []int{v}, nil
}

// String returns the original expression text.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the first matching time strictly after t, scanning
// minute by minute. The scan starts at the next whole minute, so a
// time that matches the expression itself advances to the following
// slot. Bounded to one year; valid expressions always match within
// that window.
func (ce *CronExpression) Next(t time.Time) time.Time {
	candidate := t.Add(time.Minute).Truncate(time.Minute)

	const maxMinutes = 366 * 24 * 60
	for i := 0; i < maxMinutes; i++ {
		if ce.matches(candidate) {
			return candidate
		}
		candidate = candidate.Add(time.Minute)
	}

	return time.Time{}
}

func (ce *CronExpression) matches(t time.Time) bool {
	return containsInt(ce.minutes, t.Minute()) &&
		containsInt(ce.hours, t.Hour()) &&
		containsInt(ce.days, t.Day()) &&
		containsInt(ce.months, int(t.Month())) &&
		containsInt(ce.weekdays, int(t.Weekday()))
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
