package catalog

// ══════════════════════════════════════════════════════════════════════════════
// YEARLY ROLL-UP
// ══════════════════════════════════════════════════════════════════════════════

// weightedMean averages the non-nil values, each weighted by the
// subject's weekly hours. Nil when no subject contributes.
func weightedMean(values []*float64, weights []int) *float64 {
	sum, weight := 0.0, 0
	for i, v := range values {
		if v == nil {
			continue
		}
		w := weights[i]
		if w <= 0 {
			w = 1
		}
		sum += *v * float64(w)
		weight += w
	}
	if weight == 0 {
		return nil
	}
	avg := RoundHalfUp2(sum / float64(weight))
	return &avg
}

// RecomputeFromSubjects rewrites the yearly catalog's averages and
// absence counters from the student's subject catalogs. Each subject
// average is weighted by its weekly-hours count; absence counters are
// plain sums. Exempted subject catalogs do not contribute.
func (y *StudentCatalogPerYear) RecomputeFromSubjects(subjects []*StudentCatalogPerSubject) {
	var (
		sem1, sem2, annual, final []*float64
		weights                   []int
	)

	y.AbsCountSem1, y.AbsCountSem2, y.AbsCountAnnual = 0, 0, 0
	y.FoundedAbsCountSem1, y.FoundedAbsCountSem2, y.FoundedAbsCountAnnual = 0, 0, 0
	y.UnfoundedAbsCountSem1, y.UnfoundedAbsCountSem2, y.UnfoundedAbsCountAnnual = 0, 0, 0

	for _, s := range subjects {
		if s.IsExempted {
			continue
		}
		sem1 = append(sem1, s.AvgSem1)
		sem2 = append(sem2, s.AvgSem2)
		annual = append(annual, s.AvgAnnual)
		final = append(final, s.AvgFinal)
		weights = append(weights, s.WeeklyHoursCount)

		y.AbsCountSem1 += s.AbsCountSem1
		y.AbsCountSem2 += s.AbsCountSem2
		y.AbsCountAnnual += s.AbsCountAnnual
		y.FoundedAbsCountSem1 += s.FoundedAbsCountSem1
		y.FoundedAbsCountSem2 += s.FoundedAbsCountSem2
		y.FoundedAbsCountAnnual += s.FoundedAbsCountAnnual
		y.UnfoundedAbsCountSem1 += s.UnfoundedAbsCountSem1
		y.UnfoundedAbsCountSem2 += s.UnfoundedAbsCountSem2
		y.UnfoundedAbsCountAnnual += s.UnfoundedAbsCountAnnual
	}

	y.AvgSem1 = weightedMean(sem1, weights)
	y.AvgSem2 = weightedMean(sem2, weights)
	y.AvgAnnual = weightedMean(annual, weights)
	y.AvgFinal = weightedMean(final, weights)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCOPE AGGREGATES
// ══════════════════════════════════════════════════════════════════════════════

// ScopeAggregates are the arithmetic means a class, program or school
// unit carries over its enrolled, non-exempted students.
type ScopeAggregates struct {
	AvgSem1               *float64
	AvgSem2               *float64
	AvgAnnual             *float64
	UnfoundedAbsAvgSem1   *float64
	UnfoundedAbsAvgSem2   *float64
	UnfoundedAbsAvgAnnual *float64
}

// AggregateYearlyCatalogs computes scope-level means over yearly
// catalogs. Averages skip students without a published value; absence
// means run over all non-exempted students. The annual average is taken
// from AvgFinal, so a passed second examination counts.
func AggregateYearlyCatalogs(catalogs []*StudentCatalogPerYear) ScopeAggregates {
	var agg ScopeAggregates
	var sem1, sem2, final []float64
	absSem1, absSem2, absAnnual, students := 0, 0, 0, 0

	for _, c := range catalogs {
		if c.IsExempted {
			continue
		}
		students++
		if c.AvgSem1 != nil {
			sem1 = append(sem1, *c.AvgSem1)
		}
		if c.AvgSem2 != nil {
			sem2 = append(sem2, *c.AvgSem2)
		}
		if c.AvgFinal != nil {
			final = append(final, *c.AvgFinal)
		}
		absSem1 += c.UnfoundedAbsCountSem1
		absSem2 += c.UnfoundedAbsCountSem2
		absAnnual += c.UnfoundedAbsCountAnnual
	}

	agg.AvgSem1 = meanOf(sem1)
	agg.AvgSem2 = meanOf(sem2)
	agg.AvgAnnual = meanOf(final)
	if students > 0 {
		agg.UnfoundedAbsAvgSem1 = ptr(RoundHalfUp2(float64(absSem1) / float64(students)))
		agg.UnfoundedAbsAvgSem2 = ptr(RoundHalfUp2(float64(absSem2) / float64(students)))
		agg.UnfoundedAbsAvgAnnual = ptr(RoundHalfUp2(float64(absAnnual) / float64(students)))
	}
	return agg
}

func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return ptr(RoundHalfUp2(sum / float64(len(values))))
}

func ptr(v float64) *float64 {
	return &v
}
