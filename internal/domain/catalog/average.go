package catalog

import (
	"math"

	"github.com/edualert/edualert/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUNDING AND WEIGHTS
// ══════════════════════════════════════════════════════════════════════════════

// RoundHalfUp rounds to the nearest integer, halves away from zero.
// Semester averages are published as whole grades.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// RoundHalfUp2 rounds to two decimal places, halves up. Annual and
// examination averages keep two decimals.
func RoundHalfUp2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// ThesisWeight returns the weight of the thesis grade in the semester
// average: subjects taught up to two hours a week weigh it twice a
// regular grade, heavier subjects three times.
func ThesisWeight(weeklyHours int) int {
	if weeklyHours <= 2 {
		return 2
	}
	return 3
}

// MinRegularGradeCount returns how many regular grades a semester needs
// before an average is published: two for subjects taught up to two
// hours a week, one otherwise.
func MinRegularGradeCount(weeklyHours int) int {
	if weeklyHours <= 2 {
		return 2
	}
	return 1
}

// FailingThreshold returns the annual average below which a subject is
// failed: 5 for ordinary subjects, 6 for coordination subjects.
func FailingThreshold(isCoordination bool) float64 {
	if isCoordination {
		return 6
	}
	return 5
}

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER AND ANNUAL AVERAGES
// ══════════════════════════════════════════════════════════════════════════════

// SemesterAverage computes one semester's average for a catalog, or nil
// when not enough grades exist. With complete difference grades for the
// semester, the average is their mean instead; otherwise regular grades
// weigh 1 each and the thesis grade, when wanted and present, weighs
// ThesisWeight. The result is a whole grade, rounded half-up.
func (c *StudentCatalogPerSubject) SemesterAverage(sem shared.Semester) *float64 {
	if avg := DifferenceAverage(c.DifferenceGrades(&sem)); avg != nil {
		return avg
	}

	regulars := c.GradesForSemester(sem, GradeRegular)
	if len(regulars) < MinRegularGradeCount(c.WeeklyHoursCount) {
		return nil
	}

	sum := 0.0
	for _, g := range regulars {
		sum += float64(g.Value)
	}
	weight := len(regulars)

	if c.WantsThesis {
		if thesis := c.ThesisGrade(sem); thesis != nil {
			w := ThesisWeight(c.WeeklyHoursCount)
			sum += float64(thesis.Value) * float64(w)
			weight += w
		}
	}

	avg := float64(RoundHalfUp(sum / float64(weight)))
	return &avg
}

// AnnualAverage is the mean of the two semester averages, two decimals,
// nil when either is missing.
func AnnualAverage(s1, s2 *float64) *float64 {
	if s1 == nil || s2 == nil {
		return nil
	}
	avg := RoundHalfUp2((*s1 + *s2) / 2)
	return &avg
}

// SecondExaminationAverage is the mean of both examiner scores across
// all second-examination rows, two decimals, nil without rows.
func SecondExaminationAverage(grades []*ExaminationGrade) *float64 {
	if len(grades) == 0 {
		return nil
	}
	sum := 0.0
	for _, g := range grades {
		sum += float64(g.Grade1) + float64(g.Grade2)
	}
	avg := RoundHalfUp2(sum / float64(len(grades)*2))
	return &avg
}

// DifferenceAverage is the mean of the four component scores of a
// complete difference examination (written and oral papers, two
// examiners each), two decimals. Nil until both papers exist.
func DifferenceAverage(grades []*ExaminationGrade) *float64 {
	var written, oral *ExaminationGrade
	for _, g := range grades {
		switch g.ExaminationType {
		case ExamWritten:
			written = g
		case ExamOral:
			oral = g
		}
	}
	if written == nil || oral == nil {
		return nil
	}
	sum := float64(written.Grade1) + float64(written.Grade2) + float64(oral.Grade1) + float64(oral.Grade2)
	avg := RoundHalfUp2(sum / 4)
	return &avg
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTATION
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeAverages rewrites every average field of the catalog from its
// current grade and examination rows. Whole-year difference grades
// override the annual average; a second examination replaces a failing
// final average.
func (c *StudentCatalogPerSubject) RecomputeAverages() {
	c.AvgSem1 = c.SemesterAverage(shared.SemesterFirst)
	c.AvgSem2 = c.SemesterAverage(shared.SemesterSecond)

	c.AvgAnnual = AnnualAverage(c.AvgSem1, c.AvgSem2)
	if avg := DifferenceAverage(c.DifferenceGrades(nil)); avg != nil {
		c.AvgAnnual = avg
	}

	c.AvgAfterSecondExamination = nil
	if c.AvgAnnual != nil && *c.AvgAnnual < FailingThreshold(c.IsCoordinationSubject) {
		c.AvgAfterSecondExamination = SecondExaminationAverage(c.SecondExaminationGrades())
	}

	if c.AvgAfterSecondExamination != nil {
		c.AvgFinal = c.AvgAfterSecondExamination
	} else {
		c.AvgFinal = c.AvgAnnual
	}
}

// RecomputeAbsences recounts every absence counter from the absence rows.
// Annual counters are the sum of both semesters.
func (c *StudentCatalogPerSubject) RecomputeAbsences() {
	c.AbsCountSem1, c.AbsCountSem2 = 0, 0
	c.FoundedAbsCountSem1, c.FoundedAbsCountSem2 = 0, 0
	c.UnfoundedAbsCountSem1, c.UnfoundedAbsCountSem2 = 0, 0

	for _, a := range c.Absences {
		first := a.Semester == shared.SemesterFirst
		if first {
			c.AbsCountSem1++
		} else {
			c.AbsCountSem2++
		}
		switch {
		case a.IsFounded && first:
			c.FoundedAbsCountSem1++
		case a.IsFounded:
			c.FoundedAbsCountSem2++
		case first:
			c.UnfoundedAbsCountSem1++
		default:
			c.UnfoundedAbsCountSem2++
		}
	}

	c.AbsCountAnnual = c.AbsCountSem1 + c.AbsCountSem2
	c.FoundedAbsCountAnnual = c.FoundedAbsCountSem1 + c.FoundedAbsCountSem2
	c.UnfoundedAbsCountAnnual = c.UnfoundedAbsCountSem1 + c.UnfoundedAbsCountSem2
}

// Recompute refreshes both the averages and the absence counters.
func (c *StudentCatalogPerSubject) Recompute() {
	c.RecomputeAverages()
	c.RecomputeAbsences()
}
