// Package risk classifies students against the dropout-risk thresholds
// and builds the Romanian risk descriptions. Classification is a pure
// function of the catalog state; comparing two assessments decides
// whether a notification fires, so re-running the classifier on
// unchanged data never emits duplicates.
package risk

import (
	"strings"

	"github.com/edualert/edualert/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// RISK LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// Level is the dropout-risk severity of one dimension or of a student.
type Level int

const (
	LevelNone Level = iota
	Level1          // attention needed
	Level2          // severe
)

// Label returns the profile label attached for the level.
func (l Level) Label() string {
	switch l {
	case Level1:
		return "RISK_1"
	case Level2:
		return "RISK_2"
	default:
		return ""
	}
}

// String returns a stable name for logging.
func (l Level) String() string {
	if l == LevelNone {
		return "none"
	}
	return l.Label()
}

// ══════════════════════════════════════════════════════════════════════════════
// DIMENSION CLASSIFIERS
// ══════════════════════════════════════════════════════════════════════════════

// ClassifyAbsences maps an unfounded absence count in one subject to a
// risk level: 1-3 absences raise Level1, 4 or more Level2.
func ClassifyAbsences(unfounded int) Level {
	switch {
	case unfounded >= 4:
		return Level2
	case unfounded >= 1:
		return Level1
	default:
		return LevelNone
	}
}

// ClassifyCoreAverage maps a core-subject average (Limba Romana or
// Matematica) to a risk level: below 5 is Level2, 5 up to 7 Level1.
func ClassifyCoreAverage(avg *float64) Level {
	if avg == nil {
		return LevelNone
	}
	switch {
	case *avg < 5:
		return Level2
	case *avg < 7:
		return Level1
	default:
		return LevelNone
	}
}

// ClassifyBehavior maps a behavior grade to a risk level: below 8 is
// Level2, 8 or 9 Level1.
func ClassifyBehavior(grade *float64) Level {
	if grade == nil {
		return LevelNone
	}
	switch {
	case *grade < 8:
		return Level2
	case *grade < 10:
		return Level1
	default:
		return LevelNone
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT
// ══════════════════════════════════════════════════════════════════════════════

// Risk description phrases. A student's description concatenates the
// phrases of the triggered dimensions with "și".
const (
	phraseAbsences    = "absențe nemotivate"
	phraseCoreAverage = "medie scăzută la Limba Română sau Matematică"
	phraseBehavior    = "notă scăzută la purtare"
)

// Assessment is the per-dimension risk state of one student at one
// evaluation point.
type Assessment struct {
	Absences    Level
	CoreAverage Level
	Behavior    Level
}

// Overall returns the worst level across all dimensions.
func (a Assessment) Overall() Level {
	worst := a.Absences
	if a.CoreAverage > worst {
		worst = a.CoreAverage
	}
	if a.Behavior > worst {
		worst = a.Behavior
	}
	return worst
}

// Labels returns the profile labels the assessment implies.
func (a Assessment) Labels() []string {
	switch a.Overall() {
	case Level2:
		return []string{Level2.Label()}
	case Level1:
		return []string{Level1.Label()}
	default:
		return nil
	}
}

// Describe builds the Romanian risk summary by joining the triggered
// dimensions' phrases with "și". Empty when no dimension triggered.
func (a Assessment) Describe() string {
	var phrases []string
	if a.Absences != LevelNone {
		phrases = append(phrases, phraseAbsences)
	}
	if a.CoreAverage != LevelNone {
		phrases = append(phrases, phraseCoreAverage)
	}
	if a.Behavior != LevelNone {
		phrases = append(phrases, phraseBehavior)
	}
	return strings.Join(phrases, " și ")
}

// Equal reports whether two assessments triggered the same dimensions at
// the same levels.
func (a Assessment) Equal(other Assessment) bool {
	return a == other
}

// Changed reports whether the current assessment differs from the
// previous one. A notification fires only on change, so evaluating twice
// over unchanged data stays silent.
func Changed(prev, cur Assessment) bool {
	return !prev.Equal(cur)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// Evaluate classifies one student from their subject catalogs and yearly
// catalog. Absence risk is always evaluated; grade risk only once the
// class's semester-end checkpoint has passed (gradesDue), behavior risk
// only from the second-semester checkpoint (behaviorDue).
func Evaluate(subjects []*catalog.StudentCatalogPerSubject, year *catalog.StudentCatalogPerYear, gradesDue, behaviorDue bool) Assessment {
	var a Assessment

	worstAbsences := 0
	for _, s := range subjects {
		if s.UnfoundedAbsCountAnnual > worstAbsences {
			worstAbsences = s.UnfoundedAbsCountAnnual
		}
	}
	a.Absences = ClassifyAbsences(worstAbsences)

	if gradesDue {
		for _, s := range subjects {
			if !s.IsCoreSubject {
				continue
			}
			if level := ClassifyCoreAverage(latestAverage(s)); level > a.CoreAverage {
				a.CoreAverage = level
			}
		}
	}

	if behaviorDue && year != nil {
		grade := year.BehaviorGradeAnnual
		if grade == nil {
			grade = year.BehaviorGradeSem2
		}
		a.Behavior = ClassifyBehavior(grade)
	}

	return a
}

// latestAverage picks the most settled average a subject catalog has:
// final, then second semester, then first.
func latestAverage(s *catalog.StudentCatalogPerSubject) *float64 {
	if s.AvgFinal != nil {
		return s.AvgFinal
	}
	if s.AvgSem2 != nil {
		return s.AvgSem2
	}
	return s.AvgSem1
}

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY ALERTS
// ══════════════════════════════════════════════════════════════════════════════

// Monthly alert thresholds. This is a second, independently scheduled
// pass over the same signals as the classifier: it fires on fixed
// monthly checkpoints throughout the year instead of semester ends.
const (
	AbsenceAlertThreshold = 10
)

// NeedsAbsenceAlert reports whether a cumulative unfounded absence count
// crosses the monthly alert threshold.
func NeedsAbsenceAlert(unfounded int) bool {
	return unfounded > AbsenceAlertThreshold
}

// SubjectsBelowLimit returns the subjects whose settled average sits
// below the failing threshold for the subject kind.
func SubjectsBelowLimit(subjects []*catalog.StudentCatalogPerSubject) []*catalog.StudentCatalogPerSubject {
	var out []*catalog.StudentCatalogPerSubject
	for _, s := range subjects {
		avg := latestAverage(s)
		if avg != nil && *avg < catalog.FailingThreshold(s.IsCoordinationSubject) {
			out = append(out, s)
		}
	}
	return out
}
