package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edualert/edualert/internal/domain/catalog"
)

func f64(v float64) *float64 { return &v }

func TestSituationSummaryEmptyWhenNothingPublished(t *testing.T) {
	subjects := []*catalog.StudentCatalogPerSubject{
		{SubjectName: "Matematică"},
		{SubjectName: "Limba română"},
	}

	assert.Empty(t, SituationSummary("Ion Popescu", subjects))
}

func TestSituationSummaryListsAveragesAndAbsences(t *testing.T) {
	subjects := []*catalog.StudentCatalogPerSubject{
		{
			SubjectName: "Matematică",
			AvgSem1:     f64(7),
			AvgSem2:     f64(8),
		},
		{
			SubjectName:             "Limba română",
			AbsCountAnnual:          5,
			UnfoundedAbsCountAnnual: 2,
		},
		{SubjectName: "Educație fizică"},
	}

	summary := SituationSummary("Ion Popescu", subjects)

	assert.Contains(t, summary, "Ion Popescu")
	assert.Contains(t, summary, "Matematică: media sem. I 7.00, media sem. II 8.00")
	assert.Contains(t, summary, "Limba română: 5 absențe (2 nemotivate)")
	assert.NotContains(t, summary, "Educație fizică")
}
