// internal/models/match_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortMatches(t *testing.T) {
	matches := []MatchResult{
		{CandidateID: "c", Calibrated: 0.5},
		{CandidateID: "a", Calibrated: 0.9},
		{CandidateID: "b", Calibrated: 0.5},
	}

	SortMatches(matches)

	assert.Equal(t, "a", matches[0].CandidateID)
	// Equal scores break ties by identifier for stable output.
	assert.Equal(t, "b", matches[1].CandidateID)
	assert.Equal(t, "c", matches[2].CandidateID)
}

func TestReferralQuery_QueryText(t *testing.T) {
	q := &ReferralQuery{PresentingProblem: "anxiety", ConditionDescription: "longer text"}
	assert.Equal(t, "anxiety", q.QueryText())

	q.PresentingProblem = ""
	assert.Equal(t, "longer text", q.QueryText())

	q.ConditionDescription = ""
	assert.Empty(t, q.QueryText())
}

func TestThresholdConfig_Inverted(t *testing.T) {
	assert.False(t, ThresholdConfig{AutoThreshold: 0.7, HighTouchThreshold: 0.5}.Inverted())
	assert.True(t, ThresholdConfig{AutoThreshold: 0.4, HighTouchThreshold: 0.6}.Inverted())
}

func TestDefaultThresholds_CoverAllReferrerTypes(t *testing.T) {
	defaults := DefaultThresholds()
	byType := map[ReferrerType]ThresholdConfig{}
	for _, cfg := range defaults {
		byType[cfg.UserType] = cfg
	}

	assert.Len(t, defaults, 4)
	assert.Equal(t, 0.7, byType[ReferrerGP].AutoThreshold)
	assert.Equal(t, 0.8, byType[ReferrerPatient].AutoThreshold)
	assert.Equal(t, 0.6, byType[ReferrerPsychologist].AutoThreshold)
	assert.Equal(t, 0.3, byType[ReferrerAdmin].HighTouchThreshold)

	for _, cfg := range defaults {
		assert.True(t, cfg.IsActive)
		assert.False(t, cfg.Inverted())
	}
}

func TestCandidateProfile_Document(t *testing.T) {
	c := &CandidateProfile{
		Name:                "Dr Smith",
		Specialisms:         []string{"anxiety", "trauma"},
		Qualifications:      []string{"DClinPsy"},
		PreferredConditions: []string{"panic attacks"},
	}
	doc := c.Document()
	assert.Contains(t, doc, "Dr Smith")
	assert.Contains(t, doc, "anxiety trauma")
	assert.Contains(t, doc, "panic attacks")

	assert.Empty(t, (&CandidateProfile{}).Document())
}
