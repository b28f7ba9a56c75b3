// internal/matching/structured/scorer.go
package structured

import (
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/models"
)

// Component weights. Signals the query does not constrain are excluded from
// both numerator and denominator, so candidates are never penalized for
// requirements that were not stated.
const (
	weightSpecialism = 0.4
	weightLanguage   = 0.2
	weightAgeGroup   = 0.2
	weightExperience = 0.2

	requiredSpecialismShare  = 0.7
	preferredSpecialismShare = 0.3
)

// Scorer computes the structured feature-overlap score. It works standalone
// when the referral has no query text, and as a blending input after hybrid
// retrieval.
type Scorer struct {
	logger logger.Logger
}

func NewScorer(log logger.Logger) *Scorer {
	return &Scorer{
		logger: log.WithFields(map[string]interface{}{"component": "structured"}),
	}
}

// Score returns a value in [0,1] for the candidate against the query.
func (s *Scorer) Score(candidate *models.CandidateProfile, query *models.ReferralQuery) float64 {
	var total, applied float64

	if spec, ok := specialismScore(candidate, query); ok {
		total += weightSpecialism * spec
		applied += weightSpecialism
	}
	if lang, ok := languageScore(candidate, query); ok {
		total += weightLanguage * lang
		applied += weightLanguage
	}
	if age, ok := ageGroupScore(candidate, query); ok {
		total += weightAgeGroup * age
		applied += weightAgeGroup
	}
	total += weightExperience * experienceScore(candidate)
	applied += weightExperience

	score := total / applied
	if score > 1 {
		score = 1
	}
	return score
}

// Components returns the per-signal breakdown used in explanations.
func (s *Scorer) Components(candidate *models.CandidateProfile, query *models.ReferralQuery) map[string]float64 {
	out := map[string]float64{
		"experience": experienceScore(candidate),
	}
	if spec, ok := specialismScore(candidate, query); ok {
		out["specialism"] = spec
	}
	if lang, ok := languageScore(candidate, query); ok {
		out["language"] = lang
	}
	if age, ok := ageGroupScore(candidate, query); ok {
		out["age_group"] = age
	}
	return out
}

func specialismScore(candidate *models.CandidateProfile, query *models.ReferralQuery) (float64, bool) {
	if len(query.RequiredSpecialisms) == 0 && len(query.PreferredSpecialisms) == 0 {
		return 1.0, false
	}
	required := overlapRatio(query.RequiredSpecialisms, candidate.Specialisms)
	preferred := overlapRatio(query.PreferredSpecialisms, candidate.Specialisms)
	if len(query.RequiredSpecialisms) == 0 {
		required = 1.0
	}
	if len(query.PreferredSpecialisms) == 0 {
		preferred = 1.0
	}
	return requiredSpecialismShare*required + preferredSpecialismShare*preferred, true
}

func languageScore(candidate *models.CandidateProfile, query *models.ReferralQuery) (float64, bool) {
	if len(query.LanguageRequirements) == 0 {
		return 1.0, false
	}
	return overlapRatio(query.LanguageRequirements, candidate.Languages), true
}

func ageGroupScore(candidate *models.CandidateProfile, query *models.ReferralQuery) (float64, bool) {
	if query.PatientAgeGroup == "" {
		return 1.0, false
	}
	if len(candidate.PreferredAgeGroups) == 0 {
		// No preference stated by the candidate counts as a match.
		return 1.0, true
	}
	if contains(candidate.PreferredAgeGroups, query.PatientAgeGroup) {
		return 1.0, true
	}
	return 0.0, true
}

func experienceScore(candidate *models.CandidateProfile) float64 {
	if candidate.YearsExperience == nil {
		return 0.5
	}
	years := *candidate.YearsExperience
	switch {
	case years >= 10:
		return 1.0
	case years >= 5:
		return 0.8
	case years >= 2:
		return 0.6
	default:
		return 0.4
	}
}

// overlapRatio is the fraction of required entries present in available.
func overlapRatio(required, available []string) float64 {
	if len(required) == 0 {
		return 0
	}
	matched := 0
	for _, r := range required {
		if contains(available, r) {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
