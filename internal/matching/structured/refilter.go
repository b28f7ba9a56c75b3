// internal/matching/structured/refilter.go
package structured

import "referwell-matching/internal/models"

// MeetsHardConstraints checks the non-negotiable structured requirements.
// Used as a re-filter pass after hybrid retrieval: failing matches are
// removed outright, not re-scored.
//
// A candidate passes when it covers at least one required specialism, every
// required language, and the patient's age group (an empty preference list
// on either side is treated as no constraint).
func MeetsHardConstraints(candidate *models.CandidateProfile, query *models.ReferralQuery) bool {
	if len(query.RequiredSpecialisms) > 0 {
		if overlapRatio(query.RequiredSpecialisms, candidate.Specialisms) == 0 {
			return false
		}
	}
	if len(query.LanguageRequirements) > 0 {
		if overlapRatio(query.LanguageRequirements, candidate.Languages) < 1 {
			return false
		}
	}
	if query.PatientAgeGroup != "" && len(candidate.PreferredAgeGroups) > 0 {
		if !contains(candidate.PreferredAgeGroups, query.PatientAgeGroup) {
			return false
		}
	}
	return true
}
