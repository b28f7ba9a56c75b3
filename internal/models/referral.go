// internal/models/referral.go
package models

// ServiceType distinguishes NHS-funded, private and mixed provision.
type ServiceType string

const (
	ServiceTypeNHS     ServiceType = "nhs"
	ServiceTypePrivate ServiceType = "private"
	ServiceTypeMixed   ServiceType = "mixed"
)

// Modality is how sessions are delivered.
type Modality string

const (
	ModalityRemote   Modality = "remote"
	ModalityInPerson Modality = "in_person"
	ModalityMixed    Modality = "mixed"
)

// ReferrerType is the role of the party submitting the referral. It drives
// threshold configuration lookup during routing.
type ReferrerType string

const (
	ReferrerGP           ReferrerType = "gp"
	ReferrerPatient      ReferrerType = "patient"
	ReferrerPsychologist ReferrerType = "psychologist"
	ReferrerAdmin        ReferrerType = "admin"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReferralQuery is an immutable snapshot of a referral, built once per
// matching run. The engine never mutates it.
type ReferralQuery struct {
	ReferralID           string       `json:"referralId"`
	PresentingProblem    string       `json:"presentingProblem"`
	ConditionDescription string       `json:"conditionDescription"`
	RequiredSpecialisms  []string     `json:"requiredSpecialisms"`
	PreferredSpecialisms []string     `json:"preferredSpecialisms"`
	LanguageRequirements []string     `json:"languageRequirements"`
	PatientAgeGroup      string       `json:"patientAgeGroup"`
	ServiceType          ServiceType  `json:"serviceType"`
	Modality             Modality     `json:"modality"`
	Location             *GeoPoint    `json:"location,omitempty"`
	MaxDistanceKm        float64      `json:"maxDistanceKm"`
	ReferrerType         ReferrerType `json:"referrerType"`
}

// QueryText is the free-text used for lexical and semantic scoring.
func (q *ReferralQuery) QueryText() string {
	if q.PresentingProblem != "" {
		return q.PresentingProblem
	}
	return q.ConditionDescription
}
