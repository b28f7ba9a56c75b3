// internal/models/candidate.go
package models

import "strings"

// AvailabilityStatus of a provider.
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityLimited     AvailabilityStatus = "limited"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

// CandidateProfile is a read-only snapshot of a provider. Embedding may be
// absent or stale; the vector scoring path skips such candidates.
type CandidateProfile struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Specialisms         []string           `json:"specialisms"`
	Qualifications      []string           `json:"qualifications"`
	Languages           []string           `json:"languages"`
	PreferredConditions []string           `json:"preferredConditions"`
	PreferredAgeGroups  []string           `json:"preferredAgeGroups"`
	ServiceType         ServiceType        `json:"serviceType"`
	Modality            Modality           `json:"modality"`
	Location            *GeoPoint          `json:"location,omitempty"`
	MaxPatients         int                `json:"maxPatients"`
	CurrentPatients     int                `json:"currentPatients"`
	AvailabilityStatus  AvailabilityStatus `json:"availabilityStatus"`
	YearsExperience     *int               `json:"yearsExperience,omitempty"`
	Embedding           []float64          `json:"embedding,omitempty"`
}

// HasEmbedding reports whether a precomputed embedding vector is present.
func (c *CandidateProfile) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// HasCapacity reports whether the candidate can take another patient.
func (c *CandidateProfile) HasCapacity() bool {
	return c.CurrentPatients < c.MaxPatients
}

// Document concatenates the text fields indexed for lexical retrieval.
func (c *CandidateProfile) Document() string {
	parts := make([]string, 0, 4)
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if len(c.Specialisms) > 0 {
		parts = append(parts, strings.Join(c.Specialisms, " "))
	}
	if len(c.Qualifications) > 0 {
		parts = append(parts, strings.Join(c.Qualifications, " "))
	}
	if len(c.PreferredConditions) > 0 {
		parts = append(parts, strings.Join(c.PreferredConditions, " "))
	}
	return strings.Join(parts, " ")
}
