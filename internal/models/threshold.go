// internal/models/threshold.go
package models

const (
	// Fallback thresholds used when no configuration row exists for a
	// referrer type.
	DefaultAutoThreshold      = 0.7
	DefaultHighTouchThreshold = 0.5
)

// ThresholdConfig is the per-referrer-type routing threshold pair. By
// convention AutoThreshold >= HighTouchThreshold; an inverted pair is
// accepted and falls through the router's ordered comparison.
type ThresholdConfig struct {
	UserType           ReferrerType `json:"userType"`
	AutoThreshold      float64      `json:"autoThreshold"`
	HighTouchThreshold float64      `json:"highTouchThreshold"`
	IsActive           bool         `json:"isActive"`
}

// Inverted reports whether the pair violates the ordering convention.
func (t ThresholdConfig) Inverted() bool {
	return t.AutoThreshold < t.HighTouchThreshold
}

// DefaultThresholds returns the seed configuration for every referrer type.
func DefaultThresholds() []ThresholdConfig {
	return []ThresholdConfig{
		{UserType: ReferrerGP, AutoThreshold: 0.7, HighTouchThreshold: 0.5, IsActive: true},
		{UserType: ReferrerPatient, AutoThreshold: 0.8, HighTouchThreshold: 0.6, IsActive: true},
		{UserType: ReferrerPsychologist, AutoThreshold: 0.6, HighTouchThreshold: 0.4, IsActive: true},
		{UserType: ReferrerAdmin, AutoThreshold: 0.5, HighTouchThreshold: 0.3, IsActive: true},
	}
}
