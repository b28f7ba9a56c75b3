// internal/matching/feasibility/filter_test.go
package feasibility

import (
	"testing"

	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestFilter(t *testing.T) *Filter {
	return NewFilter(logger.NewTestLogger(t))
}

func createCandidate(id string) models.CandidateProfile {
	return models.CandidateProfile{
		ID:                 id,
		Name:               "Dr " + id,
		ServiceType:        models.ServiceTypeMixed,
		Modality:           models.ModalityMixed,
		AvailabilityStatus: models.AvailabilityAvailable,
		MaxPatients:        20,
		CurrentPatients:    5,
	}
}

func createQuery() *models.ReferralQuery {
	return &models.ReferralQuery{
		ReferralID:   "ref-001",
		ServiceType:  models.ServiceTypeNHS,
		Modality:     models.ModalityRemote,
		ReferrerType: models.ReferrerGP,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestFilter_Apply_ServiceType(t *testing.T) {
	tests := []struct {
		name         string
		queryService models.ServiceType
		candService  models.ServiceType
		expectKept   bool
	}{
		{"nhs query keeps nhs provider", models.ServiceTypeNHS, models.ServiceTypeNHS, true},
		{"nhs query keeps mixed provider", models.ServiceTypeNHS, models.ServiceTypeMixed, true},
		{"nhs query drops private provider", models.ServiceTypeNHS, models.ServiceTypePrivate, false},
		{"private query keeps private provider", models.ServiceTypePrivate, models.ServiceTypePrivate, true},
		{"private query keeps mixed provider", models.ServiceTypePrivate, models.ServiceTypeMixed, true},
		{"private query drops nhs provider", models.ServiceTypePrivate, models.ServiceTypeNHS, false},
		{"unspecified query keeps everyone", "", models.ServiceTypeNHS, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := createTestFilter(t)
			query := createQuery()
			query.ServiceType = tt.queryService
			query.Modality = ""

			cand := createCandidate("c1")
			cand.ServiceType = tt.candService

			result := filter.Apply([]models.CandidateProfile{cand}, query)
			if tt.expectKept {
				assert.Len(t, result, 1)
			} else {
				assert.Empty(t, result)
			}
		})
	}
}

func TestFilter_Apply_Modality(t *testing.T) {
	tests := []struct {
		name          string
		queryModality models.Modality
		candModality  models.Modality
		expectKept    bool
	}{
		{"remote query keeps remote provider", models.ModalityRemote, models.ModalityRemote, true},
		{"remote query keeps mixed provider", models.ModalityRemote, models.ModalityMixed, true},
		{"remote query drops in-person provider", models.ModalityRemote, models.ModalityInPerson, false},
		{"in-person query keeps in-person provider", models.ModalityInPerson, models.ModalityInPerson, true},
		{"in-person query drops remote provider", models.ModalityInPerson, models.ModalityRemote, false},
		{"unspecified query keeps everyone", "", models.ModalityInPerson, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := createTestFilter(t)
			query := createQuery()
			query.ServiceType = ""
			query.Modality = tt.queryModality

			cand := createCandidate("c1")
			cand.Modality = tt.candModality

			result := filter.Apply([]models.CandidateProfile{cand}, query)
			if tt.expectKept {
				assert.Len(t, result, 1)
			} else {
				assert.Empty(t, result)
			}
		})
	}
}

func TestFilter_Apply_Availability(t *testing.T) {
	filter := createTestFilter(t)
	query := createQuery()

	available := createCandidate("c-available")
	limited := createCandidate("c-limited")
	limited.AvailabilityStatus = models.AvailabilityLimited
	unavailable := createCandidate("c-unavailable")
	unavailable.AvailabilityStatus = models.AvailabilityUnavailable

	result := filter.Apply([]models.CandidateProfile{available, limited, unavailable}, query)
	require.Len(t, result, 1)
	assert.Equal(t, "c-available", result[0].ID)
}

func TestFilter_Apply_Capacity(t *testing.T) {
	filter := createTestFilter(t)
	query := createQuery()

	hasRoom := createCandidate("c-room")
	full := createCandidate("c-full")
	full.CurrentPatients = full.MaxPatients

	result := filter.Apply([]models.CandidateProfile{hasRoom, full}, query)
	require.Len(t, result, 1)
	assert.Equal(t, "c-room", result[0].ID)
}

// ==========================
// Radius Filtering Tests
// ==========================

func TestFilter_Apply_Radius(t *testing.T) {
	london := models.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}
	cambridge := models.GeoPoint{Latitude: 52.2053, Longitude: 0.1218}
	edinburgh := models.GeoPoint{Latitude: 55.9533, Longitude: -3.1883}

	tests := []struct {
		name          string
		queryLocation *models.GeoPoint
		maxDistanceKm float64
		candLocation  *models.GeoPoint
		expectKept    bool
	}{
		{"within radius", &london, 100, &cambridge, true},
		{"outside radius", &london, 100, &edinburgh, false},
		{"no patient location skips predicate", nil, 100, &edinburgh, true},
		{"no max distance skips predicate", &london, 0, &edinburgh, true},
		{"unknown provider location kept", &london, 100, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := createTestFilter(t)
			query := createQuery()
			query.Location = tt.queryLocation
			query.MaxDistanceKm = tt.maxDistanceKm

			cand := createCandidate("c1")
			cand.Location = tt.candLocation

			result := filter.Apply([]models.CandidateProfile{cand}, query)
			if tt.expectKept {
				assert.Len(t, result, 1)
			} else {
				assert.Empty(t, result)
			}
		})
	}
}

func TestHaversineKm(t *testing.T) {
	london := models.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}
	cambridge := models.GeoPoint{Latitude: 52.2053, Longitude: 0.1218}

	d := haversineKm(london, cambridge)
	assert.InDelta(t, 79.0, d, 5.0)
	assert.Zero(t, haversineKm(london, london))
	assert.InDelta(t, haversineKm(cambridge, london), d, 1e-9)
}

// ==========================
// Edge Cases
// ==========================

func TestFilter_Apply_SubsetInvariant(t *testing.T) {
	filter := createTestFilter(t)
	query := createQuery()

	pool := make([]models.CandidateProfile, 0, 10)
	for i := 0; i < 10; i++ {
		c := createCandidate(string(rune('a' + i)))
		if i%3 == 0 {
			c.ServiceType = models.ServiceTypePrivate
		}
		if i%4 == 0 {
			c.AvailabilityStatus = models.AvailabilityLimited
		}
		pool = append(pool, c)
	}

	result := filter.Apply(pool, query)
	assert.LessOrEqual(t, len(result), len(pool))

	ids := make(map[string]bool, len(pool))
	for _, c := range pool {
		ids[c.ID] = true
	}
	for _, c := range result {
		assert.True(t, ids[c.ID], "filter must never introduce candidates")
	}
}

func TestFilter_Apply_EmptyPool(t *testing.T) {
	filter := createTestFilter(t)
	result := filter.Apply(nil, createQuery())
	assert.Empty(t, result)
}
