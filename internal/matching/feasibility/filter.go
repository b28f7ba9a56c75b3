// internal/matching/feasibility/filter.go
package feasibility

import (
	"math"

	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/models"
)

// Filter narrows the candidate pool with hard constraints before the more
// expensive scoring passes. Every predicate only removes candidates, so the
// output is always a subset of the input; an empty result is a valid
// outcome, not an error.
type Filter struct {
	logger logger.Logger
}

func NewFilter(log logger.Logger) *Filter {
	return &Filter{
		logger: log.WithFields(map[string]interface{}{"component": "feasibility"}),
	}
}

// Apply runs the predicate chain in order of selectivity. The predicates
// commute, so order affects performance only.
func (f *Filter) Apply(pool []models.CandidateProfile, query *models.ReferralQuery) []models.CandidateProfile {
	initial := len(pool)

	pool = f.byServiceType(pool, query)
	pool = f.byModality(pool, query)
	pool = f.byAvailability(pool)
	pool = f.byRadius(pool, query)
	pool = f.byCapacity(pool)

	f.logger.Info("feasibility filter complete", map[string]interface{}{
		"referralId": query.ReferralID,
		"initial":    initial,
		"remaining":  len(pool),
	})

	return pool
}

func (f *Filter) byServiceType(pool []models.CandidateProfile, query *models.ReferralQuery) []models.CandidateProfile {
	switch query.ServiceType {
	case models.ServiceTypeNHS:
		return keep(pool, func(c *models.CandidateProfile) bool {
			return c.ServiceType == models.ServiceTypeNHS || c.ServiceType == models.ServiceTypeMixed
		})
	case models.ServiceTypePrivate:
		return keep(pool, func(c *models.CandidateProfile) bool {
			return c.ServiceType == models.ServiceTypePrivate || c.ServiceType == models.ServiceTypeMixed
		})
	default:
		return pool
	}
}

func (f *Filter) byModality(pool []models.CandidateProfile, query *models.ReferralQuery) []models.CandidateProfile {
	switch query.Modality {
	case models.ModalityRemote:
		return keep(pool, func(c *models.CandidateProfile) bool {
			return c.Modality == models.ModalityRemote || c.Modality == models.ModalityMixed
		})
	case models.ModalityInPerson:
		return keep(pool, func(c *models.CandidateProfile) bool {
			return c.Modality == models.ModalityInPerson || c.Modality == models.ModalityMixed
		})
	default:
		return pool
	}
}

func (f *Filter) byAvailability(pool []models.CandidateProfile) []models.CandidateProfile {
	return keep(pool, func(c *models.CandidateProfile) bool {
		return c.AvailabilityStatus == models.AvailabilityAvailable
	})
}

func (f *Filter) byRadius(pool []models.CandidateProfile, query *models.ReferralQuery) []models.CandidateProfile {
	if query.Location == nil {
		f.logger.Warn("no patient location provided for radius filtering", map[string]interface{}{
			"referralId": query.ReferralID,
		})
		return pool
	}
	if query.MaxDistanceKm <= 0 {
		f.logger.Warn("no max distance specified for radius filtering", map[string]interface{}{
			"referralId": query.ReferralID,
		})
		return pool
	}

	return keep(pool, func(c *models.CandidateProfile) bool {
		// Unknown candidate location means "don't exclude".
		if c.Location == nil {
			return true
		}
		return haversineKm(*query.Location, *c.Location) <= query.MaxDistanceKm
	})
}

func (f *Filter) byCapacity(pool []models.CandidateProfile) []models.CandidateProfile {
	return keep(pool, func(c *models.CandidateProfile) bool {
		return c.HasCapacity()
	})
}

func keep(pool []models.CandidateProfile, pred func(*models.CandidateProfile) bool) []models.CandidateProfile {
	out := make([]models.CandidateProfile, 0, len(pool))
	for i := range pool {
		if pred(&pool[i]) {
			out = append(out, pool[i])
		}
	}
	return out
}

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two points.
func haversineKm(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
