// internal/matching/routing/stats.go
package routing

import (
	"sync"

	"referwell-matching/internal/models"
)

// Stats summarizes routing outcomes for operational reporting.
type Stats struct {
	TotalReferrals      int     `json:"totalReferrals"`
	AutoRouted          int     `json:"autoRouted"`
	HighTouchRouted     int     `json:"highTouchRouted"`
	ManualReview        int     `json:"manualReview"`
	AutoPercentage      float64 `json:"autoPercentage"`
	HighTouchPercentage float64 `json:"highTouchPercentage"`
	ManualPercentage    float64 `json:"manualPercentage"`
}

// StatsCollector accumulates decisions across runs. Safe for concurrent use.
type StatsCollector struct {
	mu        sync.Mutex
	auto      int
	highTouch int
	manual    int
}

func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

func (s *StatsCollector) Record(decision models.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch decision {
	case models.DecisionAuto:
		s.auto++
	case models.DecisionHighTouch:
		s.highTouch++
	default:
		s.manual++
	}
}

func (s *StatsCollector) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.auto + s.highTouch + s.manual
	stats := Stats{
		TotalReferrals:  total,
		AutoRouted:      s.auto,
		HighTouchRouted: s.highTouch,
		ManualReview:    s.manual,
	}
	if total > 0 {
		stats.AutoPercentage = float64(s.auto) / float64(total) * 100
		stats.HighTouchPercentage = float64(s.highTouch) / float64(total) * 100
		stats.ManualPercentage = float64(s.manual) / float64(total) * 100
	}
	return stats
}
