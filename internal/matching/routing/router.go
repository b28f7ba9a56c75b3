// internal/matching/routing/router.go
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"referwell-matching/internal/common/cache"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/common/metrics"
	"referwell-matching/internal/models"
)

// ThresholdStore is the read/write port to the threshold configuration
// collaborator. Get returns (nil, nil) when no row exists for the type.
type ThresholdStore interface {
	Get(ctx context.Context, userType models.ReferrerType) (*models.ThresholdConfig, error)
	Upsert(ctx context.Context, cfg models.ThresholdConfig) error
	SeedDefaults(ctx context.Context) error
}

// Router turns the top calibrated score into one of three terminal routing
// states. Threshold lookups are cached; updates invalidate synchronously so
// the next routing call always sees fresh values.
type Router struct {
	store  ThresholdStore
	cache  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

func NewRouter(store ThresholdStore, cacheStore cache.Store, ttl time.Duration, log logger.Logger) *Router {
	return &Router{
		store:  store,
		cache:  cacheStore,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "routing"}),
	}
}

// Decide routes once, with no retries. An empty match list degenerates to
// manual review with a zero score (unless thresholds are <= 0, which is
// allowed to fire earlier states). emptyReason names the cause of an empty
// list; when blank the generic "no feasible candidates" is used.
func (r *Router) Decide(ctx context.Context, referrerType models.ReferrerType, matches []models.MatchResult, emptyReason string) models.RoutingDecision {
	highest := 0.0
	for i := range matches {
		if matches[i].Calibrated > highest {
			highest = matches[i].Calibrated
		}
	}

	auto, highTouch := r.thresholds(ctx, referrerType)

	decision := models.RoutingDecision{
		HighestScore:       highest,
		AutoThreshold:      auto,
		HighTouchThreshold: highTouch,
	}

	switch {
	case highest >= auto:
		decision.Decision = models.DecisionAuto
		decision.Reason = fmt.Sprintf("highest calibrated score %.3f meets auto threshold %.3f", highest, auto)
	case highest >= highTouch:
		decision.Decision = models.DecisionHighTouch
		decision.Reason = fmt.Sprintf("highest calibrated score %.3f meets high-touch threshold %.3f", highest, highTouch)
	default:
		decision.Decision = models.DecisionManualReview
		if len(matches) == 0 {
			if emptyReason == "" {
				emptyReason = "no feasible candidates"
			}
			decision.Reason = emptyReason
		} else {
			decision.Reason = fmt.Sprintf("highest calibrated score %.3f below high-touch threshold %.3f", highest, highTouch)
		}
	}

	metrics.RoutingDecisionsTotal.WithLabelValues(string(decision.Decision), string(referrerType)).Inc()
	r.logger.Info("routing decision", map[string]interface{}{
		"referrerType": referrerType,
		"decision":     decision.Decision,
		"highestScore": highest,
	})
	return decision
}

// thresholds resolves the pair: cached config row, then store, then the
// default constants. Missing config is handled, never fatal.
func (r *Router) thresholds(ctx context.Context, referrerType models.ReferrerType) (auto, highTouch float64) {
	key := cache.ThresholdKey(string(referrerType))

	if cached, ok := r.cache.Get(ctx, key); ok {
		var cfg models.ThresholdConfig
		if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
			metrics.CacheRequestsTotal.WithLabelValues("threshold", "hit").Inc()
			return cfg.AutoThreshold, cfg.HighTouchThreshold
		}
	}
	metrics.CacheRequestsTotal.WithLabelValues("threshold", "miss").Inc()

	cfg, err := r.store.Get(ctx, referrerType)
	if err != nil {
		r.logger.Warn("threshold lookup failed, using defaults", map[string]interface{}{
			"referrerType": referrerType,
			"error":        err,
		})
		return models.DefaultAutoThreshold, models.DefaultHighTouchThreshold
	}
	if cfg == nil {
		r.logger.Warn("no threshold config for referrer type, using defaults", map[string]interface{}{
			"referrerType": referrerType,
		})
		return models.DefaultAutoThreshold, models.DefaultHighTouchThreshold
	}

	if data, err := json.Marshal(cfg); err == nil {
		r.cache.Set(ctx, key, string(data), r.ttl)
	}
	return cfg.AutoThreshold, cfg.HighTouchThreshold
}

// UpdateThresholds writes a config row and invalidates its cache entry
// before returning, so stale values are never served past the update.
func (r *Router) UpdateThresholds(ctx context.Context, cfg models.ThresholdConfig) error {
	if cfg.Inverted() {
		r.logger.Warn("threshold pair is inverted (auto < high_touch); accepting as configured", map[string]interface{}{
			"userType":           cfg.UserType,
			"autoThreshold":      cfg.AutoThreshold,
			"highTouchThreshold": cfg.HighTouchThreshold,
		})
	}
	if err := r.store.Upsert(ctx, cfg); err != nil {
		return err
	}
	r.cache.Delete(ctx, cache.ThresholdKey(string(cfg.UserType)))
	return nil
}

// SeedDefaults creates the default configuration rows (create-if-absent)
// and drops any cached thresholds. Idempotent.
func (r *Router) SeedDefaults(ctx context.Context) error {
	if err := r.store.SeedDefaults(ctx); err != nil {
		return err
	}
	r.cache.DeleteByPrefix(ctx, cache.PrefixThreshold)
	r.logger.Info("default threshold configurations seeded", nil)
	return nil
}

// InvalidateThresholds drops cached thresholds for one referrer type, or
// all of them when userType is empty.
func (r *Router) InvalidateThresholds(ctx context.Context, userType models.ReferrerType) {
	if userType != "" {
		r.cache.Delete(ctx, cache.ThresholdKey(string(userType)))
		return
	}
	r.cache.DeleteByPrefix(ctx, cache.PrefixThreshold)
}
