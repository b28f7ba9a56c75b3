// internal/matching/engine.go
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"referwell-matching/internal/common/cache"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/common/metrics"
	"referwell-matching/internal/matching/calibration"
	"referwell-matching/internal/matching/feasibility"
	"referwell-matching/internal/matching/hybrid"
	"referwell-matching/internal/matching/routing"
	"referwell-matching/internal/matching/structured"
	"referwell-matching/internal/models"
)

// CandidateRepository is the read-only port to the persistence collaborator.
// Implementations return fully materialized snapshots of providers that are
// active and accepting referrals.
type CandidateRepository interface {
	FetchCandidates(ctx context.Context) ([]models.CandidateProfile, error)
}

// Options are the per-engine scoring parameters.
type Options struct {
	TopK            int
	VectorWeight    float64
	BM25Weight      float64
	StructuredBlend float64
}

// Outcome is everything one matching run produces. The engine hands it to
// the orchestration collaborator; it owns no storage itself.
type Outcome struct {
	Run      models.MatchingRun
	Matches  []models.MatchResult
	Decision models.RoutingDecision
	Strategy hybrid.Strategy
}

// Engine runs the full pipeline: feasibility, hybrid retrieval, structured
// re-filter and blend, calibration, routing. A run always ends in a
// RoutingDecision; the worst case is manual review with a reason.
type Engine struct {
	repo       CandidateRepository
	filter     *feasibility.Filter
	searcher   *hybrid.Searcher
	scorer     *structured.Scorer
	calibrator *calibration.Calibrator
	router     *routing.Router
	stats      *routing.StatsCollector
	store      cache.Store
	opts       Options
	logger     logger.Logger
}

func NewEngine(
	repo CandidateRepository,
	filter *feasibility.Filter,
	searcher *hybrid.Searcher,
	scorer *structured.Scorer,
	calibrator *calibration.Calibrator,
	router *routing.Router,
	store cache.Store,
	opts Options,
	log logger.Logger,
) *Engine {
	return &Engine{
		repo:       repo,
		filter:     filter,
		searcher:   searcher,
		scorer:     scorer,
		calibrator: calibrator,
		router:     router,
		stats:      routing.NewStatsCollector(),
		store:      store,
		opts:       opts,
		logger:     log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

// Match executes one matching run for the referral snapshot.
func (e *Engine) Match(ctx context.Context, query *models.ReferralQuery) *Outcome {
	started := time.Now()
	run := models.MatchingRun{
		ID:         uuid.NewString(),
		ReferralID: query.ReferralID,
		Status:     models.RunRunning,
		StartedAt:  started.UTC().Format(time.RFC3339),
		Config: map[string]interface{}{
			"topK":            e.opts.TopK,
			"vectorWeight":    e.opts.VectorWeight,
			"bm25Weight":      e.opts.BM25Weight,
			"structuredBlend": e.opts.StructuredBlend,
		},
	}

	pool, err := e.repo.FetchCandidates(ctx)
	if err != nil {
		// Candidate lookup failure still yields a decision.
		e.logger.Error("candidate fetch failed", map[string]interface{}{
			"referralId": query.ReferralID,
			"error":      err,
		})
		run.Status = models.RunFailed
		run.ErrorMessage = err.Error()
		return e.finish(ctx, query, run, nil, hybrid.StrategyStructuredOnly, started,
			fmt.Sprintf("candidate lookup failed: %s", err))
	}

	feasible := e.filter.Apply(pool, query)
	run.CandidatesFound = len(feasible)
	metrics.FeasiblePoolSize.Observe(float64(len(feasible)))

	if len(feasible) == 0 {
		run.Status = models.RunCompleted
		return e.finish(ctx, query, run, nil, hybrid.StrategyStructuredOnly, started,
			"no feasible candidates")
	}

	matches, strategy := e.searcher.Search(
		ctx, query.QueryText(), feasible, e.opts.TopK, e.opts.VectorWeight, e.opts.BM25Weight)

	byID := make(map[string]*models.CandidateProfile, len(feasible))
	for i := range feasible {
		byID[feasible[i].ID] = &feasible[i]
	}

	if strategy == hybrid.StrategyStructuredOnly {
		matches = e.structuredOnly(feasible, query)
	} else {
		matches = e.refilterAndBlend(matches, byID, query)
	}

	e.calibrate(matches)
	models.SortMatches(matches)
	if e.opts.TopK > 0 && len(matches) > e.opts.TopK {
		matches = matches[:e.opts.TopK]
	}

	run.Status = models.RunCompleted
	run.CandidatesShortlisted = len(matches)
	return e.finish(ctx, query, run, matches, strategy, started,
		fmt.Sprintf("none of %d feasible candidates passed hard constraints", len(feasible)))
}

// structuredOnly ranks the feasible pool by structured score alone. Used
// when there is no query text, or both retrieval signals are unavailable.
func (e *Engine) structuredOnly(feasible []models.CandidateProfile, query *models.ReferralQuery) []models.MatchResult {
	matches := make([]models.MatchResult, 0, len(feasible))
	for i := range feasible {
		c := &feasible[i]
		if !structured.MeetsHardConstraints(c, query) {
			continue
		}
		score := e.scorer.Score(c, query)
		matches = append(matches, models.MatchResult{
			CandidateID: c.ID,
			Scores:      models.ComponentScores{Structured: score},
			Combined:    score,
			Explanation: map[string]interface{}{
				"hybrid_search":         false,
				"structured_only":       true,
				"structured_components": e.scorer.Components(c, query),
			},
		})
	}
	return matches
}

// refilterAndBlend removes matches failing hard structured constraints and
// blends the structured score into the combined score.
func (e *Engine) refilterAndBlend(matches []models.MatchResult, byID map[string]*models.CandidateProfile, query *models.ReferralQuery) []models.MatchResult {
	out := matches[:0]
	for _, m := range matches {
		c, ok := byID[m.CandidateID]
		if !ok {
			continue
		}
		if !structured.MeetsHardConstraints(c, query) {
			continue
		}
		score := e.scorer.Score(c, query)
		m.Scores.Structured = score
		m.Combined = (1-e.opts.StructuredBlend)*m.Combined + e.opts.StructuredBlend*score
		m.Explanation["structured_score"] = score
		out = append(out, m)
	}
	return out
}

func (e *Engine) calibrate(matches []models.MatchResult) {
	raw := make([]float64, len(matches))
	for i := range matches {
		raw[i] = matches[i].Combined
	}
	calibrated := e.calibrator.Calibrate(raw)
	fitted := e.calibrator.Fitted()
	for i := range matches {
		matches[i].Calibrated = calibrated[i]
		matches[i].Explanation["calibrated"] = fitted
	}
}

func (e *Engine) finish(ctx context.Context, query *models.ReferralQuery, run models.MatchingRun, matches []models.MatchResult, strategy hybrid.Strategy, started time.Time, emptyReason string) *Outcome {
	decision := e.router.Decide(ctx, query.ReferrerType, matches, emptyReason)
	e.stats.Record(decision.Decision)

	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	metrics.MatchingRunsTotal.WithLabelValues(string(run.Status)).Inc()
	metrics.MatchingRunDuration.WithLabelValues(string(strategy)).Observe(time.Since(started).Seconds())

	e.logger.Info("matching run finished", map[string]interface{}{
		"referralId": query.ReferralID,
		"runId":      run.ID,
		"status":     run.Status,
		"matches":    len(matches),
		"decision":   decision.Decision,
		"strategy":   strategy,
	})

	return &Outcome{
		Run:      run,
		Matches:  matches,
		Decision: decision,
		Strategy: strategy,
	}
}

// Router exposes threshold administration (updates, seeding, invalidation).
func (e *Engine) Router() *routing.Router {
	return e.router
}

// Stats reports accumulated routing outcomes.
func (e *Engine) Stats() routing.Stats {
	return e.stats.Snapshot()
}

// ClearCaches purges the embedding, lexical and threshold caches.
// Idempotent.
func (e *Engine) ClearCaches(ctx context.Context) {
	e.store.DeleteByPrefix(ctx, cache.PrefixEmbedding)
	e.store.DeleteByPrefix(ctx, cache.PrefixLexical)
	e.store.DeleteByPrefix(ctx, cache.PrefixThreshold)
	e.logger.Info("cleared all matching-related caches", nil)
}
