// internal/matching/hybrid/search.go
package hybrid

import (
	"context"
	"sort"

	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/matching/embedding"
	"referwell-matching/internal/matching/lexical"
	"referwell-matching/internal/models"
)

// Strategy is the closed set of scoring paths. Which one runs is a pure
// function of what inputs are available, decided per call.
type Strategy string

const (
	StrategyHybrid         Strategy = "hybrid"
	StrategyVectorOnly     Strategy = "vector_only"
	StrategyStructuredOnly Strategy = "structured_only"
)

// SelectStrategy picks the scoring path from available inputs.
func SelectStrategy(queryText string, lexicalOK, vectorsOK bool) Strategy {
	switch {
	case queryText != "" && lexicalOK:
		return StrategyHybrid
	case vectorsOK:
		return StrategyVectorOnly
	default:
		return StrategyStructuredOnly
	}
}

// Searcher ranks candidates by combined lexical and semantic relevance.
type Searcher struct {
	lexical  *lexical.Service
	embedder embedding.Embedder
	logger   logger.Logger
}

func NewSearcher(lex *lexical.Service, emb embedding.Embedder, log logger.Logger) *Searcher {
	return &Searcher{
		lexical:  lex,
		embedder: emb,
		logger:   log.WithFields(map[string]interface{}{"component": "hybrid"}),
	}
}

// Search scores every candidate appearing in either score map with
// vectorWeight*vector + bm25Weight*lexical (weights applied as given, no
// normalization) and returns the topK by combined score. Missing scores
// count as zero. Lexical failure and embedding failure each degrade the
// strategy rather than failing the call; only a fully unscorable pool
// returns StrategyStructuredOnly with no results.
func (s *Searcher) Search(
	ctx context.Context,
	queryText string,
	candidates []models.CandidateProfile,
	topK int,
	vectorWeight, bm25Weight float64,
) ([]models.MatchResult, Strategy) {
	lexScores := s.lexicalScores(ctx, queryText, candidates, topK)
	vecScores := s.vectorScores(ctx, queryText, candidates)

	strategy := SelectStrategy(queryText, lexScores != nil, len(vecScores) > 0)
	if strategy == StrategyStructuredOnly {
		return nil, strategy
	}

	ids := map[string]struct{}{}
	for id := range lexScores {
		ids[id] = struct{}{}
	}
	for id := range vecScores {
		ids[id] = struct{}{}
	}

	results := make([]models.MatchResult, 0, len(ids))
	for id := range ids {
		vec := vecScores[id]
		lex := lexScores[id]
		explanation := map[string]interface{}{
			"hybrid_search": strategy == StrategyHybrid,
			"vector_score":  vec,
			"lexical_score": lex,
		}
		// A degraded signal is recorded so a zero score can be told apart
		// from genuine zero similarity.
		if len(vecScores) == 0 {
			explanation["vector_available"] = false
		}
		if lexScores == nil {
			explanation["lexical_available"] = false
		}
		results = append(results, models.MatchResult{
			CandidateID: id,
			Scores: models.ComponentScores{
				Vector:  vec,
				Lexical: lex,
			},
			Combined:    vectorWeight*vec + bm25Weight*lex,
			Explanation: explanation,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Combined != results[j].Combined {
			return results[i].Combined > results[j].Combined
		}
		return results[i].CandidateID < results[j].CandidateID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, strategy
}

// lexicalScores returns nil when the lexical path is unavailable so the
// caller can tell "failed" apart from "no hits".
func (s *Searcher) lexicalScores(ctx context.Context, queryText string, candidates []models.CandidateProfile, topK int) map[string]float64 {
	if queryText == "" {
		return nil
	}
	docs := make([]lexical.Document, 0, len(candidates))
	for i := range candidates {
		docs = append(docs, lexical.Document{ID: candidates[i].ID, Text: candidates[i].Document()})
	}

	// Over-fetch for coverage; the combined sort re-trims to topK.
	hits, err := s.lexical.Search(ctx, queryText, docs, topK*2)
	if err != nil {
		s.logger.Warn("lexical index unavailable, falling back to vector-only", map[string]interface{}{
			"error": err,
		})
		return nil
	}
	scores := make(map[string]float64, len(hits))
	for _, hit := range hits {
		scores[hit.ID] = hit.Score
	}
	return scores
}

func (s *Searcher) vectorScores(ctx context.Context, queryText string, candidates []models.CandidateProfile) map[string]float64 {
	if queryText == "" {
		return nil
	}
	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		s.logger.Warn("query embedding failed, vector scoring skipped", map[string]interface{}{
			"error": err,
		})
		return nil
	}

	scores := map[string]float64{}
	for i := range candidates {
		if !candidates[i].HasEmbedding() {
			continue
		}
		scores[candidates[i].ID] = embedding.Cosine(queryVec, candidates[i].Embedding)
	}
	return scores
}
