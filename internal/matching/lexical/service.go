// internal/matching/lexical/service.go
package lexical

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"referwell-matching/internal/common/cache"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/common/metrics"
)

// Service caches search results in front of per-pool index builds.
// Identical (query, top_k, corpus-size) tuples hit the cache.
type Service struct {
	store  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

func NewService(store cache.Store, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		store:  store,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "lexical"}),
	}
}

// Search builds the index over docs and returns the top-k hits for
// queryText, consulting the cache first.
func (s *Service) Search(ctx context.Context, queryText string, docs []Document, topK int) ([]Score, error) {
	key := cache.Key(cache.PrefixLexical, "search",
		queryText, strconv.Itoa(topK), strconv.Itoa(len(docs)))

	if cached, ok := s.store.Get(ctx, key); ok {
		var scores []Score
		if err := json.Unmarshal([]byte(cached), &scores); err == nil {
			metrics.CacheRequestsTotal.WithLabelValues("lexical", "hit").Inc()
			return scores, nil
		}
	}
	metrics.CacheRequestsTotal.WithLabelValues("lexical", "miss").Inc()

	idx, err := Build(docs)
	if err != nil {
		return nil, err
	}
	scores := idx.Search(queryText, topK)

	if data, err := json.Marshal(scores); err == nil {
		s.store.Set(ctx, key, string(data), s.ttl)
	}
	return scores, nil
}
