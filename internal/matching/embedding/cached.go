// internal/matching/embedding/cached.go
package embedding

import (
	"context"
	"encoding/json"
	"time"

	"referwell-matching/internal/common/cache"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/common/metrics"
)

// Cached wraps an Embedder with a content-addressed cache keyed by
// (model, text). Batch calls embed only the misses and merge them with the
// hits in input order.
type Cached struct {
	inner  Embedder
	store  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(inner Embedder, store cache.Store, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "embedding-cache"}),
	}
}

func (c *Cached) Model() string {
	return c.inner.Model()
}

func (c *Cached) key(text string) string {
	return cache.Key(cache.PrefixEmbedding, "embed", c.inner.Model(), text)
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if cached, ok := c.store.Get(ctx, c.key(text)); ok {
			var vec []float64
			if err := json.Unmarshal([]byte(cached), &vec); err == nil {
				metrics.CacheRequestsTotal.WithLabelValues("embedding", "hit").Inc()
				vectors[i] = vec
				continue
			}
		}
		metrics.CacheRequestsTotal.WithLabelValues("embedding", "miss").Inc()
		missTexts = append(missTexts, texts[i])
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	computed, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, vec := range computed {
		vectors[missIdx[j]] = vec
		if data, err := json.Marshal(vec); err == nil {
			c.store.Set(ctx, c.key(missTexts[j]), string(data), c.ttl)
		}
	}
	return vectors, nil
}
