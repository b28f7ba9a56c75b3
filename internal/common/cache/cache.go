// internal/common/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Store is the cache port shared by the embedding index, the lexical index
// and the threshold router. Implementations must be safe for concurrent use;
// losing a population race on an identical key is acceptable because values
// are deterministic given their inputs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

// Key prefixes, kept compatible with the original engine's cache layout.
const (
	PrefixEmbedding = "embedding_"
	PrefixLexical   = "bm25_"
	PrefixThreshold = "threshold_config_"
)

// Key builds a deterministic cache key from an operation name and its
// inputs. Inputs are hashed so long texts stay within key length limits.
func Key(prefix, operation string, inputs ...string) string {
	h := sha256.New()
	h.Write([]byte(operation))
	for _, in := range inputs {
		h.Write([]byte{0})
		h.Write([]byte(in))
	}
	return prefix + operation + "_" + hex.EncodeToString(h.Sum(nil))[:32]
}

// ThresholdKey is the per-referrer-type threshold cache key.
func ThresholdKey(userType string) string {
	return PrefixThreshold + strings.ToLower(userType)
}
