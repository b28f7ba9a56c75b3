// internal/matching/embedding/embedding.go
package embedding

import (
	"context"
	"math"
)

// Embedder produces fixed-dimension dense vectors for text. The model
// behind it is opaque; anything with stable output for stable input works.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Model() string
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// empty or the dimensions disagree.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
