// internal/matching/lexical/index_test.go
package lexical

import (
	"context"
	"testing"
	"time"

	"referwell-matching/internal/common/cache"
	"referwell-matching/internal/common/errors"
	"referwell-matching/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createCorpus() []Document {
	return []Document{
		{ID: "anxiety-specialist", Text: "anxiety disorders panic attacks cognitive behavioural therapy"},
		{ID: "trauma-specialist", Text: "trauma ptsd emdr childhood trauma recovery"},
		{ID: "depression-specialist", Text: "depression low mood cognitive behavioural therapy mindfulness"},
		{ID: "eating-specialist", Text: "eating disorders anorexia bulimia body image"},
		{ID: "family-specialist", Text: "family therapy couples counselling relationship difficulties"},
	}
}

// ==========================
// Tokenization Tests
// ==========================

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"lowercases and splits", "Anxiety Disorders", []string{"anxiety", "disorders"}},
		{"drops stop words", "therapy for the anxiety", []string{"therapy", "anxiety"}},
		{"strips punctuation", "panic-attacks, ptsd.", []string{"panic", "attacks", "ptsd"}},
		{"keeps digits", "dbt 12 week program", []string{"dbt", "12", "week", "program"}},
		{"empty text", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.text)
			if tt.expected == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestTerms_IncludesBigrams(t *testing.T) {
	got := terms([]string{"panic", "attacks", "therapy"})
	assert.Contains(t, got, "panic")
	assert.Contains(t, got, "panic attacks")
	assert.Contains(t, got, "attacks therapy")
	assert.NotContains(t, got, "panic therapy")
}

// ==========================
// Index Build Tests
// ==========================

func TestBuild_EmptyCorpus(t *testing.T) {
	idx, err := Build(nil)
	assert.Nil(t, idx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmptyCorpus, errors.CodeOf(err))
}

func TestBuild_SmallCorpusRelaxesBounds(t *testing.T) {
	// Two documents with no shared terms; strict bounds would prune both.
	idx, err := Build([]Document{
		{ID: "a", Text: "anxiety panic"},
		{ID: "b", Text: "trauma ptsd"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Size())

	hits := idx.Search("anxiety", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestBuild_AllStopWordsCorpus(t *testing.T) {
	idx, err := Build([]Document{
		{ID: "a", Text: "the and of"},
		{ID: "b", Text: "is was were"},
	})
	assert.Nil(t, idx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmptyCorpus, errors.CodeOf(err))
}

// ==========================
// Search Tests
// ==========================

func TestIndex_Search_RanksRelevantFirst(t *testing.T) {
	idx, err := Build(createCorpus())
	require.NoError(t, err)

	hits := idx.Search("anxiety and panic attacks", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "anxiety-specialist", hits[0].ID)

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestIndex_Search_ScoresAreCosine(t *testing.T) {
	idx, err := Build(createCorpus())
	require.NoError(t, err)

	for _, hit := range idx.Search("cognitive behavioural therapy", 10) {
		assert.Greater(t, hit.Score, 0.0)
		assert.LessOrEqual(t, hit.Score, 1.0+1e-9)
	}
}

func TestIndex_Search_TopKLimit(t *testing.T) {
	idx, err := Build(createCorpus())
	require.NoError(t, err)

	hits := idx.Search("therapy counselling", 2)
	assert.LessOrEqual(t, len(hits), 2)
}

func TestIndex_Search_NoOverlap(t *testing.T) {
	idx, err := Build(createCorpus())
	require.NoError(t, err)

	assert.Empty(t, idx.Search("astrophysics quasar", 10))
	assert.Empty(t, idx.Search("", 10))
}

func TestIndex_Search_Deterministic(t *testing.T) {
	idx, err := Build(createCorpus())
	require.NoError(t, err)

	first := idx.Search("trauma therapy", 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, idx.Search("trauma therapy", 10))
	}
}

// ==========================
// Service Cache Tests
// ==========================

func TestService_Search_CachesResults(t *testing.T) {
	store := cache.NewMemory()
	svc := NewService(store, 5*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()
	docs := createCorpus()

	first, err := svc.Search(ctx, "anxiety panic", docs, 5)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, store.Len())

	second, err := svc.Search(ctx, "anxiety panic", docs, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestService_Search_EmptyCorpusError(t *testing.T) {
	svc := NewService(cache.NewMemory(), time.Minute, logger.NewTestLogger(t))

	_, err := svc.Search(context.Background(), "anxiety", nil, 5)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmptyCorpus, errors.CodeOf(err))
}
