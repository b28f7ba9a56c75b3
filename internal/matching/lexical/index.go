// internal/matching/lexical/index.go
package lexical

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"referwell-matching/internal/common/errors"
)

// The index is a TF-IDF vector space scored with cosine similarity. The
// original engine shipped this under a BM25 name; the behavior is preserved
// here on purpose, only the naming is honest.

// Document is one candidate's indexed text.
type Document struct {
	ID   string
	Text string
}

// Score is one ranked search hit.
type Score struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Index holds the fitted vector space for one candidate pool.
type Index struct {
	vocab   map[string]int
	idf     []float64
	docIDs  []string
	docVecs []map[int]float64 // l2-normalized sparse TF-IDF vectors
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// English stop words pruned before n-gram construction.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "i": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "my": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "she": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"there": {}, "they": {}, "this": {}, "to": {}, "was": {}, "we": {},
	"were": {}, "which": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// terms expands tokens into unigrams and bigrams.
func terms(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// Build fits the vector space over the given documents. Document-frequency
// bounds relax for small corpora so a handful of candidates still yields a
// usable vocabulary.
func Build(docs []Document) (*Index, error) {
	if len(docs) == 0 {
		return nil, errors.NewEmptyCorpusError()
	}

	n := len(docs)
	docTerms := make([][]string, n)
	df := map[string]int{}
	for i, doc := range docs {
		docTerms[i] = terms(tokenize(doc.Text))
		seen := map[string]struct{}{}
		for _, t := range docTerms[i] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	minDF, maxDF := dfBounds(n)
	vocab := map[string]int{}
	var idf []float64
	for term, count := range df {
		if count < minDF || float64(count) > maxDF*float64(n) {
			continue
		}
		vocab[term] = len(idf)
		idf = append(idf, math.Log(float64(1+n)/float64(1+count))+1)
	}
	if len(vocab) == 0 {
		// Bounds pruned everything; retry without them.
		for term, count := range df {
			vocab[term] = len(idf)
			idf = append(idf, math.Log(float64(1+n)/float64(1+count))+1)
		}
	}
	if len(vocab) == 0 {
		return nil, errors.NewEmptyCorpusError()
	}

	idx := &Index{
		vocab:   vocab,
		idf:     idf,
		docIDs:  make([]string, n),
		docVecs: make([]map[int]float64, n),
	}
	for i, doc := range docs {
		idx.docIDs[i] = doc.ID
		idx.docVecs[i] = idx.vectorize(docTerms[i])
	}
	return idx, nil
}

// dfBounds adapts the document-frequency window to the corpus size.
func dfBounds(n int) (minDF int, maxDF float64) {
	if n < 5 {
		return 1, 1.0
	}
	return 2, 0.85
}

func (idx *Index) vectorize(termList []string) map[int]float64 {
	vec := map[int]float64{}
	for _, t := range termList {
		if j, ok := idx.vocab[t]; ok {
			vec[j]++
		}
	}
	var norm float64
	for j, tf := range vec {
		w := tf * idx.idf[j]
		vec[j] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for j := range vec {
			vec[j] /= norm
		}
	}
	return vec
}

// Search vectorizes the query in the fitted space and ranks documents by
// cosine similarity. Zero-similarity documents are dropped.
func (idx *Index) Search(queryText string, topK int) []Score {
	qVec := idx.vectorize(terms(tokenize(queryText)))
	if len(qVec) == 0 {
		return nil
	}

	scores := make([]Score, 0, len(idx.docVecs))
	for i, dVec := range idx.docVecs {
		var dot float64
		// Iterate the smaller vector.
		if len(qVec) <= len(dVec) {
			for j, w := range qVec {
				dot += w * dVec[j]
			}
		} else {
			for j, w := range dVec {
				dot += w * qVec[j]
			}
		}
		if dot > 0 {
			scores = append(scores, Score{ID: idx.docIDs[i], Score: dot})
		}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
	if topK > 0 && len(scores) > topK {
		scores = scores[:topK]
	}
	return scores
}

// Size reports the number of indexed documents.
func (idx *Index) Size() int {
	return len(idx.docIDs)
}
