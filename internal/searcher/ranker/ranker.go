// Package ranker scores documents against a query by cosine similarity of
// TF-IDF vectors.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
)

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// QueryVector maps each distinct query term to its weight.
type QueryVector map[string]float64

// BuildQueryVector gives every distinct term the weight 1/sqrt(n), where n
// counts repeated terms. The vector is not renormalized after duplicates
// collapse, so a query with repeats has norm below 1.
func BuildQueryVector(terms []string) QueryVector {
	q := make(QueryVector, len(terms))
	if len(terms) == 0 {
		return q
	}
	w := 1 / math.Sqrt(float64(len(terms)))
	for _, t := range terms {
		q[t] = w
	}
	return q
}

// Terms returns the query terms in lexical order.
func (q QueryVector) Terms() []string {
	terms := make([]string, 0, len(q))
	for t := range q {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Cosine returns the dot product of q and d over their shared terms. Both
// are expected to be unit length, making this their cosine similarity.
func Cosine(q QueryVector, d index.DocVector) float64 {
	var score float64
	for _, t := range q.Terms() {
		if w, ok := d[t]; ok {
			score += q[t] * w
		}
	}
	return score
}

// Rank scores every document of inv and sorts by score descending, breaking
// ties by ascending document ID.
func Rank(q QueryVector, inv index.InvertedIndex) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(inv))
	for docID, vec := range inv {
		result = append(result, ScoredDoc{DocID: docID, Score: Cosine(q, vec)})
	}
	Sort(result)
	return result
}

// Sort orders results by score descending, then document ID ascending.
func Sort(result []ScoredDoc) {
	sort.Slice(result, func(i, j int) bool {
		return Less(result[i], result[j])
	})
}

// Less reports whether a ranks ahead of b.
func Less(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}
