package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// Document is one corpus file. ID is assigned once at corpus load and is the
// only key the other structures use to refer to it.
type Document struct {
	ID         int    `json:"doc_id"`
	SourceName string `json:"source_name"`
}

// DocumentMap lists the corpus documents in ID order.
type DocumentMap []Document

// IDs returns every document ID in map order.
func (m DocumentMap) IDs() []int {
	ids := make([]int, len(m))
	for i, d := range m {
		ids[i] = d.ID
	}
	return ids
}

// Name returns the source name of document id.
func (m DocumentMap) Name(id int) (string, error) {
	if id >= 0 && id < len(m) && m[id].ID == id {
		return m[id].SourceName, nil
	}
	for _, d := range m {
		if d.ID == id {
			return d.SourceName, nil
		}
	}
	return "", fmt.Errorf("document %d: %w", id, apperrors.ErrUnknownDocument)
}

// FrequencyIndex maps term -> docID -> raw occurrence count.
type FrequencyIndex map[string]map[int]int

// Add counts one occurrence of term in docID.
func (f FrequencyIndex) Add(term string, docID int) {
	docs, ok := f[term]
	if !ok {
		docs = make(map[int]int)
		f[term] = docs
	}
	docs[docID]++
}

// WeightedIndex maps term -> docID -> TF-IDF weight.
type WeightedIndex map[string]map[int]float64

// DocVector maps term -> weight for a single document.
type DocVector map[string]float64

// InvertedIndex maps docID -> the document's term vector.
type InvertedIndex map[int]DocVector

// TermCount returns the number of distinct terms across all vectors.
func (inv InvertedIndex) TermCount() int {
	terms := make(map[string]struct{})
	for _, vec := range inv {
		for term := range vec {
			terms[term] = struct{}{}
		}
	}
	return len(terms)
}
