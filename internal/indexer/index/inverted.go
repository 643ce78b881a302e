package index

import (
	"math"
	"sort"
)

// Invert transposes a term-major weighted index into a document-major one.
// Every document in docs gets a vector, empty when it has no terms.
func Invert(weighted WeightedIndex, docs DocumentMap) InvertedIndex {
	inv := make(InvertedIndex, len(docs))
	for _, d := range docs {
		inv[d.ID] = make(DocVector)
	}
	for term, postings := range weighted {
		for docID, w := range postings {
			vec, ok := inv[docID]
			if !ok {
				vec = make(DocVector)
				inv[docID] = vec
			}
			vec[term] = w
		}
	}
	return inv
}

// Norm returns the Euclidean length of v. Terms are summed in sorted order
// so rebuilding an unchanged corpus reproduces the same bits.
func (v DocVector) Norm() float64 {
	var sum float64
	for _, term := range v.Terms() {
		w := v[term]
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Terms returns the terms of v in lexical order.
func (v DocVector) Terms() []string {
	terms := make([]string, 0, len(v))
	for term := range v {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Normalize scales every vector to unit length in place and returns the
// number of vectors left untouched because their norm is zero. Those score
// 0 against every query.
func (inv InvertedIndex) Normalize() int {
	zero := 0
	for _, vec := range inv {
		norm := vec.Norm()
		if norm == 0 {
			zero++
			continue
		}
		for term, w := range vec {
			vec[term] = w / norm
		}
	}
	return zero
}
