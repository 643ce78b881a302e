package index

import "math"

// Weigh converts raw counts into TF-IDF weights for a corpus of n documents:
// w = log10(1+count) * log10(n/|D|), where D is the set of documents
// containing the term.
func Weigh(freq FrequencyIndex, n int) WeightedIndex {
	weighted := make(WeightedIndex, len(freq))
	for term, docs := range freq {
		idf := math.Log10(float64(n) / float64(len(docs)))
		weights := make(map[int]float64, len(docs))
		for docID, count := range docs {
			weights[docID] = TermWeight(count, idf)
		}
		weighted[term] = weights
	}
	return weighted
}

// TermWeight is the TF-IDF weight of a term seen count times in a document.
func TermWeight(count int, idf float64) float64 {
	return math.Log10(1+float64(count)) * idf
}
