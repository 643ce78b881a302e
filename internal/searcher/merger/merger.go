// Package merger truncates ranked results to the best k.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/ranker"
)

// TopK returns the k best results in rank order. k <= 0 or k >= len(results)
// returns every result, re-sorted.
func TopK(results []ranker.ScoredDoc, k int) []ranker.ScoredDoc {
	if k <= 0 || k >= len(results) {
		out := append([]ranker.ScoredDoc(nil), results...)
		ranker.Sort(out)
		return out
	}
	h := &scoredDocHeap{}
	for _, doc := range results {
		heap.Push(h, doc)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	out := make([]ranker.ScoredDoc, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(ranker.ScoredDoc)
	}
	return out
}

// scoredDocHeap is a min-heap on rank: the root is the worst kept result.
type scoredDocHeap []ranker.ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return ranker.Less(h[j], h[i]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x any) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
