package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// Merge unions shard frequency maps into a fresh index. Shards cover
// disjoint document sets, so a docID seen twice for one term means the
// partitioning is broken and is reported as ErrMergeCollision.
func Merge(shards ...FrequencyIndex) (FrequencyIndex, error) {
	merged := make(FrequencyIndex)
	for shardID, shard := range shards {
		for term, docs := range shard {
			target, ok := merged[term]
			if !ok {
				target = make(map[int]int, len(docs))
				merged[term] = target
			}
			for docID, count := range docs {
				if existing, dup := target[docID]; dup {
					return nil, fmt.Errorf("term %q doc %d in shard %d (count %d, already %d): %w",
						term, docID, shardID, count, existing, apperrors.ErrMergeCollision)
				}
				target[docID] = count
			}
		}
	}
	return merged, nil
}
