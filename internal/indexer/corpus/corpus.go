// Package corpus enumerates the source documents of an index build and
// assigns their document IDs.
package corpus

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/storage"
)

// DefaultPattern accepts .txt files.
const DefaultPattern = `(.+)\.txt`

// Load lists dir, keeps the names pattern matches at their start, and
// numbers them from zero. With sortNames the names are ordered lexically
// first; otherwise IDs follow the listing order of the file system.
func Load(store storage.Lister, dir string, pattern *regexp.Regexp, sortNames bool) (index.DocumentMap, error) {
	names, err := store.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if matchesAtStart(pattern, name) {
			valid = append(valid, name)
		}
	}
	if sortNames {
		sort.Strings(valid)
	}
	docs := make(index.DocumentMap, len(valid))
	for i, name := range valid {
		docs[i] = index.Document{ID: i, SourceName: name}
	}
	return docs, nil
}

// CompilePattern compiles a file-name pattern, falling back to DefaultPattern
// when expr is empty.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		expr = DefaultPattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling file pattern %q: %w", expr, err)
	}
	return re, nil
}

func matchesAtStart(pattern *regexp.Regexp, name string) bool {
	loc := pattern.FindStringIndex(name)
	return loc != nil && loc[0] == 0
}
