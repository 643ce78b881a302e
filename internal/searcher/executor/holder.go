package executor

import (
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// Holder publishes the executor a server queries. Reloads replace the whole
// executor; in-flight queries finish on the one they started with.
type Holder struct {
	current atomic.Pointer[Executor]
}

// Snapshot returns the current executor or ErrIndexNotLoaded.
func (h *Holder) Snapshot() (*Executor, error) {
	e := h.current.Load()
	if e == nil {
		return nil, apperrors.ErrIndexNotLoaded
	}
	return e, nil
}

// Store installs e and returns the executor it replaced, if any.
func (h *Holder) Store(e *Executor) *Executor {
	return h.current.Swap(e)
}

// Reload loads the index in dir and installs it. On error the current
// executor stays in place.
func (h *Holder) Reload(store segment.FileStore, dir string) (old *Executor, err error) {
	e, err := Load(store, dir)
	if err != nil {
		return nil, err
	}
	return h.Store(e), nil
}
