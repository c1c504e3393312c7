package vectorstore

import (
	"fmt"
	"sync/atomic"

	"lograg/internal/domain"
)

// Holder serves searches from the current store and lets a rebuilt store be
// swapped in atomically. In-flight searches keep the store they started with.
// The dimension of the first store is fixed for the holder's lifetime, since
// queries are embedded at that size.
type Holder struct {
	path      string
	dimension int
	current   atomic.Pointer[Store]
}

// NewHolder wraps an already loaded store. path is used by Reload.
func NewHolder(path string, s *Store) *Holder {
	h := &Holder{path: path, dimension: s.Dimension()}
	h.current.Store(s)
	return h
}

// Current returns the store in use.
func (h *Holder) Current() *Store { return h.current.Load() }

// Reload re-reads the vector file and swaps it in. On failure, including a
// file whose dimension differs from the serving one, the current store stays
// in place.
func (h *Holder) Reload() (int, error) {
	s, err := Load(h.path)
	if err != nil {
		return 0, err
	}
	if s.Dimension() != h.dimension {
		return 0, &LoadError{
			Path: h.path,
			Err:  fmt.Errorf("%w: file has %d, serving %d", ErrDimensionMismatch, s.Dimension(), h.dimension),
		}
	}
	h.current.Store(s)
	return s.Len(), nil
}

func (h *Holder) Search(query []float64, k int) ([]domain.SearchResult, error) {
	return h.Current().Search(query, k)
}

func (h *Holder) Len() int { return h.Current().Len() }

func (h *Holder) Dimension() int { return h.Current().Dimension() }
