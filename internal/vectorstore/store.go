package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"lograg/internal/domain"
)

var (
	// ErrInvalidK is returned by Search when k < 1.
	ErrInvalidK = errors.New("k must be at least 1")
	// ErrDimensionMismatch is returned when vector lengths disagree.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Store is an immutable in-memory vector store using brute-force cosine
// similarity. Row i of the matrix belongs to records[i].
type Store struct {
	dimension int
	ids       []string
	records   []domain.LogRecord
	matrix    []float64
	norms     []float64
}

// New builds a store from the given vectors. An empty input yields an empty
// store.
func New(items []domain.IndexedVector) (*Store, error) {
	s := &Store{}
	if len(items) == 0 {
		return s, nil
	}
	s.dimension = len(items[0].Vector)
	if s.dimension == 0 {
		return nil, errors.New("empty vector")
	}
	s.ids = make([]string, 0, len(items))
	s.records = make([]domain.LogRecord, 0, len(items))
	s.matrix = make([]float64, 0, len(items)*s.dimension)
	s.norms = make([]float64, 0, len(items))
	for i, it := range items {
		if len(it.Vector) != s.dimension {
			return nil, fmt.Errorf("entry %d: %w: got %d, want %d", i, ErrDimensionMismatch, len(it.Vector), s.dimension)
		}
		s.ids = append(s.ids, it.ID)
		s.records = append(s.records, it.Record)
		s.matrix = append(s.matrix, it.Vector...)
		s.norms = append(s.norms, norm(it.Vector))
	}
	return s, nil
}

// Len returns the number of stored vectors.
func (s *Store) Len() int { return len(s.records) }

// Dimension returns the length of every stored vector, or 0 for an empty store.
func (s *Store) Dimension() int { return s.dimension }

// ID returns the identifier of entry i.
func (s *Store) ID(i int) string { return s.ids[i] }

// Search scores query against every stored vector and returns the top k by
// descending cosine similarity. Ties keep insertion order.
func (s *Store) Search(query []float64, k int) ([]domain.SearchResult, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	n := len(s.records)
	if n == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, store has %d", ErrDimensionMismatch, len(query), s.dimension)
	}
	qn := norm(query)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		row := s.matrix[i*s.dimension : (i+1)*s.dimension]
		scores[i] = cosine(row, s.norms[i], query, qn)
	}
	idxs := argsortDesc(scores)
	if k > n {
		k = n
	}
	results := make([]domain.SearchResult, 0, k)
	for _, j := range idxs[:k] {
		results = append(results, domain.SearchResult{Score: scores[j], Record: s.records[j]})
	}
	return results, nil
}

// cosine returns dot(a, b) / (|a||b|), or 0 when either norm is zero.
func cosine(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	return dot(a, b) / (an * bn)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return vals[idxs[i]] > vals[idxs[j]] })
	return idxs
}
