package embedding

import (
	"errors"
	"math"

	"lograg/internal/domain"
)

// Embedder converts free text into a numeric vector representation.
// Remote implementations report Dimension 0 until the first successful call.
type Embedder = domain.Embedder

// ErrEmptyEmbedding is returned when a backend answers without a vector.
var ErrEmptyEmbedding = errors.New("no embedding returned")

// Normalize scales v to unit L2 length in place. Zero vectors are left as is.
func Normalize(v []float64) []float64 {
	n := 0.0
	for _, x := range v {
		n += x * x
	}
	n = math.Sqrt(n)
	if n > 0 {
		for i := range v {
			v[i] /= n
		}
	}
	return v
}
