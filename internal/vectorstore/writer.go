package vectorstore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"lograg/internal/domain"
)

type record struct {
	ID       string           `json:"id"`
	Vector   []float64        `json:"vector"`
	Metadata domain.LogRecord `json:"metadata"`
}

// Writer emits vector records in the format Load reads.
type Writer struct {
	w         *bufio.Writer
	enc       *json.Encoder
	dimension int
	count     int
}

func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write appends one record. All records must share the first record's
// dimension.
func (w *Writer) Write(v domain.IndexedVector) error {
	if len(v.Vector) == 0 {
		return errors.New("empty vector")
	}
	if w.dimension == 0 {
		w.dimension = len(v.Vector)
	} else if len(v.Vector) != w.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v.Vector), w.dimension)
	}
	md := v.Record
	if md == nil {
		md = domain.LogRecord{}
	}
	if err := w.enc.Encode(record{ID: v.ID, Vector: v.Vector, Metadata: md}); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int { return w.count }

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }
