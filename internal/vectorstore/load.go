package vectorstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/valyala/fastjson"

	"lograg/internal/domain"
	"lograg/internal/logparse"
)

var (
	// ErrEmptyFile is returned when the vector file holds no records.
	ErrEmptyFile = errors.New("vector file contains no records")
	// ErrMalformed is returned for lines that are not valid vector records.
	ErrMalformed = errors.New("malformed vector record")
)

const maxLineSize = 16 << 20

// LoadError reports why a vector file could not be loaded. Line is 0 when the
// failure is not tied to a particular line.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a newline-delimited JSON vector file. Each line is an object
// with "id", "vector" and "metadata" keys. Blank lines are ignored.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var (
		p     fastjson.Parser
		items []domain.IndexedVector
		dim   int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		item, err := parseLine(&p, raw)
		if err != nil {
			return nil, &LoadError{Path: path, Line: line, Err: err}
		}
		if item.ID == "" {
			item.ID = strconv.Itoa(line)
		}
		if dim == 0 {
			dim = len(item.Vector)
		} else if len(item.Vector) != dim {
			return nil, &LoadError{Path: path, Line: line, Err: fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(item.Vector), dim)}
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, &LoadError{Path: path, Line: line + 1, Err: err}
	}
	if len(items) == 0 {
		return nil, &LoadError{Path: path, Err: ErrEmptyFile}
	}
	s, err := New(items)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return s, nil
}

func parseLine(p *fastjson.Parser, raw []byte) (domain.IndexedVector, error) {
	v, err := p.ParseBytes(raw)
	if err != nil {
		return domain.IndexedVector{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v.Type() != fastjson.TypeObject {
		return domain.IndexedVector{}, fmt.Errorf("%w: expected object, got %s", ErrMalformed, v.Type())
	}
	vec := v.Get("vector")
	if vec == nil {
		return domain.IndexedVector{}, fmt.Errorf("%w: missing vector", ErrMalformed)
	}
	arr, err := vec.Array()
	if err != nil {
		return domain.IndexedVector{}, fmt.Errorf("%w: vector: %v", ErrMalformed, err)
	}
	if len(arr) == 0 {
		return domain.IndexedVector{}, fmt.Errorf("%w: empty vector", ErrMalformed)
	}
	out := domain.IndexedVector{Vector: make([]float64, len(arr))}
	for i, x := range arr {
		f, err := x.Float64()
		if err != nil {
			return domain.IndexedVector{}, fmt.Errorf("%w: vector[%d]: %v", ErrMalformed, i, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.IndexedVector{}, fmt.Errorf("%w: vector[%d]: non-finite value %v", ErrMalformed, i, f)
		}
		out.Vector[i] = f
	}
	if id := v.Get("id"); id != nil {
		switch id.Type() {
		case fastjson.TypeString:
			out.ID = string(id.GetStringBytes())
		case fastjson.TypeNumber:
			out.ID = id.String()
		}
	}
	out.Record = domain.LogRecord{}
	if md := v.Get("metadata"); md != nil && md.Type() != fastjson.TypeNull {
		if md.Type() != fastjson.TypeObject {
			return domain.IndexedVector{}, fmt.Errorf("%w: metadata: expected object, got %s", ErrMalformed, md.Type())
		}
		out.Record = logparse.Record(md)
	}
	return out, nil
}
