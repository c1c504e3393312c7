// Package logparse turns raw application logs into records ready for
// indexing.
package logparse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/valyala/fastjson"

	"lograg/internal/domain"
)

var linePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2})\s+([A-Z]+)\s+([\w\-]+)\s+(.*)`)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Plain-text lines carry no source or layer of their own.
const (
	textSource = "application-log"
	textLayer  = "application"
)

// ParseText reads "DATE TIME LEVEL SERVICE message" lines. Lines that do not
// start a new event are appended to the current event's stack; lines before
// the first event are dropped. A leading byte order mark is ignored.
func ParseText(r io.Reader) ([]domain.LogRecord, error) {
	var (
		out   []domain.LogRecord
		cur   domain.LogRecord
		stack strings.Builder
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur["stack"] = stack.String()
		out = append(out, cur)
		stack.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	first := true
	for sc.Scan() {
		raw := sc.Bytes()
		if first {
			raw = bytes.TrimPrefix(raw, bom)
			first = false
		}
		line := strings.TrimSpace(string(raw))
		if m := linePattern.FindStringSubmatch(line); m != nil {
			flush()
			cur = domain.LogRecord{
				"source":    textSource,
				"layer":     textLayer,
				"timestamp": m[1] + " " + m[2],
				"level":     m[3],
				"service":   m[4],
				"message":   m[5],
			}
			continue
		}
		if cur != nil && line != "" {
			stack.WriteString(line)
			stack.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log lines: %w", err)
	}
	flush()
	return out, nil
}

// ParseJSON decodes either an array of log objects or a single object.
// Non-object array elements are skipped.
func ParseJSON(data []byte) ([]domain.LogRecord, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(bytes.TrimPrefix(data, bom))
	if err != nil {
		return nil, fmt.Errorf("parse log json: %w", err)
	}
	switch v.Type() {
	case fastjson.TypeArray:
		arr := v.GetArray()
		out := make([]domain.LogRecord, 0, len(arr))
		for _, item := range arr {
			if item.Type() == fastjson.TypeObject {
				out = append(out, Record(item))
			}
		}
		return out, nil
	case fastjson.TypeObject:
		return []domain.LogRecord{Record(v)}, nil
	default:
		return nil, fmt.Errorf("parse log json: expected array or object, got %s", v.Type())
	}
}

// Record copies a parsed JSON object into a LogRecord. Numbers become
// float64 and nested values become []any or map[string]any.
func Record(v *fastjson.Value) domain.LogRecord {
	rec := domain.LogRecord{}
	obj, err := v.Object()
	if err != nil {
		return rec
	}
	obj.Visit(func(key []byte, val *fastjson.Value) {
		rec[string(key)] = toAny(val)
	})
	return rec
}

func toAny(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeArray:
		arr := v.GetArray()
		out := make([]any, len(arr))
		for i, x := range arr {
			out[i] = toAny(x)
		}
		return out
	case fastjson.TypeObject:
		return map[string]any(Record(v))
	default:
		return nil
	}
}
