package logparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lograg/internal/domain"
)

func TestParseText(t *testing.T) {
	input := "\xEF\xBB\xBF2024-03-01 10:15:02 ERROR payment-api Upstream request timed out\n" +
		"    at Gateway.call(Gateway.java:42)\n" +
		"\n" +
		"    at Main.run(Main.java:7)\n" +
		"2024-03-01 10:15:09 INFO auth Login ok\n"

	recs, err := ParseText(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "2024-03-01 10:15:02", recs[0].Field("timestamp"))
	assert.Equal(t, "ERROR", recs[0].Field("level"))
	assert.Equal(t, "payment-api", recs[0].Field("service"))
	assert.Equal(t, "Upstream request timed out", recs[0].Field("message"))
	assert.Equal(t, "at Gateway.call(Gateway.java:42)\nat Main.run(Main.java:7)\n", recs[0].Field("stack"))

	assert.Equal(t, "auth", recs[1].Field("service"))
	assert.Equal(t, "", recs[1].Field("stack"))

	for _, rec := range recs {
		assert.Equal(t, "application-log", rec.Field("source"))
		assert.Equal(t, "application", rec.Field("layer"))
	}
	doc := Document(recs[1])
	assert.Contains(t, doc, "Source: application-log")
	assert.Contains(t, doc, "Layer: application")
}

func TestParseTextDropsLeadingNoise(t *testing.T) {
	recs, err := ParseText(strings.NewReader("garbage\nmore garbage\n"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "array", input: `[{"service":"a","tags":["x","y"]},{"service":"b"}]`, want: 2},
		{name: "single object", input: `{"service":"a","retries":3}`, want: 1},
		{name: "skips non objects", input: `[{"service":"a"}, 5, "x"]`, want: 1},
		{name: "scalar", input: `42`, wantErr: true},
		{name: "invalid", input: `[{"service":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := ParseJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, recs, tt.want)
		})
	}
}

func TestParseJSONValues(t *testing.T) {
	recs, err := ParseJSON([]byte(`{"service":"db","retries":3,"ok":false,"tags":["sql","deadlock"],"ctx":{"pool":"main"},"stack":null}`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, 3.0, rec["retries"])
	assert.Equal(t, false, rec["ok"])
	assert.Equal(t, []string{"sql", "deadlock"}, rec.Tags())
	assert.Equal(t, map[string]any{"pool": "main"}, rec["ctx"])
	assert.Equal(t, "", rec.Field("stack"))
}

func TestDocument(t *testing.T) {
	rec := domain.LogRecord{
		"source":    "kubernetes",
		"service":   "checkout",
		"component": "cart",
		"level":     "ERROR",
		"host":      "node-3",
		"tags":      []any{"k8s", "oom"},
		"message":   "Container killed",
		"stack":     "OOMKilled\n",
	}
	doc := Document(rec)
	assert.True(t, strings.HasPrefix(doc, "Source: kubernetes\nService: checkout\nComponent: cart\n"))
	assert.Contains(t, doc, "Host: node-3\n")
	assert.Contains(t, doc, "Tags: k8s oom\n")
	assert.Contains(t, doc, "Message:\nContainer killed\n\nStack Trace:\nOOMKilled")
	assert.False(t, strings.HasSuffix(doc, "\n"))

	assert.Contains(t, Document(domain.LogRecord{}), "Source: unknown\nService: unknown\n")
}
