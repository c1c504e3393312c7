package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogRecordField(t *testing.T) {
	rec := LogRecord{
		"service": "gateway",
		"code":    float64(502),
		"tags":    []any{"http", "gateway"},
		"empty":   nil,
	}

	assert.Equal(t, "gateway", rec.Field("service"))
	assert.Equal(t, "502", rec.Field("code"))
	assert.Equal(t, "http gateway", rec.Field("tags"))
	assert.Equal(t, "", rec.Field("empty"))
	assert.Equal(t, "", rec.Field("missing"))
}

func TestLogRecordTags(t *testing.T) {
	assert.Equal(t, []string{"db", "lock"}, LogRecord{"tags": []any{"db", "lock"}}.Tags())
	assert.Equal(t, []string{"oom"}, LogRecord{"tags": []string{"oom"}}.Tags())
	assert.Nil(t, LogRecord{}.Tags())
}
