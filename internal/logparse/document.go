package logparse

import (
	"strings"

	"lograg/internal/domain"
)

// Document renders the text that gets embedded for a record. Every field
// that describes the event is included so that queries mentioning a host,
// tag or component still land near it.
func Document(rec domain.LogRecord) string {
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}
	line("Source", orUnknown(rec.Field("source")))
	line("Service", orUnknown(rec.Field("service")))
	line("Component", rec.Field("component"))
	line("Layer", rec.Field("layer"))
	line("Level", rec.Field("level"))
	line("Host", rec.Field("host"))
	line("Timestamp", rec.Field("timestamp"))
	line("Tags", strings.Join(rec.Tags(), " "))
	b.WriteString("\nMessage:\n")
	b.WriteString(rec.Field("message"))
	b.WriteString("\n\nStack Trace:\n")
	b.WriteString(rec.Field("stack"))
	return strings.TrimSpace(b.String())
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
