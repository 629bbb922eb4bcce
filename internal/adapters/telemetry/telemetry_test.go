package telemetry

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogTelemetryRecordWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLogTelemetry(zerolog.New(&buf))

	adapter.Record("project.created", map[string]string{"project_id": "p1", "name": "Atlas"})

	line := buf.String()
	assert.Contains(t, line, `"event":"project.created"`)
	assert.Contains(t, line, `"project_id":"p1"`)
	assert.Contains(t, line, `"name":"Atlas"`)
	assert.Contains(t, line, `"component":"telemetry"`)
}

func TestLogTelemetryRecordWithoutAttributes(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLogTelemetry(zerolog.New(&buf))

	adapter.Record("calendar.resynced", nil)

	assert.Contains(t, buf.String(), `"event":"calendar.resynced"`)
}

func TestNoopTelemetryDiscards(t *testing.T) {
	NewNoopTelemetry().Record("event.name", map[string]string{"k": "v"})
}
