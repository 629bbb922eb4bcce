package telemetry

import (
	"sort"

	"github.com/rs/zerolog"

	"staffquote/internal/ports"
)

// LogTelemetry writes each recorded event as one structured log line.
type LogTelemetry struct {
	log zerolog.Logger
}

var _ ports.Telemetry = (*LogTelemetry)(nil)

// NoopTelemetry discards events.
type NoopTelemetry struct{}

var _ ports.Telemetry = NoopTelemetry{}

func NewNoopTelemetry() NoopTelemetry {
	return NoopTelemetry{}
}

func (NoopTelemetry) Record(string, map[string]string) {}

func NewLogTelemetry(log zerolog.Logger) *LogTelemetry {
	return &LogTelemetry{log: log.With().Str("component", "telemetry").Logger()}
}

func (l *LogTelemetry) Record(name string, attributes map[string]string) {
	keys := make([]string, 0, len(attributes))
	for key := range attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	event := l.log.Info().Str("event", name)
	for _, key := range keys {
		event = event.Str(key, attributes[key])
	}
	event.Msg("telemetry event")
}
