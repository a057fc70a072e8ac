package serialmon

import (
	"github.com/rs/zerolog"
)

// Metrics accessor and reporting methods for Monitor

// MetricsSnapshot copies the counters together with derived values.
func (m *Monitor) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot(m.connected.Load())
}

// IsConnected reports whether the device is currently open.
func (m *Monitor) IsConnected() bool {
	return m.connected.Load()
}

// LogSummary writes the run's counters to the diagnostic log.
func (m *Monitor) LogSummary(logger zerolog.Logger) {
	s := m.MetricsSnapshot()
	logger.Info().
		Str("port", m.cfg.PortName).
		Dur("uptime", s.Uptime).
		Int64("records", s.RecordsReceived).
		Int64("decode_errors", s.DecodeErrors).
		Int64("truncated", s.TruncatedRecords).
		Int64("bytes_read", s.BytesRead).
		Int64("polls", s.Polls).
		Int64("empty_polls", s.EmptyPolls).
		Int64("device_errors", s.DeviceErrors).
		Str("health", string(s.HealthStatus)).
		Msg("monitor summary")
}
