package serialmon

import (
	"time"

	"go.uber.org/atomic"
)

// Metrics tracks statistics for a monitoring run
type Metrics struct {
	// Connection Statistics
	OpenAttempts   atomic.Int64 // Device open attempts
	OpenFailures   atomic.Int64 // Failed opens, including configure failures
	ConnectedAt    atomic.Int64 // UnixNano when the device was opened
	ConnectedNanos atomic.Int64 // Total connected time

	// Read Statistics
	Polls            atomic.Int64 // Availability checks performed
	EmptyPolls       atomic.Int64 // Availability checks that found nothing
	BytesRead        atomic.Int64 // Bytes received from the device
	RecordsReceived  atomic.Int64 // Records decoded and printed
	TruncatedRecords atomic.Int64 // Records cut at the maximum line size

	// Error Categories
	DecodeErrors atomic.Int64 // Records that were not valid UTF-8
	DeviceErrors atomic.Int64 // Terminal transport errors
}

// HealthStatus summarises how a run is going
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

// MetricsSnapshot is a point-in-time copy of Metrics with derived values.
type MetricsSnapshot struct {
	Timestamp        time.Time     `json:"timestamp"`
	IsConnected      bool          `json:"is_connected"`
	Uptime           time.Duration `json:"uptime_ns"`
	OpenAttempts     int64         `json:"open_attempts"`
	OpenFailures     int64         `json:"open_failures"`
	Polls            int64         `json:"polls"`
	EmptyPolls       int64         `json:"empty_polls"`
	BytesRead        int64         `json:"bytes_read"`
	RecordsReceived  int64         `json:"records_received"`
	TruncatedRecords int64         `json:"truncated_records"`
	DecodeErrors     int64         `json:"decode_errors"`
	DeviceErrors     int64         `json:"device_errors"`
	DecodeErrorRate  float64       `json:"decode_error_rate"`
	HealthStatus     HealthStatus  `json:"health_status"`
}

// Snapshot copies the counters. connected reports whether the device is
// currently open.
func (m *Metrics) Snapshot(connected bool) MetricsSnapshot {
	now := time.Now()
	s := MetricsSnapshot{
		Timestamp:        now,
		IsConnected:      connected,
		OpenAttempts:     m.OpenAttempts.Load(),
		OpenFailures:     m.OpenFailures.Load(),
		Polls:            m.Polls.Load(),
		EmptyPolls:       m.EmptyPolls.Load(),
		BytesRead:        m.BytesRead.Load(),
		RecordsReceived:  m.RecordsReceived.Load(),
		TruncatedRecords: m.TruncatedRecords.Load(),
		DecodeErrors:     m.DecodeErrors.Load(),
		DeviceErrors:     m.DeviceErrors.Load(),
	}

	s.Uptime = time.Duration(m.ConnectedNanos.Load())
	if connected {
		if start := m.ConnectedAt.Load(); start > 0 {
			s.Uptime += time.Duration(now.UnixNano() - start)
		}
	}

	s.DecodeErrorRate = m.calculateDecodeErrorRate()
	s.HealthStatus = m.assessHealthStatus(&s)
	return s
}

// calculateDecodeErrorRate returns the percentage of records that failed to decode
func (m *Metrics) calculateDecodeErrorRate() float64 {
	bad := m.DecodeErrors.Load()
	total := m.RecordsReceived.Load() + bad
	if total == 0 {
		return 0.0
	}
	return float64(bad) / float64(total) * 100
}

func (m *Metrics) assessHealthStatus(snapshot *MetricsSnapshot) HealthStatus {
	if !snapshot.IsConnected || snapshot.DeviceErrors > 0 {
		return HealthStatusDown
	}

	// A high decode error rate usually means a baud rate mismatch.
	if snapshot.DecodeErrorRate > 10.0 {
		return HealthStatusDegraded
	}

	return HealthStatusHealthy
}
