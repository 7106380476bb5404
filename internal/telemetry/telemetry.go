package telemetry

import (
	"time"

	"github.com/lumina-home/lumina-core/internal/transport"
)

// DiscoveryRecord summarises a completed discovery pass.
type DiscoveryRecord struct {
	// Total is the cumulative number of discovery passes since startup.
	Total int64
	// LastCount is the number of devices in the most recent merged result.
	LastCount int
	// Stale reports whether the most recent result was marked stale.
	Stale bool
	// LastDuration is how long the most recent pass took.
	LastDuration time.Duration
}

// CommandStats accumulates per-command delivery counters.
// One instance is kept per command kind.
type CommandStats struct {
	Total         int64
	Failures      int64
	TotalDuration time.Duration
	// LastError describes the most recent failure, nil if the command has
	// never failed.
	LastError *transport.ErrorInfo
}

// Sink receives telemetry from the device and health services.
//
// Implementations must be safe for concurrent use and should not block;
// a slow sink slows the control path that feeds it.
type Sink interface {
	// RecordDiscovery is called after every non-cached discovery pass.
	RecordDiscovery(rec DiscoveryRecord)

	// RecordCommand is called after every command attempt, success or
	// failure, with the command's accumulated stats.
	RecordCommand(command string, stats CommandStats)

	// RecordTransportHealth is called after every health refresh with the
	// resulting snapshot, the refresh duration, and the refresh error if
	// the refresh itself failed.
	RecordTransportHealth(snapshot []transport.Health, duration time.Duration, err error)
}

// MultiSink fans records out to several sinks in order.
type MultiSink struct {
	sinks []Sink
}

// Multi combines sinks into one. Nil entries are skipped.
func Multi(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// RecordDiscovery implements Sink.
func (m *MultiSink) RecordDiscovery(rec DiscoveryRecord) {
	for _, s := range m.sinks {
		s.RecordDiscovery(rec)
	}
}

// RecordCommand implements Sink.
func (m *MultiSink) RecordCommand(command string, stats CommandStats) {
	for _, s := range m.sinks {
		s.RecordCommand(command, stats)
	}
}

// RecordTransportHealth implements Sink.
func (m *MultiSink) RecordTransportHealth(snapshot []transport.Health, duration time.Duration, err error) {
	for _, s := range m.sinks {
		s.RecordTransportHealth(snapshot, duration, err)
	}
}

// NopSink discards all telemetry. Useful when no sink is configured.
type NopSink struct{}

// RecordDiscovery implements Sink.
func (NopSink) RecordDiscovery(DiscoveryRecord) {}

// RecordCommand implements Sink.
func (NopSink) RecordCommand(string, CommandStats) {}

// RecordTransportHealth implements Sink.
func (NopSink) RecordTransportHealth([]transport.Health, time.Duration, error) {}
