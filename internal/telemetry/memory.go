package telemetry

import (
	"sync"
	"time"

	"github.com/lumina-home/lumina-core/internal/transport"
)

// MemorySink retains telemetry in memory.
//
// It backs the diagnostics API's telemetry endpoint and doubles as a
// capture target in tests. All methods are safe for concurrent use.
type MemorySink struct {
	mu sync.Mutex

	discovery DiscoveryRecord
	commands  map[string]CommandStats
	health    []HealthRefreshRecord
}

// HealthRefreshRecord is one recorded health refresh.
type HealthRefreshRecord struct {
	Snapshot []transport.Health
	Duration time.Duration
	Err      *transport.ErrorInfo
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		commands: make(map[string]CommandStats),
	}
}

// RecordDiscovery implements Sink.
func (s *MemorySink) RecordDiscovery(rec DiscoveryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovery = rec
}

// RecordCommand implements Sink.
func (s *MemorySink) RecordCommand(command string, stats CommandStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[command] = stats
}

// RecordTransportHealth implements Sink.
func (s *MemorySink) RecordTransportHealth(snapshot []transport.Health, duration time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = append(s.health, HealthRefreshRecord{
		Snapshot: snapshot,
		Duration: duration,
		Err:      transport.DescribeError(err),
	})
}

// Discovery returns the most recent discovery record.
func (s *MemorySink) Discovery() DiscoveryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discovery
}

// Command returns the accumulated stats for a command kind.
// The second return value is false if the command was never recorded.
func (s *MemorySink) Command(command string) (CommandStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.commands[command]
	return stats, ok
}

// Commands returns a copy of all per-command stats.
func (s *MemorySink) Commands() map[string]CommandStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]CommandStats, len(s.commands))
	for k, v := range s.commands {
		out[k] = v
	}
	return out
}

// HealthRefreshes returns a copy of all recorded health refreshes.
func (s *MemorySink) HealthRefreshes() []HealthRefreshRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HealthRefreshRecord, len(s.health))
	copy(out, s.health)
	return out
}
