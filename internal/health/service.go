package health

import (
	"context"
	"sync"
	"time"

	"github.com/lumina-home/lumina-core/internal/telemetry"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// Orchestrator is the slice of the transport orchestrator the health
// service depends on.
type Orchestrator interface {
	RefreshHealth(ctx context.Context) error
	GetHealthSnapshot() []transport.Health
}

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Listener receives the full health snapshot after every actual refresh.
// Cache hits do not invoke listeners.
type Listener func(snapshot []transport.Health)

type subscription struct {
	id int
	fn Listener
}

// Service deduplicates health polling: many consumers can ask for
// transport health without each triggering its own network probes.
//
// A cached snapshot is served as the same slice instance on every hit,
// so callers can use reference equality as a cheap "nothing changed"
// check. Only a force refresh (or the first call) performs I/O.
//
// All public methods are thread-safe.
type Service struct {
	orch   Orchestrator
	sink   telemetry.Sink
	logger Logger

	// refreshMu serializes refreshes so concurrent forced calls
	// produce one probe pass, not several.
	refreshMu sync.Mutex

	snapMu   sync.RWMutex
	snapshot []transport.Health

	listenMu  sync.Mutex
	listeners []subscription
	nextID    int
}

// NewService creates a health service over the given orchestrator.
func NewService(orch Orchestrator) *Service {
	return &Service{
		orch:   orch,
		sink:   telemetry.NopSink{},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetSink sets the telemetry sink for the service.
func (s *Service) SetSink(sink telemetry.Sink) {
	s.sink = sink
}

// GetHealth returns the transport health snapshot.
//
// With force=false and a cached snapshot present, the cached slice is
// returned unchanged and no I/O happens. Otherwise the orchestrator's
// health is refreshed, the new snapshot is cached, listeners are
// notified, and telemetry is recorded.
//
// A refresh error is logged and absorbed: the snapshot is still read and
// returned, so callers always get the best-known health data rather than
// an error. This graceful degradation is deliberate; refresh failures are
// observable only through logs and telemetry.
func (s *Service) GetHealth(ctx context.Context, force bool) []transport.Health {
	if !force {
		s.snapMu.RLock()
		cached := s.snapshot
		s.snapMu.RUnlock()
		if cached != nil {
			return cached
		}
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if !force {
		s.snapMu.RLock()
		cached := s.snapshot
		s.snapMu.RUnlock()
		if cached != nil {
			return cached
		}
	}

	start := time.Now()
	refreshErr := s.orch.RefreshHealth(ctx)
	elapsed := time.Since(start)

	if refreshErr != nil {
		info := transport.DescribeError(refreshErr)
		s.logger.Warn("health refresh failed, serving last known snapshot",
			"error_name", info.Name,
			"error", info.Message,
		)
	}

	snapshot := s.orch.GetHealthSnapshot()

	s.snapMu.Lock()
	s.snapshot = snapshot
	s.snapMu.Unlock()

	s.sink.RecordTransportHealth(snapshot, elapsed, refreshErr)
	s.notify(snapshot)

	return snapshot
}

// Subscribe registers a listener invoked with the full snapshot after
// every actual refresh. Returns an unsubscribe function. Listeners
// registered earlier are notified earlier.
func (s *Service) Subscribe(fn Listener) func() {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.listenMu.Lock()
		defer s.listenMu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Run refreshes health on a fixed cadence until the context is cancelled.
// Intended to be launched as a goroutine from main; it performs an
// immediate refresh before entering the loop so routing has health data
// as soon as possible.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.GetHealth(ctx, true)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.GetHealth(ctx, true)
		}
	}
}

// notify delivers the snapshot to every listener in registration order.
func (s *Service) notify(snapshot []transport.Health) {
	s.listenMu.Lock()
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.listenMu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}
