package lighting

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/lumina-home/lumina-core/internal/telemetry"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// catalogueKey is the single cache key; the device service caches the
// whole merged catalogue, not individual devices.
const catalogueKey = "catalogue"

// Orchestrator is the slice of the transport orchestrator the device
// service depends on.
type Orchestrator interface {
	DiscoverDevices(ctx context.Context) (transport.DiscoveryResult, error)
	GetLightState(ctx context.Context, deviceID, model string) (transport.StateResult, error)
	SendCommand(ctx context.Context, req transport.CommandRequest) error
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

// catalogueEntry is the cached value: the normalized catalogue plus its
// staleness flag.
type catalogueEntry struct {
	lights []Light
	stale  bool
}

// Service is the device service: a TTL-cached, normalized view of the
// orchestrator's merged catalogue, plus command/state pass-through with
// telemetry.
//
// All public methods are thread-safe.
type Service struct {
	orch   Orchestrator
	ttl    time.Duration
	cache  *ttlcache.Cache[string, catalogueEntry]
	store  SnapshotStore
	sink   telemetry.Sink
	logger Logger

	statsMu        sync.Mutex
	discoveryTotal int64
	commandStats   map[transport.Command]telemetry.CommandStats
}

// NewService creates a device service over the given orchestrator.
//
// ttl is how long a merged discovery result stays fresh; within the TTL,
// Discover serves from cache without touching any transport. The TTL is
// absolute, not sliding: reads do not extend it.
func NewService(orch Orchestrator, ttl time.Duration) *Service {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, catalogueEntry](ttl),
		ttlcache.WithDisableTouchOnHit[string, catalogueEntry](),
	)
	go cache.Start()

	return &Service{
		orch:         orch,
		ttl:          ttl,
		cache:        cache,
		sink:         telemetry.NopSink{},
		logger:       noopLogger{},
		commandStats: make(map[transport.Command]telemetry.CommandStats),
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

// SetStore sets the catalogue snapshot store. When set, every successful
// discovery is persisted so WarmFromSnapshot can serve it after a restart.
func (s *Service) SetStore(store SnapshotStore) {
	s.store = store
}

// Close stops the cache's expiry loop.
func (s *Service) Close() {
	s.cache.Stop()
}

// Discover returns the current light catalogue.
//
// On a cache hit (and force=false) it returns the cached catalogue without
// any transport I/O. Otherwise it runs a full orchestrator discovery,
// normalizes the result, replaces the cache and persists a snapshot.
//
// A failed discovery propagates its error and leaves the existing cache
// untouched, so previously known devices stay available until the TTL
// expires.
//
// The returned slice is a copy; callers may mutate it freely. The second
// return value reports whether the catalogue is stale.
func (s *Service) Discover(ctx context.Context, force bool) ([]Light, bool, error) {
	if !force {
		if item := s.cache.Get(catalogueKey); item != nil {
			entry := item.Value()
			return copyLights(entry.lights), entry.stale, nil
		}
	}

	start := time.Now()
	result, err := s.orch.DiscoverDevices(ctx)
	if err != nil {
		return nil, false, err
	}
	elapsed := time.Since(start)

	lights := NormalizeAll(result.Lights)
	s.cache.Set(catalogueKey, catalogueEntry{lights: lights, stale: result.Stale}, ttlcache.DefaultTTL)

	s.persistSnapshot(ctx, lights, result.Stale)
	s.recordDiscovery(len(lights), result.Stale, elapsed)

	s.logger.Info("catalogue refreshed",
		"devices", len(lights),
		"stale", result.Stale,
		"duration_ms", elapsed.Milliseconds(),
	)

	return copyLights(lights), result.Stale, nil
}

// CachedLights returns the cached catalogue without any transport I/O.
// Returns nil if the cache was never populated, cleared, or has expired.
func (s *Service) CachedLights() ([]Light, bool) {
	item := s.cache.Get(catalogueKey)
	if item == nil {
		return nil, false
	}
	entry := item.Value()
	return copyLights(entry.lights), entry.stale
}

// ClearCache drops the cached catalogue. The next Discover call will run
// a full orchestrator discovery.
func (s *Service) ClearCache() {
	s.cache.Delete(catalogueKey)
}

// GetLightState queries the live state of a device through the
// orchestrator. Results are never cached; state reads are always live.
func (s *Service) GetLightState(ctx context.Context, deviceID, model string) (transport.StateResult, error) {
	return s.orch.GetLightState(ctx, deviceID, model)
}

// SendCommand delivers a command through the orchestrator and records
// per-command telemetry.
//
// Telemetry is updated before a failure is rethrown, so a command that
// errored is still counted with its failure descriptor.
func (s *Service) SendCommand(ctx context.Context, req transport.CommandRequest) error {
	start := time.Now()
	err := s.orch.SendCommand(ctx, req)
	s.recordCommand(req.Command, time.Since(start), err)
	return err
}

// WarmFromSnapshot loads the persisted catalogue snapshot into the cache,
// forcing the stale flag so consumers know the data predates this process.
//
// Intended for startup: a restarted core can serve the last known
// catalogue immediately while the first real discovery is still running.
// Returns ErrNoStore if no store is configured and ErrNoSnapshot if
// nothing was ever persisted.
func (s *Service) WarmFromSnapshot(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	s.cache.Set(catalogueKey, catalogueEntry{lights: snap.Lights, stale: true}, ttlcache.DefaultTTL)

	s.logger.Info("catalogue warmed from snapshot",
		"devices", len(snap.Lights),
		"captured_at", snap.CapturedAt,
	)
	return nil
}

// persistSnapshot saves the catalogue to the snapshot store, if one is
// configured. Persistence failures are logged and absorbed; they must not
// fail the discovery that produced the data.
func (s *Service) persistSnapshot(ctx context.Context, lights []Light, stale bool) {
	if s.store == nil {
		return
	}

	snap := Snapshot{Lights: lights, Stale: stale, CapturedAt: time.Now().UTC()}
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Warn("persisting catalogue snapshot failed", "error", err)
	}
}

// recordDiscovery updates the discovery counter and notifies the sink.
func (s *Service) recordDiscovery(count int, stale bool, elapsed time.Duration) {
	s.statsMu.Lock()
	s.discoveryTotal++
	rec := telemetry.DiscoveryRecord{
		Total:        s.discoveryTotal,
		LastCount:    count,
		Stale:        stale,
		LastDuration: elapsed,
	}
	s.statsMu.Unlock()

	s.sink.RecordDiscovery(rec)
}

// recordCommand updates the per-command counters and notifies the sink.
func (s *Service) recordCommand(cmd transport.Command, elapsed time.Duration, err error) {
	s.statsMu.Lock()
	stats := s.commandStats[cmd]
	stats.Total++
	stats.TotalDuration += elapsed
	if err != nil {
		stats.Failures++
		stats.LastError = transport.DescribeError(err)
	}
	s.commandStats[cmd] = stats
	s.statsMu.Unlock()

	s.sink.RecordCommand(string(cmd), stats)
}

// copyLights returns a defensive copy so callers cannot mutate the cache.
// SupportedCommands is copied per light; the structs would otherwise share
// their backing arrays with the cached entry.
func copyLights(lights []Light) []Light {
	out := make([]Light, len(lights))
	copy(out, lights)
	for i := range out {
		out[i].SupportedCommands = append([]string(nil), out[i].SupportedCommands...)
	}
	return out
}
