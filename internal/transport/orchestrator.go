package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Orchestrator.
// This allows different logging implementations to be used.
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

// HealthListener is invoked with a single transport's health after each
// refresh; the orchestrator emits one call per transport that reported,
// not one batched call.
type HealthListener func(Health)

// Orchestrator abstracts "many transports" behind one device/command API.
//
// It owns the registered transport set, merges their discovery results,
// maintains a per-descriptor health snapshot and routes state/command
// requests to a supporting, healthy transport with deterministic fallback.
//
// The transport list is fixed at construction; registration order is the
// deterministic iteration order for merging and the tie-break for routing.
//
// All public methods are thread-safe.
type Orchestrator struct {
	transports []Transport // registration order, fixed after construction

	// health holds the last-known check result per descriptor.
	// A transport that has never been checked has no entry and is
	// treated as not healthy (fail-closed).
	health   map[Descriptor]Health
	healthMu sync.RWMutex

	// listeners receive one event per transport per health refresh.
	listeners  []healthSubscription
	nextListen int
	listenMu   sync.Mutex

	logger Logger
}

type healthSubscription struct {
	id int
	fn HealthListener
}

// NewOrchestrator creates an orchestrator over the given transports.
// The argument order becomes the registration order: it fixes the merge
// iteration order and breaks priority ties during routing.
func NewOrchestrator(transports ...Transport) *Orchestrator {
	return &Orchestrator{
		transports: transports,
		health:     make(map[Descriptor]Health),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the orchestrator.
func (o *Orchestrator) SetLogger(logger Logger) {
	o.logger = logger
}

// Descriptors returns the registered transport descriptors in
// registration order.
func (o *Orchestrator) Descriptors() []Descriptor {
	descs := make([]Descriptor, len(o.transports))
	for i, t := range o.transports {
		descs[i] = t.Descriptor()
	}
	return descs
}

// OnHealth registers a listener for per-transport health events.
// Returns an unsubscribe function; listeners registered earlier are
// notified earlier.
func (o *Orchestrator) OnHealth(fn HealthListener) func() {
	o.listenMu.Lock()
	defer o.listenMu.Unlock()

	id := o.nextListen
	o.nextListen++
	o.listeners = append(o.listeners, healthSubscription{id: id, fn: fn})

	return func() {
		o.listenMu.Lock()
		defer o.listenMu.Unlock()
		for i, sub := range o.listeners {
			if sub.id == id {
				o.listeners = append(o.listeners[:i], o.listeners[i+1:]...)
				return
			}
		}
	}
}

// discoveryOutcome holds one transport's discovery result or error.
// Collected into a fixed-size slice indexed by transport so the fan-out
// has no concurrent writers to shared collections.
type discoveryOutcome struct {
	result DiscoveryResult
	err    error
}

// DiscoverDevices invokes discovery on every registered transport
// concurrently and merges the results.
//
// Each transport call independently fails or succeeds; a failing transport
// does not abort the others, and the merge waits for all calls to settle.
//
// Merge semantics:
//   - Records are keyed by (deviceID, model). Transports are iterated in
//     registration order; a later transport's record fully supersedes an
//     earlier one for the same key, so transports expected to have better
//     data (e.g. a local transport with fresher labels) should be
//     registered later.
//   - The aggregate Stale flag is the AND of the contributing transports'
//     flags: one fresh source is enough to call the merged result fresh.
//
// Returns ErrDiscoveryFailed only when every transport failed.
func (o *Orchestrator) DiscoverDevices(ctx context.Context) (DiscoveryResult, error) {
	if len(o.transports) == 0 {
		return DiscoveryResult{}, ErrNoTransports
	}

	outcomes := make([]discoveryOutcome, len(o.transports))

	var wg sync.WaitGroup
	for i, t := range o.transports {
		wg.Add(1)
		go func(i int, t Transport) {
			defer wg.Done()
			result, err := t.DiscoverDevices(ctx)
			outcomes[i] = discoveryOutcome{result: result, err: err}
		}(i, t)
	}
	wg.Wait()

	// Merge in registration order so repeated discoveries with identical
	// transport responses always produce identical output.
	index := make(map[DeviceKey]int)
	var merged []Light
	stale := true
	contributed := false
	var failures []error

	for i, t := range o.transports {
		desc := t.Descriptor()
		out := outcomes[i]

		if out.err != nil {
			o.logger.Warn("transport discovery failed",
				"transport", desc.Kind,
				"error", out.err,
			)
			failures = append(failures, fmt.Errorf("%s: %w", desc.Kind, out.err))
			continue
		}

		contributed = true
		stale = stale && out.result.Stale

		for _, light := range out.result.Lights {
			key := light.Key()
			if pos, ok := index[key]; ok {
				// Later transport wins the whole record, including label.
				merged[pos] = light
			} else {
				index[key] = len(merged)
				merged = append(merged, light)
			}
		}
	}

	if !contributed {
		return DiscoveryResult{}, fmt.Errorf("%w: %w", ErrDiscoveryFailed, errors.Join(failures...))
	}

	o.logger.Debug("discovery merged",
		"devices", len(merged),
		"stale", stale,
		"failed_transports", len(failures),
	)

	return DiscoveryResult{Lights: merged, Stale: stale}, nil
}

// RefreshHealth checks every registered transport's health concurrently,
// overwrites the per-descriptor entry in the health map, and emits one
// health event per transport that reported.
//
// Returns the context error if the caller's context was cancelled; the
// individual check failures are recorded in the health map, not returned.
func (o *Orchestrator) RefreshHealth(ctx context.Context) error {
	if len(o.transports) == 0 {
		return ErrNoTransports
	}

	results := make([]Health, len(o.transports))

	var wg sync.WaitGroup
	for i, t := range o.transports {
		wg.Add(1)
		go func(i int, t Transport) {
			defer wg.Done()
			results[i] = t.CheckHealth(ctx)
		}(i, t)
	}
	wg.Wait()

	// Last-write-wins per descriptor; single writer after the join point.
	o.healthMu.Lock()
	for _, h := range results {
		o.health[h.Descriptor] = h
	}
	o.healthMu.Unlock()

	// Emit per-transport events outside the lock, in registration order.
	o.listenMu.Lock()
	subs := make([]healthSubscription, len(o.listeners))
	copy(subs, o.listeners)
	o.listenMu.Unlock()

	for _, h := range results {
		o.logger.Debug("transport health refreshed",
			"transport", h.Descriptor.Kind,
			"healthy", h.Healthy,
			"latency_ms", h.LatencyMs,
		)
		for _, sub := range subs {
			sub.fn(h)
		}
	}

	return ctx.Err()
}

// GetHealthSnapshot returns the last-refreshed health of every registered
// transport, in registration order. It performs no I/O.
//
// A transport that has never been checked appears with Healthy=false and a
// zero LastChecked timestamp.
func (o *Orchestrator) GetHealthSnapshot() []Health {
	o.healthMu.RLock()
	defer o.healthMu.RUnlock()

	snapshot := make([]Health, 0, len(o.transports))
	for _, t := range o.transports {
		desc := t.Descriptor()
		if h, ok := o.health[desc]; ok {
			snapshot = append(snapshot, h)
		} else {
			snapshot = append(snapshot, Health{Descriptor: desc, Healthy: false})
		}
	}
	return snapshot
}

// GetLightState selects a healthy, supporting transport and queries it for
// the device's live state.
//
// Fails with ErrNoHealthyTransport if no transport qualifies. A transport
// error from the chosen transport propagates unmodified; there is no
// automatic second-transport retry.
func (o *Orchestrator) GetLightState(ctx context.Context, deviceID, model string) (StateResult, error) {
	t, err := o.route(deviceID, model, "")
	if err != nil {
		return StateResult{}, err
	}
	return t.GetLightState(ctx, deviceID, model)
}

// SendCommand validates the request, selects a healthy, supporting
// transport and delegates the command to it.
//
// Routing is a selection, not a retry chain: if the chosen transport's
// call fails the error propagates to the caller rather than silently
// double-sending a stateful command over a second channel.
func (o *Orchestrator) SendCommand(ctx context.Context, req CommandRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	t, err := o.route(req.DeviceID, req.Model, req.Command)
	if err != nil {
		return err
	}

	o.logger.Debug("routing command",
		"transport", t.Descriptor().Kind,
		"device_id", req.DeviceID,
		"command", req.Command,
	)

	return t.SendCommand(ctx, req)
}

// route selects the transport to serve a device, or fails with
// ErrNoHealthyTransport.
//
// Selection: filter to transports whose last known health is healthy
// (never-checked counts as unhealthy, fail-closed), filter to those whose
// Supports probe accepts the device/command, then order by priority
// ascending with registration order breaking ties and take the first.
func (o *Orchestrator) route(deviceID, model string, cmd Command) (Transport, error) {
	// Read the health snapshot first so the Supports probes run outside
	// the lock.
	o.healthMu.RLock()
	healthy := make([]bool, len(o.transports))
	for i, t := range o.transports {
		h, ok := o.health[t.Descriptor()]
		healthy[i] = ok && h.Healthy
	}
	o.healthMu.RUnlock()

	var candidates []Transport
	for i, t := range o.transports {
		if !healthy[i] {
			continue
		}
		if !t.Supports(deviceID, model, cmd) {
			continue
		}
		candidates = append(candidates, t)
	}

	if len(candidates) == 0 {
		if cmd == "" {
			return nil, fmt.Errorf("%w: device %s (%s)", ErrNoHealthyTransport, deviceID, model)
		}
		return nil, fmt.Errorf("%w: device %s (%s), command %q", ErrNoHealthyTransport, deviceID, model, cmd)
	}

	// Stable sort keeps registration order for equal priorities.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Descriptor().Priority < candidates[b].Descriptor().Priority
	})

	return candidates[0], nil
}
