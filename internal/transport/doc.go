// Package transport reconciles multiple, independently-failing device
// transports into one consistent view.
//
// A Transport is a communication channel to reach lighting devices (cloud
// HTTP API, local network agent). The Orchestrator owns the registered
// transport set and provides:
//
//   - merged device discovery with deterministic deduplication
//   - a per-transport health snapshot, refreshed on demand
//   - routing of state queries and commands to a healthy, supporting
//     transport with deterministic priority fallback
//
// # Routing
//
// Routing is a selection, not a retry chain. The orchestrator filters to
// healthy transports (fail-closed: a transport never health-checked is
// excluded), filters to transports whose Supports probe accepts the
// device/command, orders by Descriptor.Priority and attempts only the
// first. Errors from the chosen transport propagate to the caller.
//
// # Concurrency
//
// Discovery and health fan-outs run each transport call in its own
// goroutine, collect into fixed-size result slices indexed by transport,
// and join before touching shared state, so there are never concurrent
// writers to the health map or merge output.
package transport
