// Package lighting implements the device service: the TTL-cached,
// normalized view of the transport orchestrator's merged light catalogue.
//
// # Responsibilities
//
//   - Discovery caching: a single-entry TTL cache holds the last merged
//     catalogue. Within the TTL, reads perform zero transport calls.
//   - Normalization: raw transport records are converted to Light values
//     with derived Capabilities booleans and a composite Value key.
//   - Command/state pass-through with per-command telemetry.
//   - Snapshot persistence: the last catalogue is saved to SQLite so a
//     restarted core can serve stale-but-available data immediately.
//
// The service never talks to a transport directly; everything flows
// through the Orchestrator interface, which the transport package's
// Orchestrator satisfies.
package lighting
