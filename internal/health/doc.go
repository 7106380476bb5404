// Package health exposes deduplicated transport health snapshots.
//
// Many consumers (the API, listeners, dashboards) want to know whether
// the cloud and local transports are reachable, but each probe is a
// network round-trip. The health service sits between those consumers
// and the orchestrator: cached snapshots are served without I/O, forced
// refreshes are serialized, and a refresh failure degrades to the last
// known snapshot instead of an error.
package health
