// Package localnet implements the local transport: devices reached
// through an on-premises agent over MQTT.
//
// The agent owns vendor discovery and device addressing on the LAN;
// this package only speaks the request/reply envelope with it. Each
// operation publishes one request to lumina/agent/{id}/request/{rid}
// and waits for the reply on the matching reply topic, bounded by the
// configured timeout. Request IDs are UUIDs, so concurrent operations
// never collide.
package localnet
