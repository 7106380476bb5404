// Package cloudapi implements the cloud transport: devices reached
// through the vendor's hosted REST API.
//
// The API surface used here is deliberately small (ping, list lights,
// read state, send command) with bearer-token auth. Per-request timeouts
// come from configuration; the orchestrator imposes no timeout of its
// own, so the HTTP client's is the effective deadline.
package cloudapi
