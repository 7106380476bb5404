package transport

import (
	"context"
	"errors"
	"time"
)

// Kind identifies the communication path a transport uses.
type Kind string

// Kind constants.
const (
	KindCloud Kind = "cloud"
	KindLocal Kind = "local"
)

// Descriptor identifies a transport and its position in the fallback order.
// Descriptors are immutable; one is created per transport at startup.
type Descriptor struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`

	// Priority orders fallback when several transports can serve the same
	// device; lower values are tried first. Transports with equal priority
	// keep their registration order.
	Priority int `json:"priority"`
}

// ErrorInfo describes a failure in a transport-neutral form suitable for
// health snapshots and telemetry.
type ErrorInfo struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Namer is implemented by errors that carry a stable, transport-specific
// error name (e.g. "APIError"). DescribeError uses it when present.
type Namer interface {
	ErrorName() string
}

// DescribeError converts an error into an ErrorInfo.
// Returns nil for a nil error.
func DescribeError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	name := "Error"
	var namer Namer
	if errors.As(err, &namer) {
		name = namer.ErrorName()
	}

	return &ErrorInfo{
		Name:    name,
		Message: err.Error(),
	}
}

// Health is the result of a single transport health check.
// Stored per-descriptor in the orchestrator's health map and overwritten
// on each refresh; never merged across transports.
type Health struct {
	Descriptor  Descriptor `json:"descriptor"`
	Healthy     bool       `json:"healthy"`
	LastChecked time.Time  `json:"last_checked"`
	LatencyMs   int64      `json:"latency_ms,omitempty"`
	Err         *ErrorInfo `json:"error,omitempty"`
}

// DeviceKey is the canonical identity of a device: the (deviceID, model)
// pair. Two transports reporting the same key describe the same physical
// device, possibly with different display fields.
type DeviceKey struct {
	DeviceID string
	Model    string
}

// Light is a raw device record as reported by a single transport.
// Display fields (Name, Label) may legitimately differ between transports
// describing the same physical device.
type Light struct {
	DeviceID          string   `json:"device_id"`
	Model             string   `json:"model"`
	Name              string   `json:"name"`
	Label             string   `json:"label"`
	Controllable      bool     `json:"controllable"`
	Retrievable       bool     `json:"retrievable"`
	SupportedCommands []string `json:"supported_commands"`
}

// Key returns the canonical identity of the device.
func (l Light) Key() DeviceKey {
	return DeviceKey{DeviceID: l.DeviceID, Model: l.Model}
}

// DiscoveryResult is the outcome of a device discovery pass.
//
// Stale signals the result may be outdated (e.g. a transport answered from
// its own cache). It is a quality flag surfaced to the caller; it does not
// suppress merging.
type DiscoveryResult struct {
	Lights []Light `json:"lights"`
	Stale  bool    `json:"stale"`
}

// StateResult tags which transport actually answered a state query,
// for diagnostics.
type StateResult struct {
	Transport Kind           `json:"transport"`
	State     map[string]any `json:"state"`
}

// Transport is a capability-bearing communication channel to reach devices.
//
// Implementations own their own wire protocol, retry policy and timeouts;
// the orchestrator only fans out to them and routes between them.
type Transport interface {
	// Descriptor returns the immutable identity of this transport.
	Descriptor() Descriptor

	// CheckHealth probes the transport's reachability. Failures are
	// reported inside the returned Health rather than as an error so a
	// broken transport still yields a storable snapshot entry.
	CheckHealth(ctx context.Context) Health

	// DiscoverDevices enumerates the devices currently reachable through
	// this transport.
	DiscoverDevices(ctx context.Context) (DiscoveryResult, error)

	// GetLightState reads the live state of a device.
	GetLightState(ctx context.Context, deviceID, model string) (StateResult, error)

	// SendCommand delivers a control command to a device.
	SendCommand(ctx context.Context, req CommandRequest) error

	// Supports reports whether this transport can serve the given device,
	// and optionally the given command. An empty command asks only "can
	// this transport reach the device at all" (used for state queries).
	Supports(deviceID, model string, command Command) bool
}
