package cloudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lumina-home/lumina-core/internal/infrastructure/config"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// maxErrorBody caps how much of an error response body is read for the
// error message.
const maxErrorBody = 4 << 10 // 4KB

// APIError describes a non-2xx response from the cloud API.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("cloudapi: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("cloudapi: %s", e.Status)
}

// ErrorName implements transport.Namer for health and telemetry
// descriptors.
func (e *APIError) ErrorName() string { return "APIError" }

// Transport reaches devices through the vendor's cloud REST API.
//
// The wire format is a thin JSON REST surface; vendor protocol details
// beyond that (pagination, rate limits, etc.) stay behind the API.
// The transport remembers the device set from its last discovery to
// answer Supports probes; before the first discovery it answers
// optimistically so startup routing is not wedged on discovery order.
type Transport struct {
	desc    transport.Descriptor
	baseURL string
	token   string
	client  *http.Client

	// devices is the supported-command set per device from the last
	// discovery; nil until the first successful discovery.
	mu      sync.RWMutex
	devices map[transport.DeviceKey]map[transport.Command]bool
}

// wire formats for the cloud API.
type wireLight struct {
	DeviceID          string   `json:"device_id"`
	Model             string   `json:"model"`
	Name              string   `json:"name"`
	Label             string   `json:"label"`
	Controllable      bool     `json:"controllable"`
	Retrievable       bool     `json:"retrievable"`
	SupportedCommands []string `json:"supported_commands"`
}

type wireDiscovery struct {
	Lights []wireLight `json:"lights"`
	Stale  bool        `json:"stale"`
}

type wireState struct {
	State map[string]any `json:"state"`
}

type wireCommand struct {
	Command string `json:"command"`
	Payload any    `json:"payload,omitempty"`
}

// New creates a cloud transport from configuration.
func New(cfg config.CloudConfig) *Transport {
	return &Transport{
		desc: transport.Descriptor{
			Kind:     transport.KindCloud,
			Label:    cfg.Label,
			Priority: cfg.Priority,
		},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
	}
}

// Descriptor implements transport.Transport.
func (t *Transport) Descriptor() transport.Descriptor {
	return t.desc
}

// CheckHealth implements transport.Transport. It pings the API and
// reports reachability plus round-trip latency.
func (t *Transport) CheckHealth(ctx context.Context) transport.Health {
	start := time.Now()
	err := t.do(ctx, http.MethodGet, "/v1/ping", nil, nil)
	latency := time.Since(start)

	return transport.Health{
		Descriptor:  t.desc,
		Healthy:     err == nil,
		LastChecked: time.Now(),
		LatencyMs:   latency.Milliseconds(),
		Err:         transport.DescribeError(err),
	}
}

// DiscoverDevices implements transport.Transport.
func (t *Transport) DiscoverDevices(ctx context.Context) (transport.DiscoveryResult, error) {
	var body wireDiscovery
	if err := t.do(ctx, http.MethodGet, "/v1/lights", nil, &body); err != nil {
		return transport.DiscoveryResult{}, err
	}

	lights := make([]transport.Light, len(body.Lights))
	devices := make(map[transport.DeviceKey]map[transport.Command]bool, len(body.Lights))
	for i, wl := range body.Lights {
		lights[i] = transport.Light{
			DeviceID:          wl.DeviceID,
			Model:             wl.Model,
			Name:              wl.Name,
			Label:             wl.Label,
			Controllable:      wl.Controllable,
			Retrievable:       wl.Retrievable,
			SupportedCommands: wl.SupportedCommands,
		}

		cmds := make(map[transport.Command]bool, len(wl.SupportedCommands))
		for _, c := range wl.SupportedCommands {
			cmds[transport.Command(c)] = true
		}
		devices[lights[i].Key()] = cmds
	}

	t.mu.Lock()
	t.devices = devices
	t.mu.Unlock()

	return transport.DiscoveryResult{Lights: lights, Stale: body.Stale}, nil
}

// GetLightState implements transport.Transport.
func (t *Transport) GetLightState(ctx context.Context, deviceID, model string) (transport.StateResult, error) {
	path := fmt.Sprintf("/v1/lights/%s/%s/state", deviceID, model)

	var body wireState
	if err := t.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return transport.StateResult{}, err
	}

	return transport.StateResult{
		Transport: transport.KindCloud,
		State:     body.State,
	}, nil
}

// SendCommand implements transport.Transport.
func (t *Transport) SendCommand(ctx context.Context, req transport.CommandRequest) error {
	path := fmt.Sprintf("/v1/lights/%s/%s/command", req.DeviceID, req.Model)

	payload := wireCommand{Command: string(req.Command), Payload: req.Payload}
	return t.do(ctx, http.MethodPut, path, payload, nil)
}

// Supports implements transport.Transport.
//
// Before the first discovery the answer is optimistically true; after a
// discovery the device must be in the catalogue and, for a non-empty
// command, list it in its supported commands.
func (t *Transport) Supports(deviceID, model string, command transport.Command) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.devices == nil {
		return true
	}

	cmds, ok := t.devices[transport.DeviceKey{DeviceID: deviceID, Model: model}]
	if !ok {
		return false
	}
	if command == "" {
		return true
	}
	return cmds[command]
}

// do performs one authenticated request. A non-2xx response becomes an
// *APIError; out, when non-nil, receives the decoded JSON body.
func (t *Transport) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cloudapi: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("cloudapi: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(body)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("cloudapi: decoding response: %w", err)
		}
	}

	return nil
}
