package cloudapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumina-home/lumina-core/internal/infrastructure/config"
	"github.com/lumina-home/lumina-core/internal/transport"
)

func testTransport(t *testing.T, handler http.Handler) *Transport {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(config.CloudConfig{
		BaseURL:  server.URL,
		Token:    "test-token",
		Label:    "Cloud",
		Priority: 10,
		Timeout:  5,
	})
}

func discoveryHandler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/lights", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", got)
		}
		json.NewEncoder(w).Encode(wireDiscovery{
			Lights: []wireLight{
				{DeviceID: "dev-1", Model: "bulb-a", Name: "Kitchen",
					Controllable: true, Retrievable: true,
					SupportedCommands: []string{"Power", "Brightness"}},
			},
			Stale: true,
		})
	})
	return mux
}

func TestDiscoverDevices(t *testing.T) {
	tr := testTransport(t, discoveryHandler(t))

	result, err := tr.DiscoverDevices(context.Background())
	if err != nil {
		t.Fatalf("DiscoverDevices() failed: %v", err)
	}

	if len(result.Lights) != 1 {
		t.Fatalf("got %d lights, want 1", len(result.Lights))
	}
	if result.Lights[0].DeviceID != "dev-1" {
		t.Errorf("DeviceID = %q, want dev-1", result.Lights[0].DeviceID)
	}
	if !result.Stale {
		t.Error("stale flag not carried through")
	}
}

func TestCheckHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		tr := testTransport(t, mux)

		h := tr.CheckHealth(context.Background())
		if !h.Healthy {
			t.Errorf("Healthy = false, want true (err: %+v)", h.Err)
		}
		if h.Descriptor.Kind != transport.KindCloud {
			t.Errorf("Kind = %q, want cloud", h.Descriptor.Kind)
		}
	})

	t.Run("server error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		})
		tr := testTransport(t, mux)

		h := tr.CheckHealth(context.Background())
		if h.Healthy {
			t.Error("Healthy = true for 503 response")
		}
		if h.Err == nil || h.Err.Name != "APIError" {
			t.Errorf("Err = %+v, want APIError descriptor", h.Err)
		}
	})
}

func TestGetLightState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/lights/dev-1/bulb-a/state", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(wireState{State: map[string]any{"on": true, "brightness": 80.0}})
	})
	tr := testTransport(t, mux)

	result, err := tr.GetLightState(context.Background(), "dev-1", "bulb-a")
	if err != nil {
		t.Fatalf("GetLightState() failed: %v", err)
	}
	if result.Transport != transport.KindCloud {
		t.Errorf("Transport = %q, want cloud", result.Transport)
	}
	if result.State["on"] != true {
		t.Errorf("State[on] = %v, want true", result.State["on"])
	}
}

func TestSendCommand(t *testing.T) {
	var received wireCommand
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/lights/dev-1/bulb-a/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	})
	tr := testTransport(t, mux)

	err := tr.SendCommand(context.Background(), transport.CommandRequest{
		DeviceID: "dev-1",
		Model:    "bulb-a",
		Command:  transport.CommandPower,
		Payload:  transport.PowerPayload{On: true},
	})
	if err != nil {
		t.Fatalf("SendCommand() failed: %v", err)
	}
	if received.Command != "Power" {
		t.Errorf("received command = %q, want Power", received.Command)
	}
}

func TestSendCommand_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/lights/dev-1/bulb-a/command", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "device offline", http.StatusBadGateway)
	})
	tr := testTransport(t, mux)

	err := tr.SendCommand(context.Background(), transport.CommandRequest{
		DeviceID: "dev-1",
		Model:    "bulb-a",
		Command:  transport.CommandPower,
		Payload:  transport.PowerPayload{On: true},
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", apiErr.StatusCode)
	}
	if apiErr.ErrorName() != "APIError" {
		t.Errorf("ErrorName() = %q, want APIError", apiErr.ErrorName())
	}
}

func TestSupports(t *testing.T) {
	tr := testTransport(t, discoveryHandler(t))

	// Optimistic before any discovery.
	if !tr.Supports("dev-1", "bulb-a", transport.CommandPower) {
		t.Error("Supports() = false before first discovery, want optimistic true")
	}

	if _, err := tr.DiscoverDevices(context.Background()); err != nil {
		t.Fatalf("DiscoverDevices() failed: %v", err)
	}

	tests := []struct {
		name     string
		deviceID string
		model    string
		command  transport.Command
		want     bool
	}{
		{"known device, supported command", "dev-1", "bulb-a", transport.CommandPower, true},
		{"known device, reachability probe", "dev-1", "bulb-a", "", true},
		{"known device, unsupported command", "dev-1", "bulb-a", transport.CommandScene, false},
		{"unknown device", "dev-9", "bulb-a", transport.CommandPower, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Supports(tt.deviceID, tt.model, tt.command); got != tt.want {
				t.Errorf("Supports(%q, %q, %q) = %v, want %v",
					tt.deviceID, tt.model, tt.command, got, tt.want)
			}
		})
	}
}
