package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumina-home/lumina-core/internal/lighting"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// lightsResponse is the JSON body for the catalogue listing.
type lightsResponse struct {
	Lights []lighting.Light `json:"lights"`
	Count  int              `json:"count"`
	Stale  bool             `json:"stale"`
}

// commandBody is the JSON body accepted by the command endpoint.
type commandBody struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// handleListLights returns the device catalogue.
//
// Query parameters:
//   - refresh=true: bypass the catalogue cache and force a discovery pass
func (s *Server) handleListLights(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "true"

	lights, stale, err := s.devices.Discover(r.Context(), force)
	if err != nil {
		writeTransportError(w, err)
		return
	}

	if lights == nil {
		lights = []lighting.Light{}
	}
	writeJSON(w, http.StatusOK, lightsResponse{
		Lights: lights,
		Count:  len(lights),
		Stale:  stale,
	})
}

// handleGetState returns the live state of a single device.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	model := chi.URLParam(r, "model")
	if deviceID == "" || model == "" {
		writeBadRequest(w, "device id and model are required")
		return
	}

	state, err := s.devices.GetLightState(r.Context(), deviceID, model)
	if err != nil {
		writeTransportError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// handleSendCommand delivers a command to a single device.
//
// The body names the command kind and carries its payload as raw JSON;
// the payload is decoded into its typed form and validated before routing.
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	model := chi.URLParam(r, "model")
	if deviceID == "" || model == "" {
		writeBadRequest(w, "device id and model are required")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading request body: "+err.Error())
		return
	}

	var cmd commandBody
	if err := json.Unmarshal(body, &cmd); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if cmd.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	kind, err := transport.ParseCommand(cmd.Command)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	payload, err := transport.ParsePayload(kind, cmd.Payload)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	req := transport.CommandRequest{
		DeviceID: deviceID,
		Model:    model,
		Command:  kind,
		Payload:  payload,
	}
	if err := req.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.devices.SendCommand(r.Context(), req); err != nil {
		writeTransportError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// handleTelemetry exposes in-memory counters for diagnostics.
func (s *Server) handleTelemetry(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"discovery": s.sink.Discovery(),
		"commands":  s.sink.Commands(),
	})
}
