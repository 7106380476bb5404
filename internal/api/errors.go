package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumina-home/lumina-core/internal/transport"
)

// Error is the JSON error body returned by the API.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Error codes returned by the API.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeNotFound          = "not_found"
	ErrCodeDeviceUnreachable = "device_unreachable"
	ErrCodeUpstreamFailure   = "upstream_failure"
	ErrCodeInternalError     = "internal_error"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 Bad Request error.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 Not Found error.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeTransportError maps a transport-layer error to an HTTP response.
//
// No healthy route maps to 503 so clients can retry once transports
// recover; everything else from the transport layer is a 502 with the
// transport's own error name attached.
func writeTransportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transport.ErrNoHealthyTransport):
		writeJSON(w, http.StatusServiceUnavailable, Error{
			Status:    http.StatusServiceUnavailable,
			Code:      ErrCodeDeviceUnreachable,
			Message:   "no healthy transport can reach the device",
			Retryable: true,
		})
	case errors.Is(err, transport.ErrInvalidCommand), errors.Is(err, transport.ErrUnknownCommand):
		writeBadRequest(w, err.Error())
	default:
		info := transport.DescribeError(err)
		writeJSON(w, http.StatusBadGateway, Error{
			Status:    http.StatusBadGateway,
			Code:      ErrCodeUpstreamFailure,
			Message:   info.Name + ": " + info.Message,
			Retryable: true,
		})
	}
}
