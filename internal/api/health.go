package api

import (
	"net/http"

	"github.com/lumina-home/lumina-core/internal/transport"
)

// transportHealthResponse is the JSON body for the transport health listing.
type transportHealthResponse struct {
	Transports []transport.Health `json:"transports"`
	Healthy    int                `json:"healthy"`
	Total      int                `json:"total"`
}

// handleTransportHealth returns the latest transport health snapshot.
//
// Query parameters:
//   - refresh=true: force a health probe instead of serving the cached snapshot
func (s *Server) handleTransportHealth(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "true"

	snapshot := s.health.GetHealth(r.Context(), force)
	if snapshot == nil {
		snapshot = []transport.Health{}
	}

	healthy := 0
	for _, h := range snapshot {
		if h.Healthy {
			healthy++
		}
	}

	writeJSON(w, http.StatusOK, transportHealthResponse{
		Transports: snapshot,
		Healthy:    healthy,
		Total:      len(snapshot),
	})
}
