package api

import (
	"net/http"
)

// HandleStats handles GET /stats requests.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}
