package handlers

import (
	"encoding/json"
	"net/http"

	"marshlink/internal/engine/actors"
)

// HandleHealth reports basic liveness plus a community count pulled from the
// actor system, proving the engine is responsive.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.request(s.Engine.GetCommunityActor(), &actors.GetCountsMsg{})
		if err != nil {
			http.Error(w, "Engine not responding", http.StatusServiceUnavailable)
			return
		}

		count, _ := result.(int)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"communities": count,
		})
	}
}

// HandleMetrics exposes operation latency stats and request counters.
func (s *Server) HandleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		requests, errors, uptime := s.Metrics.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"requests":      requests,
			"errors":        errors,
			"uptimeSeconds": int64(uptime.Seconds()),
		})
	}
}
