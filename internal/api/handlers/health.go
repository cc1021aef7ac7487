package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status       string `json:"status"`
	ActivePlanID string `json:"active_plan_id,omitempty"`
}

// Health returns a liveness check that also names the plan being executed.
// A nil executor reports liveness only.
func Health(executor ExecutorStatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		res := healthResponse{Status: "ok"}
		if executor != nil {
			res.ActivePlanID = executor.Status().ActivePlanID
		}
		writeJSON(w, r, http.StatusOK, res)
	}
}
