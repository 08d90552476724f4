package api

import "net/http"

type healthCheck struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Health reports liveness of the datastore and the session store. Failures
// degrade the status but still answer 200 so probes can distinguish "up but
// degraded" from "down".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}

	checks := []healthCheck{
		{Component: "datastore", Status: "ok"},
		{Component: "sessions", Status: "ok"},
	}
	if err := h.Store.Ping(r.Context()); err != nil {
		checks[0].Status = "unavailable"
		checks[0].Error = err.Error()
	}
	if err := h.Auth.Ping(r.Context()); err != nil {
		checks[1].Status = "unavailable"
		checks[1].Error = err.Error()
	}

	status := "ok"
	for _, check := range checks {
		if check.Status != "ok" {
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"services": checks,
	})
}
