package handler

import (
	"net/http"
	"time"

	"cloudvault/internal/httputil"
)

// HealthCheck is a simple liveness endpoint
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
