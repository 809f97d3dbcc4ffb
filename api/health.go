package api

import (
	"net/http"
	"time"

	"github.com/malwarebo/payper/monitoring"
)

type HealthResponse struct {
	Status    string                            `json:"status"`
	Timestamp time.Time                         `json:"timestamp"`
	Uptime    string                            `json:"uptime"`
	Checks    map[string]monitoring.HealthCheck `json:"checks,omitempty"`
}

var startTime = time.Now()

// HealthHandler runs the dependency probes registered at boot (database,
// redis, rights service, wallet) and reports per-check results. Any failing
// probe flips the response to 503 so load balancers stop routing here.
type HealthHandler struct {
	checker *monitoring.HealthChecker
}

func CreateHealthHandler(checker *monitoring.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).String(),
	}
	code := http.StatusOK

	if h.checker != nil {
		resp.Checks = h.checker.RunAllChecks(r.Context())
		for _, check := range resp.Checks {
			if check.Status != monitoring.Healthy {
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}
	}

	writeJSON(w, code, resp)
}
