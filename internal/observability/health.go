package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus is the outcome of one dependency check.
type HealthStatus string

const (
	HealthOK          HealthStatus = "ok"
	HealthDegraded    HealthStatus = "degraded"
	HealthUnavailable HealthStatus = "unavailable"
)

// Checker is implemented by every dependency the health handler probes
// (the Postgres ConnectionManager, the Redis cache client).
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthReport is the JSON body returned by the health endpoint.
type HealthReport struct {
	Status     HealthStatus            `json:"status"`
	Components map[string]HealthStatus `json:"components"`
}

// HealthHandler builds an http.Handler that runs every checker with a
// bounded timeout and reports HealthUnavailable as a whole only when at
// least one checker is registered and every checker fails; an empty
// checker set reports HealthOK. Individual failures report HealthDegraded
// so that, e.g., a dead replica doesn't take down liveness.
func HealthHandler(timeout time.Duration, checkers ...Checker) http.Handler {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report := HealthReport{Status: HealthOK, Components: make(map[string]HealthStatus, len(checkers))}
		failures := 0
		for _, c := range checkers {
			if err := c.Check(ctx); err != nil {
				report.Components[c.Name()] = HealthUnavailable
				failures++
			} else {
				report.Components[c.Name()] = HealthOK
			}
		}

		statusCode := http.StatusOK
		switch {
		case len(checkers) > 0 && failures == len(checkers):
			report.Status = HealthUnavailable
			statusCode = http.StatusServiceUnavailable
		case failures > 0:
			report.Status = HealthDegraded
			statusCode = http.StatusOK
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(report)
	})
}
