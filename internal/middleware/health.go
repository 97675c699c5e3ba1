package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker is implemented by components with a reachable backend
// (artifact store, reference database).
type HealthChecker interface {
	Check(ctx context.Context) error
}

// HealthStatus is the /health body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus is the outcome of one component check.
type CheckStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

const checkTimeout = 5 * time.Second

// HealthHandler runs every checker in parallel under one shared deadline.
// Any failing component makes the whole response 503.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			checks = make(map[string]CheckStatus, len(checkers))
		)
		for name, checker := range checkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				err := checker.Check(ctx)
				cs := CheckStatus{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
				if err != nil {
					cs.Status = "unhealthy"
					cs.Message = err.Error()
				}
				mu.Lock()
				checks[name] = cs
				mu.Unlock()
			}()
		}
		wg.Wait()

		health := HealthStatus{Status: "healthy", Timestamp: time.Now().UTC(), Checks: checks}
		statusCode := http.StatusOK
		for _, cs := range checks {
			if cs.Status != "healthy" {
				health.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}

// ReadinessHandler answers once the router is serving; dependencies are
// reported by /health only.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
	})
}

// LivenessHandler is a plain-text ping.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
