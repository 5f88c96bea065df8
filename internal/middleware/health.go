package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// DatabaseHealthChecker pings the usage ledger database.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler runs every checker. Critical checkers turn the whole
// status unhealthy (503); the others only report "degraded". Checker errors
// go to the log, never into the body.
func HealthHandler(log logrus.FieldLogger, service string, critical, optional map[string]HealthChecker) http.HandlerFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := HealthStatus{
			Status:    "healthy",
			Service:   service,
			Timestamp: time.Now().UTC(),
			Checks:    make(map[string]CheckStatus),
		}

		run := func(checkers map[string]HealthChecker, failed string) {
			for name, checker := range checkers {
				if err := checker.Check(ctx); err != nil {
					if health.Status != "unhealthy" {
						health.Status = failed
					}
					log.WithError(err).WithField("check", name).Warn("health check failed")
					health.Checks[name] = CheckStatus{Status: "unhealthy", Message: "check failed"}
					continue
				}
				health.Checks[name] = CheckStatus{Status: "healthy"}
			}
		}
		run(optional, "degraded")
		run(critical, "unhealthy")

		statusCode := http.StatusOK
		if health.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}
