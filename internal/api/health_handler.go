package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskstream/taskstream-api/internal/api/shared"
)

// healthCheckTimeout bounds each individual dependency probe.
const healthCheckTimeout = 5 * time.Second

// Pinger probes connectivity with a lightweight round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker verifies a dependency is reachable and usable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthHandler reports the readiness of the service and its
// dependencies. Optional dependencies may be nil and are then omitted
// from the report.
type HealthHandler struct {
	db       *sql.DB
	redis    Pinger
	telegram HealthChecker
	googleAI HealthChecker
	logger   *slog.Logger
}

// NewHealthHandler creates a HealthHandler over the given dependencies.
func NewHealthHandler(db *sql.DB, redis Pinger, telegram, googleAI HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:       db,
		redis:    redis,
		telegram: telegram,
		googleAI: googleAI,
		logger:   logger.With("component", "health_handler"),
	}
}

// CheckHealth handles GET /health. It probes every dependency and
// reports per-service booleans plus an overall status; any failing
// dependency makes the endpoint return 503.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]bool{
		"database": h.probe(r.Context(), "database", func(ctx context.Context) error {
			return h.db.PingContext(ctx)
		}),
	}
	if h.redis != nil {
		services["redis"] = h.probe(r.Context(), "redis", h.redis.Ping)
	}
	if h.telegram != nil {
		services["telegram"] = h.probe(r.Context(), "telegram", h.telegram.CheckHealth)
	}
	if h.googleAI != nil {
		services["google_ai"] = h.probe(r.Context(), "google_ai", h.googleAI.CheckHealth)
	}

	status := "healthy"
	code := http.StatusOK
	for _, healthy := range services {
		if !healthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			break
		}
	}

	shared.RespondWithJSON(w, r, code, HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
	})
}

// probe runs one dependency check under the health timeout.
func (h *HealthHandler) probe(ctx context.Context, name string, check func(ctx context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		h.logger.Error("health check failed", "service", name, "error", err)
		return false
	}
	return true
}
