package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/turismo-api/internal/middleware"
	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler serves the liveness, database ping and dependency status
// endpoints used by uptime monitors and the hosting platform.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// Liveness answers GET and HEAD /health without touching the database.
func (h *HealthHandler) Liveness(c echo.Context) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(http.StatusOK)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": float64(time.Now().UnixNano()) / float64(time.Second),
	})
}

// Ping runs `SELECT 1` through the data access layer.
//
// It returns 200 {"database":"connected","ping":1} or
// 503 {"database":"disconnected","error":...}.
func (h *HealthHandler) Ping(c echo.Context) error {
	value, err := h.server.DB.Ping(c.Request().Context())
	if err != nil {
		middleware.GetLogger(c).Error().Err(err).Msg("database ping failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"database": "disconnected",
			"error":    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"database": "connected",
		"ping":     value,
	})
}

// StatusReport is the body of GET /status.
type StatusReport struct {
	Status      string                      `json:"status"`
	Timestamp   time.Time                   `json:"timestamp"`
	Environment string                      `json:"environment"`
	Version     string                      `json:"version"`
	Checks      map[string]DependencyStatus `json:"checks"`
}

// DependencyStatus is the outcome of probing one dependency.
type DependencyStatus struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

func (d DependencyStatus) healthy() bool {
	return d.Status == "healthy"
}

// CheckHealth probes the configured dependencies.
//
// It returns:
//   - 200 OK if every check passes
//   - 503 Service Unavailable if any check fails
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	report := StatusReport{
		Status:      "healthy",
		Timestamp:   start.UTC(),
		Environment: h.server.Config.Primary.Env,
		Version:     h.server.Config.App.Version,
		Checks:      map[string]DependencyStatus{},
	}

	cfg := h.server.Config.Observability.HealthChecks
	if cfg.Enabled && slices.Contains(cfg.Checks, "database") {
		ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
		defer cancel()

		report.Checks["database"] = h.checkDatabase(ctx, logger)
	}

	for _, check := range report.Checks {
		if !check.healthy() {
			report.Status = "unhealthy"
		}
	}

	if report.Status != "healthy" {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		h.server.LoggerService.RecordEvent("HealthCheckError", map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
		return c.JSON(http.StatusServiceUnavailable, report)
	}

	logger.Info().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, report)
}

func (h *HealthHandler) checkDatabase(ctx context.Context, logger zerolog.Logger) DependencyStatus {
	start := time.Now()
	_, err := h.server.DB.Ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error().Err(err).Dur("response_time", elapsed).Msg("database health check failed")
		h.server.LoggerService.RecordEvent("HealthCheckError", map[string]any{
			"check_type":       "database",
			"operation":        "health_check",
			"error_type":       "database_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return DependencyStatus{Status: "unhealthy", ResponseTime: elapsed.String(), Error: err.Error()}
	}

	logger.Debug().Dur("response_time", elapsed).Msg("database health check passed")
	return DependencyStatus{Status: "healthy", ResponseTime: elapsed.String()}
}
