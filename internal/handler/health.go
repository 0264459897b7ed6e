package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/signal-webhook/internal/middleware"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/labstack/echo/v4"
)

// pinger probes one dependency. A nil pinger reports the dependency as disabled.
type pinger func(ctx context.Context) error

// HealthHandler serves GET /status for uptime monitors and load balancers.
type HealthHandler struct {
	Handler
	pingers map[string]pinger
}

// NewHealthHandler wires the database and redis probes from the server container.
func NewHealthHandler(s *server.Server) *HealthHandler {
	pingers := map[string]pinger{}

	if s.DB != nil {
		pingers["database"] = func(ctx context.Context) error {
			return s.DB.Pool.Ping(ctx)
		}
	}
	if s.Redis != nil {
		pingers["redis"] = func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}
	}

	return &HealthHandler{
		Handler: NewHandler(s),
		pingers: pingers,
	}
}

// CheckHealth runs the configured checks.
//
// It returns 200 when every enabled check passes and 503 otherwise. A
// check whose dependency is not configured is reported as "disabled".
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config.Observability.HealthChecks

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	if cfg.Enabled {
		for _, name := range cfg.Checks {
			ping, ok := h.pingers[name]
			if !ok || ping == nil {
				checks[name] = map[string]any{"status": "disabled"}
				continue
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
			checkStart := time.Now()
			err := ping(ctx)
			cancel()
			elapsed := time.Since(checkStart)

			if err != nil {
				isHealthy = false
				checks[name] = map[string]any{
					"status":        "unhealthy",
					"response_time": elapsed.String(),
					"error":         err.Error(),
				}

				logger.Error().
					Err(err).
					Str("check", name).
					Dur("response_time", elapsed).
					Msg("health check failed")

				h.recordHealthCheckError(map[string]any{
					"check_type":       name,
					"operation":        "health_check",
					"error_type":       name + "_unhealthy",
					"response_time_ms": elapsed.Milliseconds(),
					"error_message":    err.Error(),
				})
				continue
			}

			checks[name] = map[string]any{
				"status":        "healthy",
				"response_time": elapsed.String(),
			}

			logger.Debug().
				Str("check", name).
				Dur("response_time", elapsed).
				Msg("health check passed")
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthCheckError(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) recordHealthCheckError(attrs map[string]any) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
