package router

import (
	"github.com/deppfellow/signal-webhook/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of signal handling.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	// openapi.json and openapi.html, embedded in the binary.
	r.StaticFS("/static", handler.StaticFS)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
