// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/deppfellow/signal-webhook/internal/handler"
	"github.com/deppfellow/signal-webhook/internal/middleware"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/labstack/echo/v4"
)

// WebhookPaths are the paths TradingView alerts may be posted to. The
// last two match the serverless deployments this service replaces.
var WebhookPaths = []string{
	"/webhook",
	"/api/webhook",
	"/functions/v1/trading-webhook",
}

// NewRouter builds the Echo instance with global middleware, the error
// handler and every route.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// CORS sits inside the logger so preflights are logged, and answers
	// OPTIONS before any route-level check.
	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
	)

	registerSystemRoutes(router, h)
	registerWebhookRoutes(router, h, middlewares)
	registerSignalRoutes(router, s, h, middlewares)

	return router
}

// registerWebhookRoutes routes every method so a GET gets 405 rather than 404.
func registerWebhookRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	for _, path := range WebhookPaths {
		r.Any(path, h.Webhook.Receive,
			m.Global.RequirePOST,
			m.Auth.RequireWebhookSecret,
			m.Global.BodyLimit(),
		)
	}
}

// registerSignalRoutes exposes stored payloads, so the routes only exist
// when a webhook secret is configured.
func registerSignalRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers, m *middleware.Middlewares) {
	if s.Config.Auth.WebhookSecret == "" {
		s.Logger.Info().Msg("no webhook secret configured, signal read routes disabled")
		return
	}

	signals := r.Group("/api/signals", m.Auth.RequireWebhookSecret)

	signals.GET("", handler.Handle(
		h.Signals.Handler,
		h.Signals.List,
		http.StatusOK,
		func() *handler.ListSignalsRequest { return &handler.ListSignalsRequest{} },
	))

	signals.GET("/:id", handler.Handle(
		h.Signals.Handler,
		h.Signals.Get,
		http.StatusOK,
		func() *handler.GetSignalRequest { return &handler.GetSignalRequest{} },
	))
}
