package handler

import (
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/deppfellow/signal-webhook/internal/service"
)

// Handlers is a container that groups all HTTP handlers.
type Handlers struct {
	Health  *HealthHandler  // Health serves GET /status.
	OpenAPI *OpenAPIHandler // OpenAPI serves the docs UI.
	Webhook *WebhookHandler // Webhook receives TradingView alerts.
	Signals *SignalHandler  // Signals serves the operator read routes.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Webhook: NewWebhookHandler(s, services.Signal),
		Signals: NewSignalHandler(s, services.Signal),
	}
}
