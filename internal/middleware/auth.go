package middleware

import (
	"github.com/deppfellow/signal-webhook/internal/errs"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/deppfellow/signal-webhook/internal/validation"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware holds the app Server so middleware can access shared deps
// like Logger and Config.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireWebhookSecret rejects requests whose Authorization header is not
// "Bearer <auth.webhook_secret>". It lets everything through when no
// secret is configured.
func (auth *AuthMiddleware) RequireWebhookSecret(next echo.HandlerFunc) echo.HandlerFunc {
	secret := auth.server.Config.Auth.WebhookSecret

	return func(c echo.Context) error {
		if secret == "" {
			return next(c)
		}

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !validation.ParseBearerToken(header, secret) {
			GetLogger(c).Warn().
				Str("function", "RequireWebhookSecret").
				Bool("header_present", header != "").
				Msg("webhook authentication failed")

			auth.recordAuthFailure(c.Path())

			return errs.NewUnauthorizedError("Invalid or missing authentication token", true)
		}

		return next(c)
	}
}

func (auth *AuthMiddleware) recordAuthFailure(endpoint string) {
	if app := auth.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("WebhookAuthFailure", map[string]any{
			"endpoint": endpoint,
		})
	}
}
