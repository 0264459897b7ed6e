package middleware

import (
	"net/http"
	"slices"

	"github.com/deppfellow/signal-webhook/internal/config"
	"github.com/deppfellow/signal-webhook/internal/errs"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/deppfellow/signal-webhook/internal/sqlerr"
	"github.com/deppfellow/signal-webhook/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
)

// GlobalMiddlewares groups "global" middleware and the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS sets the webhook CORS headers on every response and answers any
// OPTIONS request with 200 and an empty body, on every path.
//
// With "*" among the configured origins the header is "*". Otherwise the
// request Origin is echoed back when it is listed, and nothing is set when
// it is not.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	origins := global.server.Config.Server.CORSAllowedOrigins
	allowAll := slices.Contains(origins, "*")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()

			if allowAll {
				header.Set(echo.HeaderAccessControlAllowOrigin, "*")
			} else {
				header.Add(echo.HeaderVary, echo.HeaderOrigin)
				if origin := c.Request().Header.Get(echo.HeaderOrigin); slices.Contains(origins, origin) {
					header.Set(echo.HeaderAccessControlAllowOrigin, origin)
				}
			}
			header.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}

// RequirePOST rejects every method but POST with 405.
// OPTIONS never gets here; CORS has already answered it.
func (global *GlobalMiddlewares) RequirePOST(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodPost {
			return errs.NewMethodNotAllowedError()
		}
		return next(c)
	}
}

// BodyLimit caps the request body at server.body_limit ("1M" by default).
// Oversized bodies end as 413 through the global error handler.
func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(global.server.Config.Server.BodyLimit)
}

// RequestLogger writes one "API" log line per request, with severity
// derived from the final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// The error handler has not written the response yet when a
			// handler returns an error, so the status comes from the error.
			// See https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode = statusOf(v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns a panic into a 500 INTERNAL_ERROR and logs its stack.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisablePrintStack: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger(c).Error().
				Err(err).
				Bytes("stack", stack).
				Msg("recovered from panic")
			return errs.NewInternalServerError().WithCause(err)
		},
	})
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// ErrorResponse is the failure envelope every non-2xx answer uses.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  []errs.FieldError `json:"errors,omitempty"`
	Details any               `json:"details,omitempty"`
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
// Every failure response is written here and nowhere else.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	// Logs keep the real error; the client only sees the converted one.
	originalErr := err

	httpErr := toHTTPError(err)

	message := httpErr.Message
	if httpErr.Status >= http.StatusInternalServerError && !httpErr.Override && global.server.Config.Primary.Env == config.EnvProduction {
		message = http.StatusText(httpErr.Status)
	}

	response := ErrorResponse{
		Success: false,
		Error:   httpErr.Title,
		Message: message,
		Code:    httpErr.Code,
		Errors:  httpErr.Errors,
	}
	if global.server.Config.IsDevelopment() {
		response.Details = httpErr.Details
	}

	logger := GetLogger(c)

	var e *zerolog.Event
	if httpErr.Status >= http.StatusInternalServerError {
		e = logger.Error().Stack().Err(originalErr)
	} else {
		e = logger.Warn().Str("reason", originalErr.Error())
	}
	e.Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(httpErr.Status)
		return
	}
	_ = c.JSON(httpErr.Status, response)
}

// toHTTPError classifies any error coming out of a handler.
//
// Application errors pass through, validation errors become 400s, Echo's
// own errors keep their status (405 gets the same body as RequirePOST), and the
// rest is treated as a storage failure.
func toHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.HTTPError().WithCause(err)
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		switch echoErr.Code {
		case http.StatusNotFound:
			return errs.NewNotFoundError("Route not found", false).WithCause(err)
		case http.StatusMethodNotAllowed:
			return errs.NewMethodNotAllowedError().WithCause(err)
		}

		title := http.StatusText(echoErr.Code)
		message := title
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}

		return &errs.HTTPError{
			Code:     errs.MakeUpperCaseWithUnderscores(title),
			Title:    title,
			Message:  message,
			Status:   echoErr.Code,
			Override: true,
		}
	}

	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr
	}
	return errs.NewInternalServerError().WithCause(err)
}

func statusOf(err error) int {
	var httpErr *errs.HTTPError
	var verr *validation.Error
	var echoErr *echo.HTTPError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &echoErr):
		return echoErr.Code
	default:
		return http.StatusInternalServerError
	}
}
