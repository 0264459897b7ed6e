package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/signal-webhook/internal/config"
	"github.com/deppfellow/signal-webhook/internal/errs"
	loggerPkg "github.com/deppfellow/signal-webhook/internal/logger"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/deppfellow/signal-webhook/internal/validation"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func testServer(env, secret string, origins ...string) *server.Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	cfg := &config.Config{
		Primary: config.Primary{Env: env},
		Server: config.ServerConfig{
			CORSAllowedOrigins: origins,
			BodyLimit:          "1K",
		},
		Auth:          config.AuthConfig{WebhookSecret: secret},
		Observability: config.DefaultObservabilityConfig(),
	}

	logger := zerolog.Nop()
	return &server.Server{
		Config:        cfg,
		Logger:        &logger,
		LoggerService: &loggerPkg.LoggerService{},
	}
}

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func ok(c echo.Context) error {
	return c.String(http.StatusOK, "next")
}

func TestCORSPreflight(t *testing.T) {
	global := NewGlobalMiddlewares(testServer(config.EnvTest, ""))

	c, rec := newContext(http.MethodOptions, "/anything")
	if err := global.CORS()(ok)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}

	want := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestCORSAllowList(t *testing.T) {
	global := NewGlobalMiddlewares(testServer(config.EnvTest, "", "https://a.example"))

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://a.example", want: "https://a.example"},
		{origin: "https://evil.example", want: ""},
		{origin: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/webhook")
			if tt.origin != "" {
				c.Request().Header.Set(echo.HeaderOrigin, tt.origin)
			}

			if err := global.CORS()(ok)(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Body.String() != "next" {
				t.Errorf("expected next handler to run, body %q", rec.Body.String())
			}
			if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
			if rec.Header().Get(echo.HeaderVary) != echo.HeaderOrigin {
				t.Errorf("expected Vary: Origin")
			}
		})
	}
}

func TestRequirePOST(t *testing.T) {
	global := NewGlobalMiddlewares(testServer(config.EnvTest, ""))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			c, _ := newContext(method, "/webhook")
			err := global.RequirePOST(ok)(c)

			var httpErr *errs.HTTPError
			if !errors.As(err, &httpErr) || httpErr.Status != http.StatusMethodNotAllowed {
				t.Fatalf("expected 405 HTTPError, got %v", err)
			}
		})
	}

	c, rec := newContext(http.MethodPost, "/webhook")
	if err := global.RequirePOST(ok)(c); err != nil {
		t.Fatalf("POST rejected: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRequireWebhookSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		header  string
		wantErr bool
	}{
		{name: "no secret configured", secret: "", header: "", wantErr: false},
		{name: "no secret configured ignores header", secret: "", header: "Bearer x", wantErr: false},
		{name: "valid token", secret: "s3cret", header: "Bearer s3cret", wantErr: false},
		{name: "extra whitespace", secret: "s3cret", header: "Bearer   s3cret", wantErr: false},
		{name: "missing header", secret: "s3cret", header: "", wantErr: true},
		{name: "wrong token", secret: "s3cret", header: "Bearer nope", wantErr: true},
		{name: "wrong scheme", secret: "s3cret", header: "Basic s3cret", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuthMiddleware(testServer(config.EnvTest, tt.secret))

			c, _ := newContext(http.MethodPost, "/webhook")
			if tt.header != "" {
				c.Request().Header.Set(echo.HeaderAuthorization, tt.header)
			}

			err := auth.RequireWebhookSecret(ok)(c)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var httpErr *errs.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.Status != http.StatusUnauthorized || httpErr.Code != errs.CodeUnauthorized {
				t.Errorf("got %d %s", httpErr.Status, httpErr.Code)
			}
			if httpErr.Message != "Invalid or missing authentication token" {
				t.Errorf("message = %q", httpErr.Message)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	handler := RequestID()(func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	c, rec := newContext(http.MethodPost, "/webhook")
	c.Request().Header.Set(RequestIDHeader, "abc-123")
	if err := handler(c); err != nil {
		t.Fatal(err)
	}
	if rec.Body.String() != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("incoming request id not reused: body %q header %q", rec.Body.String(), rec.Header().Get(RequestIDHeader))
	}

	c, rec = newContext(http.MethodPost, "/webhook")
	if err := handler(c); err != nil {
		t.Fatal(err)
	}
	if len(rec.Body.String()) != 36 {
		t.Errorf("expected generated uuid, got %q", rec.Body.String())
	}
}

func TestEnhanceContextStoresLogger(t *testing.T) {
	s := testServer(config.EnvTest, "")
	// A disabled logger is never stored in a context.
	logger := zerolog.New(io.Discard)
	s.Logger = &logger
	ce := NewContextEnhancer(s)

	handler := ce.EnhanceContext()(func(c echo.Context) error {
		if zerolog.Ctx(c.Request().Context()).GetLevel() == zerolog.Disabled {
			t.Error("request context has no logger")
		}
		if _, ok := c.Get(LoggerKey).(*zerolog.Logger); !ok {
			t.Error("echo context has no logger")
		}
		return nil
	})

	c, _ := newContext(http.MethodPost, "/webhook")
	if err := handler(c); err != nil {
		t.Fatal(err)
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%q)", err, rec.Body.String())
	}
	return body
}

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		err         error
		wantStatus  int
		wantCode    string
		wantError   string
		wantMessage string
		wantDetails bool
	}{
		{
			name:        "method not allowed",
			env:         config.EnvProduction,
			err:         errs.NewMethodNotAllowedError(),
			wantStatus:  http.StatusMethodNotAllowed,
			wantCode:    "METHOD_NOT_ALLOWED",
			wantError:   "Method not allowed",
			wantMessage: "Only POST requests are accepted",
		},
		{
			name: "validation error",
			env:  config.EnvProduction,
			err: &validation.Error{
				Kind:    validation.KindInvalidValue,
				Field:   "price",
				Message: "Invalid price value",
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INVALID_VALUE",
			wantError:   "Invalid price value",
			wantMessage: "Invalid price value",
		},
		{
			name:        "route not found",
			env:         config.EnvProduction,
			err:         echo.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantCode:    "NOT_FOUND",
			wantError:   "Not Found",
			wantMessage: "Route not found",
		},
		{
			name:        "unrouted method",
			env:         config.EnvProduction,
			err:         echo.ErrMethodNotAllowed,
			wantStatus:  http.StatusMethodNotAllowed,
			wantCode:    "METHOD_NOT_ALLOWED",
			wantError:   "Method not allowed",
			wantMessage: "Only POST requests are accepted",
		},
		{
			name:        "body too large",
			env:         config.EnvProduction,
			err:         echo.ErrStatusRequestEntityTooLarge,
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantCode:    "REQUEST_ENTITY_TOO_LARGE",
			wantError:   "Request Entity Too Large",
			wantMessage: "Request Entity Too Large",
		},
		{
			name:        "storage failure in development",
			env:         config.EnvDevelopment,
			err:         &pgconn.PgError{Code: "23514", TableName: "trading_signals", Message: "check"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "STORAGE_FAILURE",
			wantError:   "Database error",
			wantMessage: "Failed to save trading signal",
			wantDetails: true,
		},
		{
			name:        "storage failure in production hides details",
			env:         config.EnvProduction,
			err:         errors.New("connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "STORAGE_FAILURE",
			wantError:   "Database error",
			wantMessage: "Failed to save trading signal",
		},
		{
			name:        "internal error in production is generic",
			env:         config.EnvProduction,
			err:         errs.NewInternalServerError().WithMessage("secret internals"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantError:   "Internal Server Error",
			wantMessage: "Internal Server Error",
		},
		{
			name:        "body parse error",
			env:         config.EnvProduction,
			err:         errs.NewBodyParseError(errors.New("invalid character")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantError:   "Internal Server Error",
			wantMessage: "Failed to parse request body as JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			global := NewGlobalMiddlewares(testServer(tt.env, ""))

			c, rec := newContext(http.MethodPost, "/webhook")
			global.GlobalErrorHandler(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			body := decodeResponse(t, rec)
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
			if body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", body["code"], tt.wantCode)
			}
			if body["error"] != tt.wantError {
				t.Errorf("error = %v, want %s", body["error"], tt.wantError)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %s", body["message"], tt.wantMessage)
			}
			if _, has := body["details"]; has != tt.wantDetails {
				t.Errorf("details present = %v, want %v", has, tt.wantDetails)
			}
		})
	}
}

func TestGlobalErrorHandlerFieldErrors(t *testing.T) {
	global := NewGlobalMiddlewares(testServer(config.EnvTest, ""))

	c, rec := newContext(http.MethodPost, "/webhook")
	global.GlobalErrorHandler(&validation.Error{
		Kind:    validation.KindMissingField,
		Field:   "symbol",
		Message: "Missing or invalid symbol",
	}, c)

	if !strings.Contains(rec.Body.String(), `"errors":[{"field":"symbol","error":"Missing or invalid symbol"}]`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestGlobalErrorHandlerCommittedResponse(t *testing.T) {
	global := NewGlobalMiddlewares(testServer(config.EnvTest, ""))

	c, rec := newContext(http.MethodPost, "/webhook")
	_ = c.String(http.StatusOK, "done")
	global.GlobalErrorHandler(errs.NewMethodNotAllowedError(), c)

	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Errorf("committed response was overwritten: %d %q", rec.Code, rec.Body.String())
	}
}
