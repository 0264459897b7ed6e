package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deppfellow/signal-webhook/internal/config"
	loggerPkg "github.com/deppfellow/signal-webhook/internal/logger"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func testServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: config.EnvTest},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger:        &logger,
		LoggerService: &loggerPkg.LoggerService{},
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"symbol":"BTCUSD","action":"buy"}`},
		{name: "surrounding whitespace", body: "  \n{\"a\":1}\n  "},
		{name: "array", body: `[1,2]`},
		{name: "null", body: `null`},
		{name: "empty", body: ``, wantErr: true},
		{name: "truncated", body: `{"a":`, wantErr: true},
		{name: "two values", body: `{} {}`, wantErr: true},
		{name: "not json", body: `symbol=BTCUSD`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBody([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeBody(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
		})
	}
}

func TestDecodeBodyKeepsNumbers(t *testing.T) {
	v, err := decodeBody([]byte(`{"price":50000.10}`))
	if err != nil {
		t.Fatal(err)
	}

	price, ok := v.(map[string]any)["price"].(json.Number)
	if !ok {
		t.Fatalf("price decoded as %T, want json.Number", v.(map[string]any)["price"])
	}
	if price.String() != "50000.10" {
		t.Errorf("price = %s, want 50000.10", price)
	}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingers    map[string]pinger
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name: "all healthy",
			pingers: map[string]pinger{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "healthy", "redis": "healthy"},
		},
		{
			name: "redis disabled",
			pingers: map[string]pinger{
				"database": func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "healthy", "redis": "disabled"},
		},
		{
			name: "database down",
			pingers: map[string]pinger{
				"database": func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "unhealthy", "redis": "disabled"},
		},
		{
			name: "slow check times out",
			pingers: map[string]pinger{
				"database": func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "unhealthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer()
			s.Config.Observability.HealthChecks.Timeout = 50 * time.Millisecond

			h := &HealthHandler{Handler: NewHandler(s), pingers: tt.pingers}

			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)

			if err := h.CheckHealth(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body struct {
				Status string                       `json:"status"`
				Checks map[string]map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name]["status"]; got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestCheckHealthDisabled(t *testing.T) {
	s := testServer()
	s.Config.Observability.HealthChecks.Enabled = false

	h := &HealthHandler{Handler: NewHandler(s), pingers: map[string]pinger{
		"database": func(context.Context) error { return errors.New("down") },
	}}

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)
	if err := h.CheckHealth(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with checks disabled", rec.Code)
	}
}
