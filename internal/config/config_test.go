package config

import (
	"strings"
	"testing"
	"time"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SIGNAL_DATABASE__HOST", "localhost")
	t.Setenv("SIGNAL_DATABASE__USER", "postgres")
	t.Setenv("SIGNAL_DATABASE__NAME", "signals")
}

func TestLoadConfigDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Primary.Env != EnvProduction {
		t.Errorf("Primary.Env = %q, want %q", cfg.Primary.Env, EnvProduction)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 1 || cfg.Server.CORSAllowedOrigins[0] != "*" {
		t.Errorf("unexpected CORS origins: %+v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Database.InsertTimeout != 10*time.Second {
		t.Errorf("Database.InsertTimeout = %s, want 10s", cfg.Database.InsertTimeout)
	}
	if cfg.Signal.PriceRangePolicy != PriceRangeWarn {
		t.Errorf("Signal.PriceRangePolicy = %q, want %q", cfg.Signal.PriceRangePolicy, PriceRangeWarn)
	}
	if cfg.Signal.MaxPrice != DefaultMaxPrice {
		t.Errorf("Signal.MaxPrice = %v, want %v", cfg.Signal.MaxPrice, DefaultMaxPrice)
	}
	if cfg.Auth.WebhookSecret != "" {
		t.Errorf("expected no webhook secret, got %q", cfg.Auth.WebhookSecret)
	}
	if cfg.Observability == nil {
		t.Fatal("expected default observability config")
	}
	if cfg.Observability.ServiceName != "signal-webhook" {
		t.Errorf("ServiceName = %q", cfg.Observability.ServiceName)
	}
	if cfg.Observability.GetLogLevel() != "info" {
		t.Errorf("GetLogLevel() = %q, want info in production", cfg.Observability.GetLogLevel())
	}
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be false when no environment is set")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("SIGNAL_PRIMARY__ENV", "development")
	t.Setenv("SIGNAL_SERVER__PORT", "9000")
	t.Setenv("SIGNAL_SERVER__CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SIGNAL_DATABASE__INSERT_TIMEOUT", "2s")
	t.Setenv("SIGNAL_AUTH__WEBHOOK_SECRET", "s3cret")
	t.Setenv("SIGNAL_SIGNAL__PRICE_RANGE_POLICY", "reject")
	t.Setenv("SIGNAL_SIGNAL__STRICT_SYMBOL_FORMAT", "true")
	t.Setenv("SIGNAL_OBSERVABILITY__LOGGING__LEVEL", "warn")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Server.Port = %q, want 9000", cfg.Server.Port)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 2 {
		t.Errorf("expected 2 CORS origins, got %+v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Database.InsertTimeout != 2*time.Second {
		t.Errorf("InsertTimeout = %s, want 2s", cfg.Database.InsertTimeout)
	}
	if cfg.Auth.WebhookSecret != "s3cret" {
		t.Errorf("WebhookSecret = %q", cfg.Auth.WebhookSecret)
	}
	if cfg.Signal.PriceRangePolicy != PriceRangeReject {
		t.Errorf("PriceRangePolicy = %q", cfg.Signal.PriceRangePolicy)
	}
	if !cfg.Signal.StrictSymbolFormat {
		t.Error("expected StrictSymbolFormat to be true")
	}
	if cfg.Observability.Environment != EnvDevelopment {
		t.Errorf("Observability.Environment = %q", cfg.Observability.Environment)
	}
	if cfg.Observability.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want default json kept", cfg.Observability.Logging.Format)
	}
	if cfg.Observability.GetLogLevel() != "warn" {
		t.Errorf("GetLogLevel() = %q, want warn", cfg.Observability.GetLogLevel())
	}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be true in development")
	}
}

func TestLoadConfigLegacyVariables(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("WEBHOOK_SECRET", "legacy")
	t.Setenv("NODE_ENV", "development")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Auth.WebhookSecret != "legacy" {
		t.Errorf("WebhookSecret = %q, want legacy", cfg.Auth.WebhookSecret)
	}
	if cfg.Primary.Env != EnvDevelopment {
		t.Errorf("Primary.Env = %q, want development", cfg.Primary.Env)
	}

	t.Run("prefixed wins", func(t *testing.T) {
		t.Setenv("SIGNAL_AUTH__WEBHOOK_SECRET", "prefixed")
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.Auth.WebhookSecret != "prefixed" {
			t.Errorf("WebhookSecret = %q, want prefixed", cfg.Auth.WebhookSecret)
		}
	})
}

func TestLoadConfigDatabaseURL(t *testing.T) {
	t.Setenv("SIGNAL_DATABASE__URL", "postgres://postgres:pw@db.example.supabase.co:5432/postgres")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Database.URL == "" {
		t.Error("expected Database.URL to be set")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing database",
			env:  map[string]string{},
			want: "config validation failed",
		},
		{
			name: "unknown price policy",
			env:  map[string]string{"SIGNAL_SIGNAL__PRICE_RANGE_POLICY": "ignore"},
			want: "PriceRangePolicy",
		},
		{
			name: "unknown environment",
			env:  map[string]string{"SIGNAL_PRIMARY__ENV": "staging"},
			want: "Env",
		},
		{
			name: "notify without redis",
			env: map[string]string{
				"SIGNAL_NOTIFY__ENABLED":             "true",
				"SIGNAL_NOTIFY__RECIPIENT":           "ops@example.com",
				"SIGNAL_INTEGRATION__RESEND_API_KEY": "re_123",
			},
			want: "redis.address",
		},
		{
			name: "bad log level",
			env:  map[string]string{"SIGNAL_OBSERVABILITY__LOGGING__LEVEL": "verbose"},
			want: "invalid logging level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "missing database" {
				setMinimalEnv(t)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SIGNAL_SERVER__PORT":                          "server.port",
		"SIGNAL_DATABASE__SSL_MODE":                    "database.ssl_mode",
		"SIGNAL_OBSERVABILITY__NEW_RELIC__LICENSE_KEY": "observability.new_relic.license_key",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
