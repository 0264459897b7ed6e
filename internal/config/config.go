// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file
// when present), loads them into structured Go types and validates
// that required values are present so they can be reused across the
// application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide defaults for optional config blocks (e.g. observability).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into
	// the process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix SIGNAL_. Keys are lowercased, the
	prefix is removed and a double underscore marks nesting:

	  SIGNAL_SERVER__PORT      -> server.port      -> Config.Server.Port
	  SIGNAL_DATABASE__SSL_MODE -> database.ssl_mode -> Config.Database.SSLMode

	The variable names used by the hosted edge functions (WEBHOOK_SECRET,
	NODE_ENV) are also honoured; prefixed variables win over them.
*/

const (
	envPrefix = "SIGNAL_"

	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvLocal       = "local"
	EnvTest        = "test"
)

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth"`
	Signal        SignalConfig         `koanf:"signal" validate:"required"`
	Notify        NotifyConfig         `koanf:"notify"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=development production local test"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
	BodyLimit          string   `koanf:"body_limit" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
//
// URL takes precedence over the discrete fields; it is what Supabase hands
// out as the "connection string".
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	Host            string        `koanf:"host" validate:"required_without=URL"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user" validate:"required_without=URL"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name" validate:"required_without=URL"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int           `koanf:"conn_max_lifetime" validate:"min=1"`
	ConnMaxIdleTime int           `koanf:"conn_max_idle_time" validate:"min=1"`
	InsertTimeout   time.Duration `koanf:"insert_timeout" validate:"min=1ms"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// RedisConfig contains Redis connection details. An empty address
// disables every Redis-backed feature (notifications, redis health check).
type RedisConfig struct {
	Address string `koanf:"address"`
}

// AuthConfig stores the static webhook secret.
// When empty, webhook requests are accepted without an Authorization header.
type AuthConfig struct {
	WebhookSecret string `koanf:"webhook_secret"`
}

// SignalConfig tunes signal acceptance rules beyond the base payload contract.
type SignalConfig struct {
	// PriceRangePolicy decides what happens to a price outside
	// (MinPrice, MaxPrice]: "warn" logs and keeps it, "reject" answers 400.
	PriceRangePolicy string  `koanf:"price_range_policy" validate:"required,oneof=warn reject"`
	MinPrice         float64 `koanf:"min_price" validate:"min=0"`
	MaxPrice         float64 `koanf:"max_price" validate:"gtfield=MinPrice"`

	// StrictSymbolFormat additionally rejects symbols outside [A-Za-z0-9._/-]{1,20}.
	StrictSymbolFormat bool `koanf:"strict_symbol_format"`
}

// NotifyConfig controls the optional e-mail notification for saved signals.
type NotifyConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Recipient string `koanf:"recipient" validate:"omitempty,email"`
	From      string `koanf:"from"`
}

// IntegrationConfig stores third-party API credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, applies defaults, validates it and returns the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	// Legacy names first so that prefixed variables override them.
	legacy := map[string]string{
		"WEBHOOK_SECRET": "auth.webhook_secret",
		"NODE_ENV":       "primary.env",
	}
	for name, key := range legacy {
		err := k.Load(env.Provider(name, ".", func(s string) string {
			if s != name {
				return ""
			}
			return key
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("could not load %s: %w", name, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Observability defaults are laid down first so that individual
	// SIGNAL_OBSERVABILITY__* variables only override what they name.
	mainConfig := &Config{Observability: DefaultObservabilityConfig()}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.applyDefaults()

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// envKey maps SIGNAL_DATABASE__SSL_MODE to database.ssl_mode.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

func (c *Config) applyDefaults() {
	// Unset means production: error details stay hidden unless a
	// development environment is asked for.
	if c.Primary.Env == "" {
		c.Primary.Env = EnvProduction
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Server.BodyLimit == "" {
		c.Server.BodyLimit = "1M"
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}
	if c.Database.ConnMaxIdleTime == 0 {
		c.Database.ConnMaxIdleTime = 60
	}
	if c.Database.InsertTimeout == 0 {
		c.Database.InsertTimeout = 10 * time.Second
	}

	if c.Signal.PriceRangePolicy == "" {
		c.Signal.PriceRangePolicy = PriceRangeWarn
	}
	if c.Signal.MaxPrice == 0 {
		c.Signal.MaxPrice = DefaultMaxPrice
	}

	if c.Notify.From == "" {
		c.Notify.From = "Signal Webhook <onboarding@resend.dev>"
	}

	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	// Service name and environment always follow the primary config.
	c.Observability.ServiceName = "signal-webhook"
	c.Observability.Environment = c.Primary.Env
}

const (
	PriceRangeWarn   = "warn"
	PriceRangeReject = "reject"

	DefaultMaxPrice = 10_000_000
)

// Validate applies the cross-field rules struct tags cannot express.
func (c *Config) Validate() error {
	if c.Notify.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("notify.enabled requires redis.address")
		}
		if c.Integration.ResendAPIKey == "" {
			return fmt.Errorf("notify.enabled requires integration.resend_api_key")
		}
		if c.Notify.Recipient == "" {
			return fmt.Errorf("notify.enabled requires notify.recipient")
		}
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Primary.Env == EnvDevelopment || c.Primary.Env == EnvLocal
}
