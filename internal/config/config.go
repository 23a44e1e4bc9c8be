// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types, and validates that required
// values are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for every optional block.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process environment
	// before anything below reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read from two sources:
	- TURISMO_ prefixed vars, with "__" separating nesting levels
	  e.g. TURISMO_SERVER__PORT -> server.port -> Config.Server.Port
	- POSTGRES_URL, the single connection-string variable used by the
	  hosting platform, mapped to database.url
*/

const (
	envPrefix   = "TURISMO_"
	envNesting  = "__"
	postgresEnv = "POSTGRES_"
)

// Config is the root configuration object for the application.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	App           AppConfig            `koanf:"app" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// AppConfig describes the service as reported by the metadata endpoint.
type AppConfig struct {
	Name         string `koanf:"name" validate:"required"`
	Version      string `koanf:"version" validate:"required"`
	DatabaseName string `koanf:"database_name"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
	APIPrefix          string   `koanf:"api_prefix" validate:"required,startswith=/"`

	// RateLimit is the sustained number of requests per second allowed per
	// client IP. Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
	RateBurst int     `koanf:"rate_burst" validate:"min=0"`
}

// DatabaseConfig contains the PostgreSQL connection string.
//
// URL carries user, password, host, port and database name. SSLMode is
// applied only when the URL does not set sslmode itself. ConnectTimeout,
// when set, overrides connect_timeout from the URL.
type DatabaseConfig struct {
	URL            string        `koanf:"url" validate:"required"`
	SSLMode        string        `koanf:"ssl_mode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"min=0"`
}

// DefaultConfig returns the configuration used for every key the
// environment does not provide.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		App: AppConfig{
			Name:         "Anderson Turismo API",
			Version:      "2.0.0",
			DatabaseName: "Neon Postgres",
		},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			APIPrefix:          "/api/v1",
		},
		Database: DatabaseConfig{
			SSLMode: "require",
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables on top of
// DefaultConfig, validates it, and returns the resulting config.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, envNesting, ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load %s env variables: %w", envPrefix, err)
	}

	// POSTGRES_URL -> database.url. An explicit TURISMO_DATABASE__URL wins.
	if !k.Exists("database.url") {
		err = k.Load(env.Provider(postgresEnv, ".", func(s string) string {
			// Hosting platforms export several POSTGRES_* variables; only the
			// connection string is ours. An empty key makes koanf skip the var.
			if s != postgresEnv+"URL" {
				return ""
			}
			return "database.url"
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("could not load %s env variables: %w", postgresEnv, err)
		}
	}

	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config so
	// logs and traces agree with each other.
	mainConfig.Observability.ServiceName = serviceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// IsLocal reports whether the service runs on a developer machine, which
// turns on SQL statement logging.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
