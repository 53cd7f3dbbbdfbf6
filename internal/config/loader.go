package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix namespaces every environment variable read by Load.
const Prefix = "SPARKBOARD"

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures environment driven configuration values for the sparkboard service.
type Config struct {
	HTTPPort       int
	DatabaseDriver string
	SQLiteDSN      string
	DatabaseURL    string
	SessionTTL     time.Duration
	CookieHashKey  []byte
	CookieBlockKey []byte
	CookieSecure   bool
	AMQPURL        string
	AMQPExchange   string
	AnalyticsTTL   time.Duration
	LogLevel       slog.Level
}

// environment mirrors the variables as envconfig sees them, before validation.
type environment struct {
	HTTPPort       int           `envconfig:"HTTP_PORT" default:"8080" desc:"port the HTTP API listens on"`
	DatabaseDriver string        `envconfig:"DATABASE_DRIVER" default:"sqlite" desc:"sqlite or postgres"`
	SQLiteDSN      string        `envconfig:"SQLITE_DSN" default:"file:sparkboard.db" desc:"SQLite database file"`
	DatabaseURL    string        `envconfig:"DATABASE_URL" desc:"PostgreSQL connection URL, required for the postgres driver"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h" desc:"session lifetime"`
	CookieHashKey  string        `envconfig:"COOKIE_HASH_KEY" desc:"base64 cookie signing key, at least 32 bytes"`
	CookieBlockKey string        `envconfig:"COOKIE_BLOCK_KEY" desc:"base64 cookie encryption key of 16, 24 or 32 bytes"`
	CookieSecure   bool          `envconfig:"COOKIE_SECURE" default:"true" desc:"mark the session cookie Secure"`
	AMQPURL        string        `envconfig:"AMQP_URL" desc:"optional RabbitMQ URL for the change feed"`
	AMQPExchange   string        `envconfig:"AMQP_EXCHANGE" default:"sparkboard.events" desc:"topic exchange for change events"`
	AnalyticsTTL   time.Duration `envconfig:"ANALYTICS_TTL" default:"30s" desc:"how long the admin dashboard is cached"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info" desc:"debug, info, warn or error"`
}

// Load parses configuration values from the current process environment.
//
// Defaults are applied for optional variables. Missing and invalid variables are
// collected and reported in a single error.
func Load() (Config, error) {
	var env environment
	if err := envconfig.Process(Prefix, &env); err != nil {
		var parseErr *envconfig.ParseError
		if errors.As(err, &parseErr) {
			return Config{}, fmt.Errorf("invalid environment variable values: %s", parseErr.KeyName)
		}
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	cfg := Config{
		HTTPPort:       env.HTTPPort,
		DatabaseDriver: strings.ToLower(strings.TrimSpace(env.DatabaseDriver)),
		SQLiteDSN:      strings.TrimSpace(env.SQLiteDSN),
		DatabaseURL:    strings.TrimSpace(env.DatabaseURL),
		SessionTTL:     env.SessionTTL,
		CookieSecure:   env.CookieSecure,
		AMQPURL:        strings.TrimSpace(env.AMQPURL),
		AMQPExchange:   strings.TrimSpace(env.AMQPExchange),
		AnalyticsTTL:   env.AnalyticsTTL,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, key("HTTP_PORT"))
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
		if cfg.SQLiteDSN == "" {
			missing = append(missing, key("SQLITE_DSN"))
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, key("DATABASE_URL"))
		}
	default:
		invalid = append(invalid, key("DATABASE_DRIVER"))
	}

	if cfg.SessionTTL <= 0 {
		invalid = append(invalid, key("SESSION_TTL"))
	}
	if cfg.AnalyticsTTL < 0 {
		invalid = append(invalid, key("ANALYTICS_TTL"))
	}

	if hashKey, ok := decodeKey(env.CookieHashKey); !ok {
		missing = append(missing, key("COOKIE_HASH_KEY"))
	} else if len(hashKey) < 32 {
		invalid = append(invalid, key("COOKIE_HASH_KEY"))
	} else {
		cfg.CookieHashKey = hashKey
	}

	if blockKey, ok := decodeKey(env.CookieBlockKey); !ok {
		missing = append(missing, key("COOKIE_BLOCK_KEY"))
	} else if n := len(blockKey); n != 16 && n != 24 && n != 32 {
		invalid = append(invalid, key("COOKIE_BLOCK_KEY"))
	} else {
		cfg.CookieBlockKey = blockKey
	}

	if cfg.AMQPURL != "" && cfg.AMQPExchange == "" {
		missing = append(missing, key("AMQP_EXCHANGE"))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(env.LogLevel))); err != nil {
		invalid = append(invalid, key("LOG_LEVEL"))
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variable values: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// Usage writes the table of recognised environment variables to w.
func Usage(w io.Writer) error {
	return envconfig.Usagef(Prefix, &environment{}, w, envconfig.DefaultTableFormat)
}

func key(name string) string {
	return Prefix + "_" + name
}

// decodeKey reports ok=false when raw is blank. A value that is not valid
// base64 decodes to nil.
func decodeKey(raw string) ([]byte, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, true
	}
	return decoded, true
}
