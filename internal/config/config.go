package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreFile     = "file"
)

type Config struct {
	AppPort  string
	LogLevel string

	DirectusURL string
	TokenSkew   time.Duration
	HTTPTimeout time.Duration
	ExpiresUnit time.Duration

	StoreDriver string
	StorePrefix string
	StorePath   string

	RedisAddr     string
	RedisPassword string

	DatabaseDSN string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// GoogleEnabled reports whether all Google sign-in settings are present.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func defaults() Config {
	return Config{
		AppPort:     "8080",
		LogLevel:    "info",
		TokenSkew:   5 * time.Minute,
		HTTPTimeout: 15 * time.Second,
		ExpiresUnit: time.Second,
		StoreDriver: StoreMemory,
		StorePrefix: "finx:",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by FINX_CONFIG, and finally environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("FINX_CONFIG")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.AppPort = envOr("APP_PORT", cfg.AppPort)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.DirectusURL = envOr("DIRECTUS_URL", cfg.DirectusURL)
	cfg.StoreDriver = strings.ToLower(envOr("STORE_DRIVER", cfg.StoreDriver))
	cfg.StorePrefix = envOr("STORE_PREFIX", cfg.StorePrefix)
	cfg.StorePath = envOr("STORE_PATH", cfg.StorePath)
	cfg.RedisAddr = envOr("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envOr("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.DatabaseDSN = envOr("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.GoogleClientID = envOr("GOOGLE_CLIENT_ID", cfg.GoogleClientID)
	cfg.GoogleClientSecret = envOr("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret)
	cfg.GoogleRedirectURL = envOr("GOOGLE_REDIRECT_URL", cfg.GoogleRedirectURL)

	var err error
	if cfg.TokenSkew, err = durationOr("TOKEN_SKEW", cfg.TokenSkew); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationOr("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}

	if raw := strings.TrimSpace(os.Getenv("EXPIRES_UNIT")); raw != "" {
		unit, err := parseExpiresUnit(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.ExpiresUnit = unit
	}

	if cfg.StoreDriver == "pq" || cfg.StoreDriver == "postgresql" {
		cfg.StoreDriver = StorePostgres
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings and driver-specific dependencies.
func (c Config) Validate() error {
	missing := make([]string, 0, 3)
	if c.DirectusURL == "" {
		missing = append(missing, "DIRECTUS_URL")
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	case StorePostgres:
		if c.DatabaseDSN == "" {
			missing = append(missing, "DATABASE_DSN")
		}
	case StoreFile:
		if c.StorePath == "" {
			missing = append(missing, "STORE_PATH")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	u, err := url.Parse(c.DirectusURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("DIRECTUS_URL must be an absolute URL")
	}
	if c.TokenSkew < 0 {
		return fmt.Errorf("TOKEN_SKEW must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func parseExpiresUnit(raw string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s", "sec", "seconds":
		return time.Second, nil
	case "ms", "millis", "milliseconds":
		return time.Millisecond, nil
	default:
		return 0, fmt.Errorf("EXPIRES_UNIT must be s or ms, got %q", raw)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// durationOr reads a duration such as "5m". An unset key yields fallback;
// a malformed value is an error.
func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return duration, nil
}
