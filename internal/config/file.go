package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML files. Durations are strings ("5m").
type fileConfig struct {
	AppPort  string `yaml:"app_port"`
	LogLevel string `yaml:"log_level"`

	Directus struct {
		URL         string `yaml:"url"`
		TokenSkew   string `yaml:"token_skew"`
		HTTPTimeout string `yaml:"http_timeout"`
		ExpiresUnit string `yaml:"expires_unit"`
	} `yaml:"directus"`

	Store struct {
		Driver string `yaml:"driver"`
		Prefix string `yaml:"prefix"`
		Path   string `yaml:"path"`
	} `yaml:"store"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"google"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.AppPort, fc.AppPort)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.DirectusURL, fc.Directus.URL)
	setString(&cfg.StoreDriver, strings.ToLower(fc.Store.Driver))
	setString(&cfg.StorePrefix, fc.Store.Prefix)
	setString(&cfg.StorePath, fc.Store.Path)
	setString(&cfg.RedisAddr, fc.Redis.Addr)
	setString(&cfg.RedisPassword, fc.Redis.Password)
	setString(&cfg.DatabaseDSN, fc.Database.DSN)
	setString(&cfg.GoogleClientID, fc.Google.ClientID)
	setString(&cfg.GoogleClientSecret, fc.Google.ClientSecret)
	setString(&cfg.GoogleRedirectURL, fc.Google.RedirectURL)

	if err := setDuration(&cfg.TokenSkew, "directus.token_skew", fc.Directus.TokenSkew); err != nil {
		return err
	}
	if err := setDuration(&cfg.HTTPTimeout, "directus.http_timeout", fc.Directus.HTTPTimeout); err != nil {
		return err
	}
	if fc.Directus.ExpiresUnit != "" {
		unit, err := parseExpiresUnit(fc.Directus.ExpiresUnit)
		if err != nil {
			return err
		}
		cfg.ExpiresUnit = unit
	}
	return nil
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
