package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FINX_CONFIG", "APP_PORT", "LOG_LEVEL", "DIRECTUS_URL", "TOKEN_SKEW",
	"HTTP_TIMEOUT", "EXPIRES_UNIT", "STORE_DRIVER", "STORE_PREFIX", "STORE_PATH",
	"REDIS_ADDR", "REDIS_PASSWORD", "DATABASE_DSN", "GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIRECTUS_URL", "https://cms.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 5*time.Minute, cfg.TokenSkew)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Second, cfg.ExpiresUnit)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "finx:", cfg.StorePrefix)
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_MissingDirectusURL(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTUS_URL")
}

func TestLoad_DriverRequirements(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		extra   map[string]string
		wantErr string
	}{
		{name: "redis without addr", driver: "redis", wantErr: "REDIS_ADDR"},
		{name: "postgres without dsn", driver: "postgres", wantErr: "DATABASE_DSN"},
		{name: "file without path", driver: "file", wantErr: "STORE_PATH"},
		{name: "file with path", driver: "file", extra: map[string]string{"STORE_PATH": "/tmp/finx.json"}},
		{name: "postgresql alias", driver: "postgresql", extra: map[string]string{"DATABASE_DSN": "postgres://x"}},
		{name: "unknown driver", driver: "sqlite", wantErr: "unsupported"},
		{name: "redis ok", driver: "redis", extra: map[string]string{"REDIS_ADDR": "localhost:6379"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DIRECTUS_URL", "https://cms.example.com")
			t.Setenv("STORE_DRIVER", tt.driver)
			for k, v := range tt.extra {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MalformedDuration(t *testing.T) {
	for _, key := range []string{"TOKEN_SKEW", "HTTP_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DIRECTUS_URL", "https://cms.example.com")
			t.Setenv(key, "five minutes")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_ExpiresUnit(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIRECTUS_URL", "https://cms.example.com")
	t.Setenv("EXPIRES_UNIT", "ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, cfg.ExpiresUnit)

	t.Setenv("EXPIRES_UNIT", "hours")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "finx.yaml")
	content := `
app_port: "9090"
directus:
  url: https://file.example.com
  token_skew: 2m
  expires_unit: ms
store:
  driver: redis
redis:
  addr: redis:6379
google:
  client_id: id
  client_secret: secret
  redirect_url: http://localhost/oauth/callback/google
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("FINX_CONFIG", path)
	t.Setenv("APP_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.AppPort, "env overrides file")
	assert.Equal(t, "https://file.example.com", cfg.DirectusURL)
	assert.Equal(t, 2*time.Minute, cfg.TokenSkew)
	assert.Equal(t, time.Millisecond, cfg.ExpiresUnit)
	assert.Equal(t, StoreRedis, cfg.StoreDriver)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.True(t, cfg.GoogleEnabled())
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("directus:\n  token_skew: soon\n"), 0o600))
	t.Setenv("FINX_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directus.token_skew")
}
