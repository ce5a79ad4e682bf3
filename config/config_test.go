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
	"VIDRANK_CONFIG", "PORT", "DATABASE_URL", "LOG_LEVEL", "SEARCH_BACKEND",
	"SEARCH_API_URL", "YOUTUBE_BASE_URL", "UPSTREAM_TIMEOUT", "CACHE_TTL",
	"CACHE_SIZE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "HISTORY_SIZE",
	"SESSION_TTL", "SESSION_LIMIT", "RATE_LIMIT_PER_MINUTE",
	"CORS_ALLOWED_ORIGINS", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY",
	"MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_USE_SSL",
}

// clearEnv blanks every key Load reads; getEnv treats empty as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 100, cfg.Cache.Size)
	assert.Equal(t, 5, cfg.HistorySize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SEARCH_BACKEND", "youtube")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("HISTORY_SIZE", "8")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendYouTube, cfg.Search.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.HistorySize)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Minio.UseSSL)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vidrank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
history_size: 3
search:
  backend: api
  api_url: http://search.internal:5000
cache:
  size: 50
session:
  ttl: 5m
`), 0o600))
	t.Setenv("VIDRANK_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Port)
	assert.Equal(t, 3, cfg.HistorySize)
	assert.Equal(t, "http://search.internal:5000", cfg.Search.APIURL)
	assert.Equal(t, 50, cfg.Cache.Size)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "SEARCH_BACKEND", "bing"},
		{"bad duration", "CACHE_TTL", "soon"},
		{"bad int", "CACHE_SIZE", "many"},
		{"zero size", "HISTORY_SIZE", "0"},
		{"negative ttl", "SESSION_TTL", "-1m"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIDRANK_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
