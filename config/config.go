// Package config loads service settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendAPI     = "api"
	BackendYouTube = "youtube"
)

type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`

	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Minio   MinioConfig   `yaml:"minio"`

	HistorySize        int      `yaml:"history_size"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type SearchConfig struct {
	Backend         string        `yaml:"backend"`
	APIURL          string        `yaml:"api_url"`
	YouTubeBaseURL  string        `yaml:"youtube_base_url"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
}

type CacheConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Size int           `yaml:"size"`
}

// RedisConfig enables the shared result cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	TTL   time.Duration `yaml:"ttl"`
	Limit int           `yaml:"limit"`
}

// MinioConfig enables result snapshots when Endpoint is set.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:        "8080",
		DatabaseURL: "vidrank.db",
		LogLevel:    "info",
		Search: SearchConfig{
			Backend:         BackendAPI,
			APIURL:          "http://localhost:5000",
			YouTubeBaseURL:  "https://www.youtube.com",
			UpstreamTimeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			TTL:  10 * time.Minute,
			Size: 100,
		},
		Session: SessionConfig{
			TTL:   30 * time.Minute,
			Limit: 1000,
		},
		Minio: MinioConfig{
			Bucket: "vidrank-snapshots",
		},
		HistorySize:        5,
		RateLimitPerMinute: 60,
		CORSAllowedOrigins: []string{"*"},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first if present; VIDRANK_CONFIG names an
// optional YAML file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("VIDRANK_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Search.Backend = getEnv("SEARCH_BACKEND", c.Search.Backend)
	c.Search.APIURL = getEnv("SEARCH_API_URL", c.Search.APIURL)
	c.Search.YouTubeBaseURL = getEnv("YOUTUBE_BASE_URL", c.Search.YouTubeBaseURL)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Minio.Bucket = getEnv("MINIO_BUCKET", c.Minio.Bucket)
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		c.Minio.UseSSL = v == "true"
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	var errs []error
	envDuration("UPSTREAM_TIMEOUT", &c.Search.UpstreamTimeout, &errs)
	envDuration("CACHE_TTL", &c.Cache.TTL, &errs)
	envDuration("SESSION_TTL", &c.Session.TTL, &errs)
	envInt("CACHE_SIZE", &c.Cache.Size, &errs)
	envInt("REDIS_DB", &c.Redis.DB, &errs)
	envInt("HISTORY_SIZE", &c.HistorySize, &errs)
	envInt("SESSION_LIMIT", &c.Session.Limit, &errs)
	envInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute, &errs)
	return errors.Join(errs...)
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Search.Backend {
	case BackendAPI:
		if c.Search.APIURL == "" {
			errs = append(errs, errors.New("SEARCH_API_URL is required for the api backend"))
		}
	case BackendYouTube:
	default:
		errs = append(errs, fmt.Errorf("unknown SEARCH_BACKEND %q", c.Search.Backend))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.Search.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("CACHE_SIZE must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.Limit <= 0 {
		errs = append(errs, errors.New("SESSION_LIMIT must be positive"))
	}
	if c.HistorySize <= 0 {
		errs = append(errs, errors.New("HISTORY_SIZE must be positive"))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, dst *int, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func envDuration(key string, dst *time.Duration, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
