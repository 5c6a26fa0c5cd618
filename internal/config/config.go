package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Host               string
	Port               string
	MaxRequestBodySize int64
	CORSAllowedOrigins []string

	Model ModelConfig
}

// ModelConfig configures the hosted vision-language model.
type ModelConfig struct {
	Name         string
	APIKey       string
	BaseURL      string
	Timeout      time.Duration // per attempt
	MaxRetryTime time.Duration
	MaxRetries   uint64
	UseMock      bool
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               envOr("HOST", "0.0.0.0"),
		Port:               envOr("PORT", "8000"),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 50*1024*1024),
		CORSAllowedOrigins: splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),
		Model: ModelConfig{
			Name:         envOr("GEMINI_MODEL", DefaultModel),
			APIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			BaseURL:      strings.TrimRight(envOr("GEMINI_BASE_URL", DefaultBaseURL), "/"),
			Timeout:      parseDurationOrDefault("MODEL_TIMEOUT", 60*time.Second),
			MaxRetryTime: parseDurationOrDefault("MODEL_MAX_RETRY_TIME", 90*time.Second),
			MaxRetries:   uint64(parseIntOrDefault("MODEL_MAX_RETRIES", 2)),
			UseMock:      os.Getenv("USE_MOCK_MODEL") == "true",
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.Model.Timeout <= 0 || c.Model.MaxRetryTime <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got model=%s, retry=%s)", c.Model.Timeout, c.Model.MaxRetryTime)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("GEMINI_MODEL must not be empty")
	}
	if c.Model.APIKey == "" && !c.Model.UseMock {
		return fmt.Errorf("GEMINI_API_KEY not configured")
	}
	return nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
