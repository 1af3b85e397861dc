// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Snapshot store ("file" or "postgres", default: "file")
	StoreBackend string
	DataDir      string
	DatabaseURL  string

	// Auth
	JWTSecret        string
	TokenTTL         time.Duration
	AuthUsername     string
	AuthPasswordHash string // bcrypt

	// Blob storage ("local" or "s3", default: "local")
	StorageBackend   string
	LocalStoragePath string
	MaxUploadSize    int64

	// S3 blob storage
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	// AI sidecar
	AssistURL     string
	AssistTimeout time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:      envOr("METRICS_ADDR", ":9090"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "json"),
		StoreBackend:     envOr("STORE_BACKEND", "file"),
		DataDir:          envOr("DATA_DIR", "/data/cloudflow"),
		DatabaseURL:      envOr("DATABASE_URL", ""),
		JWTSecret:        envOr("JWT_SECRET", ""),
		TokenTTL:         envDuration("TOKEN_TTL", 24*time.Hour),
		AuthUsername:     envOr("AUTH_USERNAME", ""),
		AuthPasswordHash: envOr("AUTH_PASSWORD_HASH", ""),
		StorageBackend:   envOr("STORAGE_BACKEND", "local"),
		LocalStoragePath: envOr("LOCAL_STORAGE_PATH", "/data/cloudflow/blobs"),
		MaxUploadSize:    envInt64("MAX_UPLOAD_SIZE", 100*1024*1024), // 100MB default
		S3Endpoint:       envOr("S3_ENDPOINT", ""),
		S3Bucket:         envOr("S3_BUCKET", "cloudflow"),
		S3AccessKey:      envOr("S3_ACCESS_KEY", ""),
		S3SecretKey:      envOr("S3_SECRET_KEY", ""),
		S3Region:         envOr("S3_REGION", "us-east-1"),
		S3UseSSL:         envBool("S3_USE_SSL", true),
		AssistURL:        envOr("ASSIST_URL", ""),
		AssistTimeout:    envDuration("ASSIST_TIMEOUT", 30*time.Second),
	}

	switch cfg.StoreBackend {
	case "file", "postgres":
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be file or postgres, got %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required with STORE_BACKEND=postgres")
	}
	switch cfg.StorageBackend {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND must be local or s3, got %q", cfg.StorageBackend)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if (cfg.AuthUsername == "") != (cfg.AuthPasswordHash == "") {
		return nil, fmt.Errorf("AUTH_USERNAME and AUTH_PASSWORD_HASH must be set together")
	}

	return cfg, nil
}

// AuthEnabled reports whether login credentials were configured.
// Without them the API runs open, which is only meant for local use.
func (c *Config) AuthEnabled() bool {
	return c.AuthUsername != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
