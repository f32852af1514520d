// Package config loads server settings from FLAGS_* environment variables
// and the client's named remotes file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store kinds accepted by FLAGS_STORE.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreNATS     = "nats"
	StoreMemory   = "memory"
)

type Config struct {
	Store       string // FLAGS_STORE (default "sqlite")
	DatabaseURL string // FLAGS_DATABASE_URL (required for postgres)
	SQLitePath  string // FLAGS_SQLITE_PATH (default "flags.db")
	KVURL       string // FLAGS_KV_URL (required for nats)
	KVBucket    string // FLAGS_KV_BUCKET (default "feature_flags")

	GRPCAddr  string // FLAGS_GRPC_ADDR (default ":9090")
	HTTPAddr  string // FLAGS_HTTP_ADDR (default ":8080")
	NATSURL   string // FLAGS_NATS_URL (optional, empty = no events)
	AuthToken string // FLAGS_AUTH_TOKEN (optional, empty = auth disabled)

	StoreTimeout    time.Duration // FLAGS_STORE_TIMEOUT (default 5s)
	CacheTTL        time.Duration // FLAGS_CACHE_TTL (default 0 = off)
	CacheSize       int           // FLAGS_CACHE_SIZE (default 1024)
	BreakerFailures uint32        // FLAGS_BREAKER_FAILURES (default 5; 0 = off)
	BreakerCooldown time.Duration // FLAGS_BREAKER_COOLDOWN (default 30s)

	// Sync settings
	SyncInterval   time.Duration // FLAGS_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // FLAGS_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // FLAGS_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // FLAGS_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // FLAGS_SYNC_S3_KEY (default "flags/snapshot.jsonl")
	SyncFile       string        // FLAGS_SYNC_FILE (enables the file destination when set)

	LogLevel  string // FLAGS_LOG_LEVEL (default "info")
	LogFormat string // FLAGS_LOG_FORMAT (default "text")
}

func Load() (*Config, error) {
	c := &Config{
		Store:          strings.ToLower(envOrDefault("FLAGS_STORE", StoreSQLite)),
		DatabaseURL:    os.Getenv("FLAGS_DATABASE_URL"),
		SQLitePath:     envOrDefault("FLAGS_SQLITE_PATH", "flags.db"),
		KVURL:          os.Getenv("FLAGS_KV_URL"),
		KVBucket:       envOrDefault("FLAGS_KV_BUCKET", "feature_flags"),
		GRPCAddr:       envOrDefault("FLAGS_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("FLAGS_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("FLAGS_NATS_URL"),
		AuthToken:      os.Getenv("FLAGS_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("FLAGS_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("FLAGS_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("FLAGS_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("FLAGS_SYNC_S3_KEY", "flags/snapshot.jsonl"),
		SyncFile:       os.Getenv("FLAGS_SYNC_FILE"),
		LogLevel:       strings.ToLower(envOrDefault("FLAGS_LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(envOrDefault("FLAGS_LOG_FORMAT", "text")),
	}

	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("FLAGS_DATABASE_URL is required when FLAGS_STORE=postgres")
		}
	case StoreNATS:
		if c.KVURL == "" {
			return nil, fmt.Errorf("FLAGS_KV_URL is required when FLAGS_STORE=nats")
		}
	case StoreSQLite, StoreMemory:
	default:
		return nil, fmt.Errorf("FLAGS_STORE: unknown store %q (must be postgres, sqlite, nats or memory)", c.Store)
	}

	var err error
	if c.StoreTimeout, err = durationEnv("FLAGS_STORE_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if c.CacheTTL, err = durationEnv("FLAGS_CACHE_TTL", "0"); err != nil {
		return nil, err
	}
	if c.BreakerCooldown, err = durationEnv("FLAGS_BREAKER_COOLDOWN", "30s"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = durationEnv("FLAGS_SYNC_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if c.CacheSize, err = intEnv("FLAGS_CACHE_SIZE", 1024); err != nil {
		return nil, err
	}
	failures, err := intEnv("FLAGS_BREAKER_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	c.BreakerFailures = uint32(failures)

	if _, err := parseLevel(c.LogLevel); err != nil {
		return nil, err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return nil, fmt.Errorf("FLAGS_LOG_FORMAT: unknown format %q (must be text or json)", c.LogFormat)
	}

	return c, nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("FLAGS_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return n, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
