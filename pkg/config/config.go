// Copyright 2025 Certen Protocol
//
// Package config loads the narrow set of options open_orbit needs: a
// database connection string, a blob backend selection, listen addresses
// and a per-orbit byte quota. Operator CLI and full deployment
// configuration are out of scope — this struct exists only to give
// orbit.OpenOptions somewhere to come from in cmd/orbitd.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// BlobBackend names which blob.Store implementation to construct.
type BlobBackend string

const (
	BlobBackendMemory  BlobBackend = "memory"
	BlobBackendBadger  BlobBackend = "badger"
	BlobBackendCometDB BlobBackend = "cometdb"
)

// Config holds the service's runtime configuration.
type Config struct {
	// Server Configuration
	ListenAddr  string
	MetricsAddr string

	// Database Configuration
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Blob Store Configuration
	BlobBackend BlobBackend
	BlobDataDir string

	// CometDBName is the database name passed to cometbft-db's
	// NewGoLevelDB when BlobBackend is cometdb; it becomes the directory
	// name under BlobDataDir.
	CometDBName string

	// Per-orbit byte-size quota (§5's backpressure rule). 0 means unlimited.
	OrbitQuotaBytes int64

	LogLevel string
}

// Load reads configuration from environment variables, then applies an
// optional YAML override file named by KEPLER_CONFIG_FILE if present.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr:     getEnv("METRICS_ADDR", "0.0.0.0:9090"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 5),
		BlobBackend:     BlobBackend(getEnv("BLOB_BACKEND", string(BlobBackendBadger))),
		BlobDataDir:     getEnv("BLOB_DATA_DIR", "./data/blobs"),
		CometDBName:     getEnv("COMETDB_NAME", "orbit-blobs"),
		OrbitQuotaBytes: getEnvInt64("ORBIT_QUOTA_BYTES", 0),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if path := getEnv("KEPLER_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyOverrideFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// overrideFile mirrors Config's fields that may be worth overriding on disk
// for local development, without requiring every field be present.
type overrideFile struct {
	ListenAddr      *string `yaml:"listen_addr"`
	MetricsAddr     *string `yaml:"metrics_addr"`
	DatabaseURL     *string `yaml:"database_url"`
	BlobBackend     *string `yaml:"blob_backend"`
	BlobDataDir     *string `yaml:"blob_data_dir"`
	CometDBName     *string `yaml:"cometdb_name"`
	OrbitQuotaBytes *int64  `yaml:"orbit_quota_bytes"`
	LogLevel        *string `yaml:"log_level"`
}

func (c *Config) applyOverrideFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read override file %s: %w", path, err)
	}
	var o overrideFile
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("config: parse override file %s: %w", path, err)
	}
	if o.ListenAddr != nil {
		c.ListenAddr = *o.ListenAddr
	}
	if o.MetricsAddr != nil {
		c.MetricsAddr = *o.MetricsAddr
	}
	if o.DatabaseURL != nil {
		c.DatabaseURL = *o.DatabaseURL
	}
	if o.BlobBackend != nil {
		c.BlobBackend = BlobBackend(*o.BlobBackend)
	}
	if o.BlobDataDir != nil {
		c.BlobDataDir = *o.BlobDataDir
	}
	if o.CometDBName != nil {
		c.CometDBName = *o.CometDBName
	}
	if o.OrbitQuotaBytes != nil {
		c.OrbitQuotaBytes = *o.OrbitQuotaBytes
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	return nil
}

// Validate checks that the configuration is usable for startup.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	switch c.BlobBackend {
	case BlobBackendMemory, BlobBackendBadger, BlobBackendCometDB:
	default:
		return fmt.Errorf("config: unrecognized BLOB_BACKEND %q", c.BlobBackend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
