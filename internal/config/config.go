package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL     string
	TemporalAddress string
	HTTPListenAddr  string
	// MasterKeyB64 is the base64-encoded process master key used to wrap
	// per-account data encryption keys. Supplied out-of-band, never persisted.
	MasterKeyB64 string
	// AWSCallTimeout bounds every individual provider API call made during a scan.
	AWSCallTimeout time.Duration
	// MetricsAddr is the worker's metrics/health listen address. Empty disables it.
	MetricsAddr string
	LogLevel    string
	ServiceName string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TemporalAddress: getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MasterKeyB64:    getEnv("MASTER_KEY", ""),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ServiceName:     getEnv("SERVICE_NAME", ""),
	}

	timeout := getEnv("AWS_CALL_TIMEOUT", "30s")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid AWS_CALL_TIMEOUT %q: %w", timeout, err)
	}
	cfg.AWSCallTimeout = d

	return cfg, nil
}

// Validate checks that the config has everything the given component needs.
func (c *Config) Validate(component string) error {
	var missing []string

	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.TemporalAddress == "" {
		missing = append(missing, "TEMPORAL_ADDRESS")
	}
	if c.MasterKeyB64 == "" {
		missing = append(missing, "MASTER_KEY")
	}

	switch component {
	case "core-api":
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
	case "worker":
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MasterKey decodes the configured master key.
func (c *Config) MasterKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.MasterKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode MASTER_KEY: %w", err)
	}
	return key, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
