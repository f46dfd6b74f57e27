package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// LoadbalancerConfig holds the coordinates of the loadbalancer this instance
// registers itself with. Registration is fire-and-forget; a missing
// loadbalancer never prevents startup.
type LoadbalancerConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	Host    string `json:"host"`
}

// Maintenance short-circuits all HTTP traffic with a static notice while enabled.
type Maintenance struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

// Config is the process-wide configuration, parsed once at boot.
type Config struct {
	Port         int                `json:"port"`
	DatabasePath string             `json:"databasePath"`
	RedisAddr    string             `json:"redisAddr"`
	OTLPEndpoint string             `json:"otlpEndpoint"`
	Loadbalancer LoadbalancerConfig `json:"loadbalancer"`
	Maintenance  Maintenance        `json:"maintenance"`
}

// Parse reads the JSON config at path. A missing file is not an error; the
// defaults plus environment overrides are enough to run locally.
func Parse(path string) (*Config, error) {
	cfg := &Config{
		Port:         8080,
		DatabasePath: "./blobs.db",
		RedisAddr:    "localhost:6379",
		OTLPEndpoint: "otel-collector:4317",
	}

	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("REDIS_CONNSTRING"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
}
