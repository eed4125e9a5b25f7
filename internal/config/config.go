// Package config loads runtime startup configuration from a YAML file with
// environment variable overrides. A missing config file is not an error;
// defaults plus environment apply.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when no -config flag is given.
	DefaultConfigPath = "./config.yml"

	defaultPort        = 8000
	defaultMongoURL    = "mongodb://localhost:27017"
	defaultMongoDB     = "n_device"
	defaultDeviceLimit = 3
)

// AppConfig holds runtime startup configuration.
type AppConfig struct {
	Port           int         `yaml:"port"`
	Env            string      `yaml:"env"` // "development" | "production"
	Mongo          MongoConfig `yaml:"mongo"`
	RedisURL       string      `yaml:"redis_url"`
	AllowedOrigins []string    `yaml:"allowed_origins"`
	DeviceLimit    int         `yaml:"device_limit"`
}

type MongoConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development") || c.Env == ""
}

// Load reads the YAML file at path, applies environment overrides, and fills
// in defaults.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Fine: run on defaults and environment.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.DeviceLimit <= 0 {
		return nil, fmt.Errorf("device_limit must be positive, got %d", cfg.DeviceLimit)
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("MONGO_URL")); v != "" {
		cfg.Mongo.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("MONGO_DB")); v != "" {
		cfg.Mongo.Database = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DEVICE_LIMIT")); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.DeviceLimit = limit
		}
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitOrigins(v)
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Mongo.URL == "" {
		cfg.Mongo.URL = defaultMongoURL
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = defaultMongoDB
	}
	if cfg.DeviceLimit == 0 {
		cfg.DeviceLimit = defaultDeviceLimit
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
