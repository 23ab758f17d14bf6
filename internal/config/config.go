package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	BaseURL         string
	FrontendURL     string
	DataFile        string
	EnableHSTS      bool
	ServerDebugMode bool
	RateLimit       string
	AMQPURL         string
	OTELEnabled     bool
	OTELEndpoint    string
	SlowWriteMS     int
}

// fileConfig mirrors Config for the optional YAML config file. Pointer
// fields so absent keys don't clobber defaults.
type fileConfig struct {
	ServerPort      *string `yaml:"server_port"`
	BaseURL         *string `yaml:"base_url"`
	FrontendURL     *string `yaml:"frontend_url"`
	DataFile        *string `yaml:"data_file"`
	EnableHSTS      *bool   `yaml:"enable_hsts"`
	ServerDebugMode *bool   `yaml:"server_debug_mode"`
	RateLimit       *string `yaml:"rate_limit"`
	AMQPURL         *string `yaml:"amqp_url"`
	OTELEnabled     *bool   `yaml:"otel_enabled"`
	OTELEndpoint    *string `yaml:"otel_endpoint"`
	SlowWriteMS     *int    `yaml:"slow_write_ms"`
}

// Load builds configuration in three layers: defaults, then the optional
// YAML file named by TASKDECK_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  "8080",
		BaseURL:     "http://localhost:8080",
		FrontendURL: "http://localhost:3000",
		RateLimit:   "20-S",
	}

	if path := os.Getenv("TASKDECK_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.DataFile = getEnv("DATA_FILE", cfg.DataFile)
	cfg.EnableHSTS = getEnvBool("ENABLE_HSTS", cfg.EnableHSTS)
	cfg.ServerDebugMode = getEnvBool("SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.RateLimit = getEnv("RATE_LIMIT", cfg.RateLimit)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.OTELEnabled = getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)
	cfg.SlowWriteMS = getEnvInt("SLOW_WRITE_MS", cfg.SlowWriteMS)

	if cfg.DataFile == "" {
		return nil, fmt.Errorf("DATA_FILE is required")
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.ServerPort != nil {
		cfg.ServerPort = *fc.ServerPort
	}
	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
	}
	if fc.FrontendURL != nil {
		cfg.FrontendURL = *fc.FrontendURL
	}
	if fc.DataFile != nil {
		cfg.DataFile = *fc.DataFile
	}
	if fc.EnableHSTS != nil {
		cfg.EnableHSTS = *fc.EnableHSTS
	}
	if fc.ServerDebugMode != nil {
		cfg.ServerDebugMode = *fc.ServerDebugMode
	}
	if fc.RateLimit != nil {
		cfg.RateLimit = *fc.RateLimit
	}
	if fc.AMQPURL != nil {
		cfg.AMQPURL = *fc.AMQPURL
	}
	if fc.OTELEnabled != nil {
		cfg.OTELEnabled = *fc.OTELEnabled
	}
	if fc.OTELEndpoint != nil {
		cfg.OTELEndpoint = *fc.OTELEndpoint
	}
	if fc.SlowWriteMS != nil {
		cfg.SlowWriteMS = *fc.SlowWriteMS
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
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
