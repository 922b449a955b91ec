// Package config manages application configuration
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// API settings
	APIBaseURL     string
	RequestTimeout time.Duration

	Environment string // "development" or "production"

	// Local state database holding the session and preferences
	DataPath string

	// Offline demonstration accounts, used only when the API is unreachable
	DemoFallback bool
	DemoSecret   string // For signing demo tokens

	Verbose bool

	// Largest receipt image or voice memo accepted for upload, in bytes
	MaxUploadSize int64
}

// fileConfig is the YAML shape. Pointers distinguish unset from false.
type fileConfig struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Environment    string        `yaml:"environment"`
	DataPath       string        `yaml:"data_path"`
	DemoFallback   *bool         `yaml:"demo_fallback"`
	DemoSecret     string        `yaml:"demo_secret"`
	Verbose        *bool         `yaml:"verbose"`
	MaxUploadSize  int64         `yaml:"max_upload_size"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return build(fileConfig{})
}

// LoadFile reads a YAML config file; environment variables still take precedence
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return build(fc), nil
}

func build(fc fileConfig) *Config {
	env := getEnv("MONEYMANAGER_ENV", orDefault(fc.Environment, "development"))

	// Demo accounts default to on only while developing
	demo := env == "development"
	if fc.DemoFallback != nil {
		demo = *fc.DemoFallback
	}
	verbose := false
	if fc.Verbose != nil {
		verbose = *fc.Verbose
	}
	timeout := 30 * time.Second
	if fc.RequestTimeout > 0 {
		timeout = fc.RequestTimeout
	}
	maxUpload := int64(10 << 20)
	if fc.MaxUploadSize > 0 {
		maxUpload = fc.MaxUploadSize
	}

	return &Config{
		APIBaseURL:     getEnv("MONEYMANAGER_API_URL", orDefault(fc.APIBaseURL, "http://localhost:8000/api")),
		RequestTimeout: getDurationEnv("MONEYMANAGER_REQUEST_TIMEOUT", timeout),
		Environment:    env,
		DataPath:       getEnv("MONEYMANAGER_DATA_PATH", orDefault(fc.DataPath, defaultDataPath())),
		DemoFallback:   getBoolEnv("MONEYMANAGER_DEMO_FALLBACK", demo),
		DemoSecret:     getEnv("MONEYMANAGER_DEMO_SECRET", orDefault(fc.DemoSecret, "dev-demo-secret-change-in-production")),
		Verbose:        getBoolEnv("MONEYMANAGER_VERBOSE", verbose),
		MaxUploadSize:  getInt64Env("MONEYMANAGER_MAX_UPLOAD_SIZE", maxUpload),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL %q", c.APIBaseURL)
	}
	if c.Environment != "development" && c.Environment != "production" {
		return fmt.Errorf("invalid environment %q (use development or production)", c.Environment)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.DataPath == "" {
		return errors.New("data path is required")
	}
	if c.DemoFallback && c.DemoSecret == "" {
		return errors.New("demo secret is required when demo fallback is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultDataPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "moneymanager.db"
	}
	return filepath.Join(dir, "moneymanager", "state.db")
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
