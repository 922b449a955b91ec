package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"MONEYMANAGER_ENV", "MONEYMANAGER_API_URL", "MONEYMANAGER_REQUEST_TIMEOUT",
		"MONEYMANAGER_DATA_PATH", "MONEYMANAGER_DEMO_FALLBACK", "MONEYMANAGER_DEMO_SECRET",
		"MONEYMANAGER_VERBOSE", "MONEYMANAGER_MAX_UPLOAD_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.DemoFallback, "demo accounts are on in development")
	assert.Equal(t, int64(10<<20), cfg.MaxUploadSize)
	assert.NotEmpty(t, cfg.DataPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProductionDisablesDemo(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONEYMANAGER_ENV", "production")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.DemoFallback)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONEYMANAGER_API_URL", "https://money.example.com/api")
	t.Setenv("MONEYMANAGER_REQUEST_TIMEOUT", "5s")
	t.Setenv("MONEYMANAGER_DEMO_FALLBACK", "false")
	t.Setenv("MONEYMANAGER_VERBOSE", "true")
	t.Setenv("MONEYMANAGER_MAX_UPLOAD_SIZE", "1024")

	cfg := Load()
	assert.Equal(t, "https://money.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.DemoFallback)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, int64(1024), cfg.MaxUploadSize)
}

func TestLoad_IgnoresMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONEYMANAGER_REQUEST_TIMEOUT", "soon")
	t.Setenv("MONEYMANAGER_VERBOSE", "maybe")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Verbose)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "moneymanager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_base_url: https://file.example.com/api
environment: production
request_timeout: 10s
demo_fallback: true
verbose: true
data_path: /tmp/mm/state.db
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com/api", cfg.APIBaseURL)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.DemoFallback, "explicit file setting wins over environment default")
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/tmp/mm/state.db", cfg.DataPath)
}

func TestLoadFile_EnvTakesPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "moneymanager.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: https://file.example.com/api\n"), 0o600))
	t.Setenv("MONEYMANAGER_API_URL", "https://env.example.com/api")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/api", cfg.APIBaseURL)
}

func TestLoadFile_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: [unterminated"), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIBaseURL:     "http://localhost:8000/api",
			RequestTimeout: time.Second,
			Environment:    "development",
			DataPath:       "state.db",
			DemoFallback:   true,
			DemoSecret:     "secret",
			MaxUploadSize:  1,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"bad url", func(c *Config) { c.APIBaseURL = "localhost:8000" }, false},
		{"bad scheme", func(c *Config) { c.APIBaseURL = "ftp://host/api" }, false},
		{"bad environment", func(c *Config) { c.Environment = "staging" }, false},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, false},
		{"zero upload", func(c *Config) { c.MaxUploadSize = 0 }, false},
		{"no data path", func(c *Config) { c.DataPath = "" }, false},
		{"demo without secret", func(c *Config) { c.DemoSecret = "" }, false},
		{"no demo no secret", func(c *Config) { c.DemoFallback = false; c.DemoSecret = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
