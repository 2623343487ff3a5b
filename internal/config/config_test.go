package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "APP_NAME", "HTTP_PORT", "PORT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
	"LOG_LEVEL", "LOG_FORMAT", "STORAGE_DRIVER", "DB_DSN", "DB_MIGRATE", "STORAGE_FILE_PATH",
	"AUTH_BASE_URL", "AUTH_API_KEY", "AUTH_TIMEOUT", "CORS_ALLOWED_ORIGINS",
	"RETENTION_INTERVAL", "RETENTION_MAX_AGE", "SHARE_LINK_BASE_URL",
}

// viper trata el env vacío como no seteado
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "family-health-records", cfg.AppName)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.True(t, cfg.Storage.Migrate)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Zero(t, cfg.Retention.Interval)
	assert.Equal(t, 720*time.Hour, cfg.Retention.MaxAge)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("DB_DSN", "postgres://u:p@localhost/fhr?sslmode=disable")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RETENTION_INTERVAL", "1h")
	t.Setenv("SHARE_LINK_BASE_URL", "https://share.example.com/")
	t.Setenv("AUTH_BASE_URL", "https://id.example.com")
	t.Setenv("AUTH_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver, "a DSN implies postgres")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.Retention.Interval)
	assert.Equal(t, "https://share.example.com", cfg.ShareLinkBaseURL)
	assert.True(t, cfg.Auth.Enabled())
}

func TestLoad_HTTPPortWinsOverPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.HTTP.Port)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "redis"}},
		{"postgres without dsn", map[string]string{"STORAGE_DRIVER": "postgres"}},
		{"negative retention", map[string]string{"RETENTION_MAX_AGE": "-1h"}},
		{"auth without key", map[string]string{"AUTH_BASE_URL": "https://id.example.com"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/does/not/exist.yaml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_driver: file\nstorage_file_path: /tmp/grants.yaml\nlog_level: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/grants.yaml", cfg.Storage.FilePath)
	assert.Equal(t, "warn", cfg.Log.Level, "env overrides the file")
}
