package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	AppName string

	HTTP      HTTPConfig
	Log       LogConfig
	Storage   StorageConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Retention RetentionConfig

	// ShareLinkBaseURL se antepone a /shared/{id} en la respuesta de creación.
	ShareLinkBaseURL string
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type StorageConfig struct {
	Driver   string
	DSN      string
	Migrate  bool
	FilePath string
}

type AuthConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Enabled: sin BaseURL el servicio corre en modo dev (headers X-Debug-*).
func (c AuthConfig) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RetentionConfig: Interval 0 apaga el job de purga.
type RetentionConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
}

// Load arma la config desde env (y CONFIG_FILE si está seteado).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	_ = v.BindEnv("config_file", "CONFIG_FILE")
	_ = v.BindEnv("app_name", "APP_NAME")
	_ = v.BindEnv("http_port", "HTTP_PORT", "PORT")
	_ = v.BindEnv("http_read_timeout", "HTTP_READ_TIMEOUT")
	_ = v.BindEnv("http_write_timeout", "HTTP_WRITE_TIMEOUT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_format", "LOG_FORMAT")
	_ = v.BindEnv("storage_driver", "STORAGE_DRIVER")
	_ = v.BindEnv("db_dsn", "DB_DSN")
	_ = v.BindEnv("db_migrate", "DB_MIGRATE")
	_ = v.BindEnv("storage_file_path", "STORAGE_FILE_PATH")
	_ = v.BindEnv("auth_base_url", "AUTH_BASE_URL")
	_ = v.BindEnv("auth_api_key", "AUTH_API_KEY")
	_ = v.BindEnv("auth_timeout", "AUTH_TIMEOUT")
	_ = v.BindEnv("cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	_ = v.BindEnv("retention_interval", "RETENTION_INTERVAL")
	_ = v.BindEnv("retention_max_age", "RETENTION_MAX_AGE")
	_ = v.BindEnv("share_link_base_url", "SHARE_LINK_BASE_URL")

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		AppName: v.GetString("app_name"),
		HTTP: HTTPConfig{
			Port:         strings.TrimPrefix(strings.TrimSpace(v.GetString("http_port")), ":"),
			ReadTimeout:  v.GetDuration("http_read_timeout"),
			WriteTimeout: v.GetDuration("http_write_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(strings.TrimSpace(v.GetString("storage_driver"))),
			DSN:      strings.TrimSpace(v.GetString("db_dsn")),
			Migrate:  v.GetBool("db_migrate"),
			FilePath: v.GetString("storage_file_path"),
		},
		Auth: AuthConfig{
			BaseURL: strings.TrimSpace(v.GetString("auth_base_url")),
			APIKey:  strings.TrimSpace(v.GetString("auth_api_key")),
			Timeout: v.GetDuration("auth_timeout"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		},
		Retention: RetentionConfig{
			Interval: v.GetDuration("retention_interval"),
			MaxAge:   v.GetDuration("retention_max_age"),
		},
		ShareLinkBaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("share_link_base_url")), "/"),
	}

	// DB_DSN sin driver explícito implica postgres
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
		if cfg.Storage.DSN != "" {
			cfg.Storage.Driver = DriverPostgres
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "family-health-records")
	v.SetDefault("http_port", "8080")
	v.SetDefault("http_read_timeout", 5*time.Second)
	v.SetDefault("http_write_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("db_migrate", true)
	v.SetDefault("storage_file_path", "data/share_grants.yaml")
	v.SetDefault("auth_timeout", 5*time.Second)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("retention_interval", time.Duration(0))
	v.SetDefault("retention_max_age", 720*time.Hour)
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %q requires DB_DSN", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.HTTP.Port == "" {
		return fmt.Errorf("http port is empty")
	}
	if c.Retention.Interval < 0 || c.Retention.MaxAge < 0 {
		return fmt.Errorf("retention durations must not be negative")
	}
	if c.Auth.Enabled() && c.Auth.APIKey == "" {
		return fmt.Errorf("AUTH_BASE_URL requires AUTH_API_KEY")
	}
	return nil
}

// Addr devuelve ":port" para http.Server.
func (c *Config) Addr() string {
	return ":" + c.HTTP.Port
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
