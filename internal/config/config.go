package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Catalog  CatalogConfig
	Alerts   AlertsConfig
}

type AppConfig struct {
	Env         string
	HTTPPort    string
	CORSOrigins []string // space separated in the environment
}

type DatabaseConfig struct {
	Driver       string // sqlite or pgx
	DSN          string
	MaxOpenConns int
}

type AuthConfig struct {
	Secret        string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string
}

type LogConfig struct {
	Level  string
	Format string // json or console
	Output string // stdout, stderr or a file path
}

type CatalogConfig struct {
	SeedPath string
}

type AlertsConfig struct {
	ExpiryDays int
	Schedule   string
	Timezone   string
}

// Load reads configuration from an optional config.yaml and PHARMA_* environment
// variables, environment taking precedence, then fills in defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("PHARMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		App: AppConfig{
			Env:         v.GetString("app.env"),
			HTTPPort:    v.GetString("app.port"),
			CORSOrigins: v.GetStringSlice("app.cors_origins"),
		},
		Database: DatabaseConfig{
			Driver:       v.GetString("database.driver"),
			DSN:          v.GetString("database.dsn"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
		Auth: AuthConfig{
			Secret:        v.GetString("auth.secret"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
			AdminUsername: v.GetString("auth.admin_username"),
			AdminPassword: v.GetString("auth.admin_password"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Catalog: CatalogConfig{
			SeedPath: v.GetString("catalog.seed_path"),
		},
		Alerts: AlertsConfig{
			ExpiryDays: v.GetInt("alerts.expiry_days"),
			Schedule:   v.GetString("alerts.schedule"),
			Timezone:   v.GetString("alerts.timezone"),
		},
	}

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.HTTPPort == "" {
		cfg.App.HTTPPort = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "file:pharmacy.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev_secret"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.Auth.AdminUsername == "" {
		cfg.Auth.AdminUsername = "admin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Alerts.ExpiryDays == 0 {
		cfg.Alerts.ExpiryDays = 30
	}
	if cfg.Alerts.Schedule == "" {
		cfg.Alerts.Schedule = "@daily"
	}
	if cfg.Alerts.Timezone == "" {
		cfg.Alerts.Timezone = "Local"
	}
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("database.driver must be sqlite or pgx, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required for the pgx driver")
	}
	if c.App.Env == "production" && c.Auth.Secret == "dev_secret" {
		return errors.New("auth.secret must be set in production")
	}
	if c.Alerts.ExpiryDays < 0 {
		return fmt.Errorf("alerts.expiry_days must not be negative, got %d", c.Alerts.ExpiryDays)
	}
	if _, err := time.LoadLocation(c.Alerts.Timezone); err != nil {
		return fmt.Errorf("alerts.timezone: %w", err)
	}
	return nil
}
