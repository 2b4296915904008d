// Package config loads the storefront configuration with viper.
// Values come from an optional config.yaml and are overridden by environment
// variables (DATABASE_HOST, PI_API_KEY, SMTP_HOST, ...).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Pi       PiConfig       `mapstructure:"pi"`
	Price    PriceConfig    `mapstructure:"price"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds the gorm connection settings. Driver is "postgres" or "mysql".
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	Seed        bool   `mapstructure:"seed"`
}

type PiConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
}

type PriceConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	APIKey          string        `mapstructure:"api_key"`
	TTL             time.Duration `mapstructure:"ttl"`
	FallbackUSD     string        `mapstructure:"fallback_usd"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	HistoryKeep     time.Duration `mapstructure:"history_keep"`
}

type SMTPConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	From       string `mapstructure:"from"`
	AdminEmail string `mapstructure:"admin_email"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// AdminConfig bootstraps the first admin account when the admins table is empty.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type JobsConfig struct {
	StalePendingAfter time.Duration `mapstructure:"stale_pending_after"`
	ReconcileAfter    time.Duration `mapstructure:"reconcile_after"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DSN returns the driver specific connection string.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// Fallback returns the last-resort Pi price in USD.
func (p *PriceConfig) Fallback() decimal.Decimal {
	v, err := decimal.NewFromString(p.FallbackUSD)
	if err != nil || !v.IsPositive() {
		return decimal.RequireFromString(defaultFallbackUSD)
	}
	return v
}

const defaultFallbackUSD = "0.5"

// Load reads config.yaml from configPath (optional) and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Price.TTL <= 0 {
		return errors.New("price.ttl must be positive")
	}
	return nil
}

// every key needs a default so AutomaticEnv can override it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.cors_origins", "*")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "b4u")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "b4u")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", true)

	v.SetDefault("pi.api_url", "https://api.minepi.com")
	v.SetDefault("pi.api_key", "")

	v.SetDefault("price.api_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("price.api_key", "")
	v.SetDefault("price.ttl", "60s")
	v.SetDefault("price.fallback_usd", defaultFallbackUSD)
	v.SetDefault("price.refresh_interval", "5m")
	v.SetDefault("price.timeout", "10s")
	v.SetDefault("price.history_keep", "720h")

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "B4U Esports <no-reply@b4uesports.com>")
	v.SetDefault("smtp.admin_email", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")

	v.SetDefault("jobs.stale_pending_after", "2h")
	v.SetDefault("jobs.reconcile_after", "15m")
	v.SetDefault("jobs.sweep_interval", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
