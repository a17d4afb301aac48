package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/amato-app/accounts/internal/auth"
	"github.com/amato-app/accounts/internal/database"
	"github.com/amato-app/accounts/pkg/mail"
)

// Config represents the runtime configuration for the accounts service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Email      EmailConfig      `mapstructure:"email"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuthConfig captures all token-related settings.
type AuthConfig struct {
	Issuer     string        `mapstructure:"issuer"`
	Activation TokenSettings `mapstructure:"activation"`
	Access     TokenSettings `mapstructure:"access"`
	Refresh    TokenSettings `mapstructure:"refresh"`
}

// TokenSettings define a signing secret and lifetime for one token class.
type TokenSettings struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("ACCOUNTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// TokenServiceConfig converts the auth section into a token service configuration.
func (c *Config) TokenServiceConfig() auth.Config {
	return auth.Config{
		Issuer:     c.Auth.Issuer,
		Activation: auth.SecretTTL{Secret: c.Auth.Activation.Secret, TTL: c.Auth.Activation.TTL},
		Access:     auth.SecretTTL{Secret: c.Auth.Access.Secret, TTL: c.Auth.Access.TTL},
		Refresh:    auth.SecretTTL{Secret: c.Auth.Refresh.Secret, TTL: c.Auth.Refresh.TTL},
	}
}

// SMTPSettings converts the email section into mailer settings.
func (c *Config) SMTPSettings() mail.SMTPSettings {
	s := c.Email.SMTP
	return mail.SMTPSettings{
		Enabled:  s.Enabled,
		Host:     s.Host,
		Port:     s.Port,
		Username: s.Username,
		Password: s.Password,
		From:     s.From,
		UseTLS:   s.UseTLS,
		Timeout:  s.Timeout,
	}
}

// DatabaseSettings converts the database section into connection options.
func (c *Config) DatabaseSettings() database.Config {
	d := c.Database
	cfg := database.Config{
		Driver: d.Driver,
		Path:   d.Path,
		DSN:    d.DSN,
	}
	switch strings.ToLower(d.Driver) {
	case "postgres", "postgresql":
		cfg.Host = d.Postgres.Host
		cfg.Port = d.Postgres.Port
		cfg.Name = d.Postgres.Database
		cfg.User = d.Postgres.Username
		cfg.Password = d.Postgres.Password
	case "mysql", "mariadb":
		cfg.Host = d.MySQL.Host
		cfg.Port = d.MySQL.Port
		cfg.Name = d.MySQL.Database
		cfg.User = d.MySQL.Username
		cfg.Password = d.MySQL.Password
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/accounts.sqlite")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("auth.issuer", "accounts")
	v.SetDefault("auth.activation.ttl", "5m")
	v.SetDefault("auth.access.ttl", "15m")
	v.SetDefault("auth.refresh.ttl", "720h") // 30 days

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
