package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amato-app/accounts/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)

	require.Equal(t, "accounts-test", cfg.Auth.Issuer)
	require.Equal(t, "activation-secret", cfg.Auth.Activation.Secret)
	require.Equal(t, 10*time.Minute, cfg.Auth.Activation.TTL)
	require.Equal(t, 30*time.Minute, cfg.Auth.Access.TTL)
	require.Equal(t, 1440*time.Hour, cfg.Auth.Refresh.TTL)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, "smtp-user", cfg.Email.SMTP.Username)
	require.Equal(t, "smtp-pass", cfg.Email.SMTP.Password)
	require.Equal(t, "no-reply@example.com", cfg.Email.SMTP.From)
	require.True(t, cfg.Email.SMTP.UseTLS)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.Equal(t, 5*time.Minute, cfg.Auth.Activation.TTL)
	require.Equal(t, 15*time.Minute, cfg.Auth.Access.TTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.Refresh.TTL)
	require.False(t, cfg.Email.SMTP.Enabled)
}

func TestTokenServiceConfigAdapter(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{
			Issuer:     "issuer",
			Activation: TokenSettings{Secret: "act", TTL: 5 * time.Minute},
			Access:     TokenSettings{Secret: "acc", TTL: 30 * time.Minute},
			Refresh:    TokenSettings{Secret: "ref", TTL: 10 * time.Hour},
		},
	}

	require.Equal(t, auth.Config{
		Issuer:     "issuer",
		Activation: auth.SecretTTL{Secret: "act", TTL: 5 * time.Minute},
		Access:     auth.SecretTTL{Secret: "acc", TTL: 30 * time.Minute},
		Refresh:    auth.SecretTTL{Secret: "ref", TTL: 10 * time.Hour},
	}, cfg.TokenServiceConfig())
}

func TestSMTPSettingsAdapter(t *testing.T) {
	cfg := Config{
		Email: EmailConfig{
			SMTP: SMTPConfig{
				Enabled:  true,
				Host:     "smtp.example.com",
				Port:     2525,
				Username: "user",
				Password: "pass",
				From:     "no-reply@example.com",
				UseTLS:   true,
				Timeout:  10 * time.Second,
			},
		},
	}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "user", settings.Username)
	require.Equal(t, "pass", settings.Password)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.True(t, settings.UseTLS)
	require.Equal(t, 10*time.Second, settings.Timeout)
}

func TestDatabaseSettingsAdapter(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{
			Driver: "postgres",
			Postgres: DBAuthConfig{
				Host:     "db.example.com",
				Port:     5433,
				Database: "accounts",
				Username: "accounts",
				Password: "s3cret",
			},
		},
	}

	settings := cfg.DatabaseSettings()
	require.Equal(t, "postgres", settings.Driver)
	require.Equal(t, "db.example.com", settings.Host)
	require.Equal(t, 5433, settings.Port)
	require.Equal(t, "accounts", settings.Name)
	require.Equal(t, "accounts", settings.User)
	require.Equal(t, "s3cret", settings.Password)
}
