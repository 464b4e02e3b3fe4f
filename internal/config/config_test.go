package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.WhatsAppSendDelay)
	assert.Equal(t, time.Duration(0), cfg.ReminderInterval)
	assert.Equal(t, "default", cfg.WhatsAppSession)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sacco")
	t.Setenv("WHATSAPP_SEND_DELAY_MS", "250")
	t.Setenv("LOAN_REMINDER_INTERVAL_HOURS", "24")
	t.Setenv("WHATSAPP_GATEWAY_URL", "http://waha:3000/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.WhatsAppSendDelay)
	assert.Equal(t, 24*time.Hour, cfg.ReminderInterval)
	assert.Equal(t, "http://waha:3000", cfg.WhatsAppGatewayURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresSecretInProduction(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sacco")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
