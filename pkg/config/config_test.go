package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 7*24*time.Hour, cfg.Documents.ReservationTTL)
	assert.Equal(t, 30, cfg.RateLimit.Critical)
	assert.Equal(t, 100, cfg.RateLimit.Default)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "0 0 2 * * *", cfg.Maintenance.Schedule)
	assert.Len(t, cfg.Uploads.AllowedMIMEs, 4)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DOCUMENT_RESERVATION_TTL", "48h")
	v.Set("RATE_LIMIT_WINDOW", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, 48*time.Hour, cfg.Documents.ReservationTTL)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
