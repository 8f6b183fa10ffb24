package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:8000/api", cfg.Upstream.BaseURL)
	assert.Equal(t, "http://localhost:8000/api/auth/jwt", cfg.Upstream.AuthURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.WorkflowTTL)
	assert.Equal(t, "@every 1m", cfg.Sessions.SweepSpec)
	assert.Equal(t, 1000, cfg.Booking.NotesMaxLength)
	assert.Equal(t, "UTC", cfg.Booking.Timezone)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "dev_secret", cfg.Links.Secret)
	assert.Equal(t, time.Hour, cfg.Links.TTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("UPSTREAM_BASE_URL", "https://career.example.edu/api/")
	v.Set("UPSTREAM_AUTH_URL", "https://sso.example.edu/jwt/")
	v.Set("WORKFLOW_SESSION_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example.edu , ,https://b.example.edu")
	v.Set("LINK_SECRET", "links-only")
	v.Set("PUBLIC_BASE_URL", "https://book.example.edu/")

	cfg := fromViper(v)

	assert.Equal(t, "https://career.example.edu/api", cfg.Upstream.BaseURL)
	assert.Equal(t, "https://sso.example.edu/jwt", cfg.Upstream.AuthURL)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.WorkflowTTL)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "links-only", cfg.Links.Secret)
	assert.Equal(t, "https://book.example.edu", cfg.Links.PublicBaseURL)
}
