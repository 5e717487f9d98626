package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Database: DatabaseConfig{Driver: "sqlite"},
		JWT: JWTConfig{
			Secret:             defaultJWTSecret,
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Auth: AuthConfig{BcryptCost: 10},
		CORS: CORSConfig{Origins: []string{DefaultCORSOrigin}},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"default secret in production", func(c *Config) { c.App.Environment = "production" }},
		{"zero access expiry", func(c *Config) { c.JWT.AccessTokenExpiry = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 3 }},
		{"no cors origins", func(c *Config) { c.CORS.Origins = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetEnvAsListIgnoresBlankEntries(t *testing.T) {
	t.Setenv("CORS_ORIGIN", " , ")
	assert.Equal(t, []string{DefaultCORSOrigin}, getEnvAsList("CORS_ORIGIN", []string{DefaultCORSOrigin}))

	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvAsList("CORS_ORIGIN", nil))
}
