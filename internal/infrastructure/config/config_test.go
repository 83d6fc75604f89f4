package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "nanoid", cfg.Store.IDGenerator)
	assert.Equal(t, 10, cfg.Store.IDLength)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Security.RateLimitEnabled)
	assert.Equal(t, "development", cfg.App.Environment)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "5050")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ID_GENERATOR", "hex")
	t.Setenv("ID_LENGTH", "12")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "hex", cfg.Store.IDGenerator)
	assert.Equal(t, 12, cfg.Store.IDLength)
	assert.Equal(t, 30*time.Second, cfg.Security.RateLimitWindow)
}

func TestLoad_ServerPortWinsOverPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "6060")
	t.Setenv("PORT", "5050")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "verbose"}},
		{name: "unknown id generator", env: map[string]string{"ID_GENERATOR": "sequential"}},
		{name: "file output without filename", env: map[string]string{"LOG_OUTPUT": "file"}},
		{name: "nanoid too short", env: map[string]string{"ID_LENGTH": "1"}},
		{name: "unknown environment", env: map[string]string{"APP_ENVIRONMENT": "qa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestSecurityConfig_AllowedOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "*", want: []string{"*"}},
		{raw: "", want: []string{"*"}},
		{raw: "http://localhost:5173, https://tasks.example.com", want: []string{"http://localhost:5173", "https://tasks.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cfg := SecurityConfig{CORSAllowedOrigins: tt.raw}
			assert.Equal(t, tt.want, cfg.AllowedOrigins())
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 4000}
	assert.Equal(t, "127.0.0.1:4000", cfg.Address())
}
