package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("GATEWAY_BASE_URL", "http://crms.example.com/")
	t.Setenv("SERVER_PORT", "4000")
	t.Setenv("GATEWAY_TIMEOUT", "5s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://crms.example.com", cfg.GatewayBaseURL) // trailing slash trimmed
	assert.Equal(t, "4000", cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_BASE_URL", "http://crms.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, ".state", cfg.StateDir)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingGatewayURL(t *testing.T) {
	t.Setenv("GATEWAY_BASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}
