package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	HTTPPort int    `env:"LOADER_TEST_HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOADER_TEST_LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"LOADER_TEST_BASE_URL" envDefault:"http://localhost:8100"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8100", cfg.BaseURL)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("LOADER_TEST_HTTP_PORT", "9090")
	t.Setenv("LOADER_TEST_LOG_LEVEL", "debug")

	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

type requiredConfig struct {
	APIKey string `env:"LOADER_TEST_API_KEY,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load environment config")
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("LOADER_TEST_HTTP_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load environment config")
}
