package config

import (
	"encoding/base64"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("TEMPORAL_ADDRESS")
	os.Unsetenv("HTTP_LISTEN_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("AWS_CALL_TIMEOUT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:7233", cfg.TemporalAddress)
	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.AWSCallTimeout)
}

func TestLoad_AllEnvVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://core:5432/sentinel")
	t.Setenv("TEMPORAL_ADDRESS", "temporal.example.com:7233")
	t.Setenv("HTTP_LISTEN_ADDR", ":7071")
	t.Setenv("MASTER_KEY", "c2VjcmV0")
	t.Setenv("AWS_CALL_TIMEOUT", "10s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://core:5432/sentinel", cfg.DatabaseURL)
	assert.Equal(t, "temporal.example.com:7233", cfg.TemporalAddress)
	assert.Equal(t, ":7071", cfg.HTTPListenAddr)
	assert.Equal(t, "c2VjcmV0", cfg.MasterKeyB64)
	assert.Equal(t, 10*time.Second, cfg.AWSCallTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("AWS_CALL_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_CALL_TIMEOUT")
}

func TestValidate_CoreAPI_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("core-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "TEMPORAL_ADDRESS")
	assert.Contains(t, err.Error(), "MASTER_KEY")
}

func TestValidate_Worker_Complete(t *testing.T) {
	cfg := &Config{
		DatabaseURL:     "postgres://localhost/sentinel",
		TemporalAddress: "localhost:7233",
		MasterKeyB64:    "a2V5",
	}
	assert.NoError(t, cfg.Validate("worker"))
}

func TestMasterKey_Decodes(t *testing.T) {
	raw := []byte("0123456789abcdef0123456789abcdef")
	cfg := &Config{MasterKeyB64: base64.StdEncoding.EncodeToString(raw)}

	key, err := cfg.MasterKey()
	require.NoError(t, err)
	assert.Equal(t, raw, key)
}

func TestMasterKey_InvalidBase64(t *testing.T) {
	cfg := &Config{MasterKeyB64: "!!not-base64!!"}
	_, err := cfg.MasterKey()
	require.Error(t, err)
}
