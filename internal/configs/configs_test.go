package configs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ENVIRONMENT", "PORT", "POW_DIFFICULTY", "ALLOWED_ORIGINS", "MAX_MESSAGE_BYTES"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 4, cfg.PowDifficulty)
	require.Empty(t, cfg.AllowedOrigins)
	require.Equal(t, int64(65536), cfg.MaxMessageBytes)
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "not-a-number")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("PORT", "80")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsNegativeDifficulty(t *testing.T) {
	clearEnv(t)
	t.Setenv("POW_DIFFICULTY", "-1")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsTinyMessageLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_MESSAGE_BYTES", "100")

	_, err := LoadConfig()
	require.Error(t, err)
}
