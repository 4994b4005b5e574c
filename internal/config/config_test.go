package config_test

import (
	"testing"
	"time"

	"soq/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "postgres://localhost/soq")
	t.Setenv("RATE_LIMIT_PERIOD", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/soq", cfg.PostgresConn)
	require.Equal(t, 30*time.Second, cfg.RateLimitPeriod)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("RATE_LIMIT_LIMIT", "many")

	_, err := config.Load()
	require.Error(t, err)
}

func TestValidateRequiresConnection(t *testing.T) {
	cfg := &config.Config{RateLimitLimit: 1, RateLimitPeriod: time.Second}
	require.Error(t, cfg.Validate())
}
