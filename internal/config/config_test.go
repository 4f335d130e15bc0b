package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("ASSIGN_WORKERS", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 0, cfg.AssignWorkers)
	assert.Equal(t, 30, cfg.ExpiryWarnDays)
	assert.Equal(t, 15*time.Minute, cfg.PresignTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://fleet@localhost/fleet")
	t.Setenv("ASSIGN_WORKERS", "4")
	t.Setenv("PRESIGN_TTL", "2m")
	t.Setenv("MAX_CONNS", "not-a-number")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.AssignWorkers)
	assert.Equal(t, 2*time.Minute, cfg.PresignTTL)
	assert.Equal(t, 256, cfg.MaxConns)
	assert.False(t, cfg.Development())
}
