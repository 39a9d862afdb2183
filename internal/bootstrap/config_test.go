package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_NAME", "meet")
	t.Setenv("DB_USER", "meet")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "az:", cfg.KeyPrefix)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24, cfg.JWTExpiryHours)
	assert.Equal(t, 50, cfg.RoomMaxParticipants)
	assert.Equal(t, 24*time.Hour, cfg.RoomIdleTimeout)
	assert.Equal(t, time.Second, cfg.RateLimitWindow)
	assert.False(t, cfg.FanoutEnabled)
	assert.NotEmpty(t, cfg.NodeID)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ROOM_MAX_PARTICIPANTS", "8")
	t.Setenv("ROOM_IDLE_TIMEOUT", "30m")
	t.Setenv("FANOUT_ENABLED", "true")
	t.Setenv("NODE_ID", "node-a")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.RoomMaxParticipants)
	assert.Equal(t, 30*time.Minute, cfg.RoomIdleTimeout)
	assert.True(t, cfg.FanoutEnabled)
	assert.Equal(t, "node-a", cfg.NodeID)
	assert.Equal(t, "info", cfg.LogLevel, "非法日志级别回退为 info")
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()

	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadConfig_InvalidNumber(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_MAX", "many")

	_, err := LoadConfig()

	assert.ErrorContains(t, err, "RATE_LIMIT_MAX")
}
