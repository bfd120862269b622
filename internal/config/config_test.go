package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "5175", cfg.Server.Port)
	assert.Equal(t, ":5175", cfg.Addr())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 8, cfg.Game.PairCount)
	assert.Equal(t, 800*time.Millisecond, cfg.Game.RollbackDelay())
	assert.Equal(t, 50*time.Millisecond, cfg.Game.TickInterval())
	assert.Equal(t, 20, cfg.Leaderboard.Limit)
	assert.Equal(t, uint(4), cfg.Client.RetryMaxTries)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "warn", cfg.Client.LogLevel)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ROLLBACK_DELAY_MS", "1200")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("CLIENT_LOG_LEVEL", "debug")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 1200*time.Millisecond, cfg.Game.RollbackDelay())
	assert.Equal(t, 3*time.Second, cfg.Client.HTTPTimeout)
	assert.Equal(t, "debug", cfg.Client.LogLevel)
}

func TestParse_InvalidValue(t *testing.T) {
	t.Setenv("PAIR_COUNT", "many")
	_, err := Parse()
	assert.Error(t, err)
}

func TestParse_GameBounds(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PAIR_COUNT", "0"},
		{"PAIR_COUNT", "129"},
		{"PAIR_COUNT", "4611686018427387904"},
		{"ROLLBACK_DELAY_MS", "-1"},
		{"TICK_INTERVAL_MS", "-50"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}

	t.Setenv("PAIR_COUNT", "128")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Game.PairCount)
}
