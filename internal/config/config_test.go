package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	t.Setenv("SONGLINK_API_KEY", "songlink-key")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "bandlink", cfg.MongodbDB)
	assert.Equal(t, "0 3 * * *", cfg.VerifySchedule)
	assert.Equal(t, 200, cfg.VerifyBatchSize)
	assert.Equal(t, 12, cfg.VerifyConcurrency)
	assert.Equal(t, 10, cfg.SonglinkRatePerMinute)
	assert.False(t, cfg.AppleMusicEnabled())
}

func TestLoadMissingSpotifyCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Var, "SPOTIFY_CLIENT_ID")
}

func TestLoadMissingSonglinkKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SONGLINK_API_KEY", "")

	_, err := Load()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SONGLINK_API_KEY", cfgErr.Var)
}

func TestLoadInvalidBatchSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VERIFY_BATCH_SIZE", "0")

	_, err := Load()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "VERIFY_BATCH_SIZE", cfgErr.Var)
}

func TestAppleMusicEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APPLE_MUSIC_KEY_ID", "key-id")
	t.Setenv("APPLE_MUSIC_TEAM_ID", "team-id")
	t.Setenv("APPLE_MUSIC_KEY_FILE", "/etc/apple/AuthKey.p8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AppleMusicEnabled())
}
