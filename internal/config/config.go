package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Application settings
	Port       string `envconfig:"PORT" default:"8080"`
	GinMode    string `envconfig:"GIN_MODE" default:"debug"`
	BaseURL    string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	MongodbURL string `envconfig:"MONGODB_URL" required:"true"`
	MongodbDB  string `envconfig:"MONGODB_DB" default:"bandlink"`

	// Optional: when unset the in-memory cache is used instead.
	ValkeyURL string `envconfig:"VALKEY_URL"`

	// Source-of-truth catalog credentials (client-credentials grant).
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`

	// Aggregation lookup service (song.link).
	SonglinkAPIKey        string `envconfig:"SONGLINK_API_KEY"`
	SonglinkRatePerMinute int    `envconfig:"SONGLINK_RATE_PER_MINUTE" default:"10"`

	// Optional Apple Music developer credentials for the supplementary
	// catalog lookup. All three must be set for the service to be enabled.
	AppleMusicKeyID   string `envconfig:"APPLE_MUSIC_KEY_ID"`
	AppleMusicTeamID  string `envconfig:"APPLE_MUSIC_TEAM_ID"`
	AppleMusicKeyFile string `envconfig:"APPLE_MUSIC_KEY_FILE"`

	// Verification engine settings.
	VerifySchedule       string `envconfig:"VERIFY_SCHEDULE" default:"0 3 * * *"`
	VerifyBatchSize      int    `envconfig:"VERIFY_BATCH_SIZE" default:"200"`
	VerifyConcurrency    int    `envconfig:"VERIFY_CONCURRENCY" default:"12"`
	VerifyTimeoutSeconds int    `envconfig:"VERIFY_TIMEOUT_SECONDS" default:"5"`
}

// ConfigError marks a missing or invalid credential. It is fatal at startup:
// the process must refuse to run rather than silently degrade.
type ConfigError struct {
	Var    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Var, e.Reason)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SpotifyClientID == "" || c.SpotifyClientSecret == "" {
		return &ConfigError{
			Var:    "SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET",
			Reason: "required for canonical identity resolution",
		}
	}
	if c.SonglinkAPIKey == "" {
		return &ConfigError{
			Var:    "SONGLINK_API_KEY",
			Reason: "required for cross-platform link expansion",
		}
	}
	if c.VerifyBatchSize <= 0 {
		return &ConfigError{Var: "VERIFY_BATCH_SIZE", Reason: "must be positive"}
	}
	if c.VerifyConcurrency <= 0 {
		return &ConfigError{Var: "VERIFY_CONCURRENCY", Reason: "must be positive"}
	}
	return nil
}

// AppleMusicEnabled reports whether the supplementary Apple Music lookup is
// fully configured.
func (c *Config) AppleMusicEnabled() bool {
	return c.AppleMusicKeyID != "" && c.AppleMusicTeamID != "" && c.AppleMusicKeyFile != ""
}
