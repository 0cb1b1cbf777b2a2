// Package config loads application configuration from the environment and
// an optional .env file using Viper. Secrets are validated once at startup;
// a missing or shared token secret is fatal, never a per-call error.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                string `mapstructure:"APP_ENV"`
	Port               string `mapstructure:"PORT"`
	DBURL              string `mapstructure:"DB_URL"`
	AccessTokenSecret  string `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	AccessExpiryMin    int    `mapstructure:"ACCESS_TOKEN_EXPIRY"`
	RefreshExpiryMin   int    `mapstructure:"REFRESH_TOKEN_EXPIRY"`
	Issuer             string `mapstructure:"JWT_ISSUER"`
	Audience           string `mapstructure:"JWT_AUDIENCE"`
	BcryptCost         int    `mapstructure:"BCRYPT_COST"`

	LoginMaxAttempts  int           `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginWindow       time.Duration `mapstructure:"LOGIN_WINDOW"`
	LimiterPurgeEvery time.Duration `mapstructure:"LIMITER_PURGE_INTERVAL"`
	SessionSweepEvery time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine (e.g. in CI)

	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv-backed values survive
	// Unmarshal.
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("ACCESS_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_TOKEN_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_EXPIRY", 15)     // minutes
	v.SetDefault("REFRESH_TOKEN_EXPIRY", 10080) // minutes, 7 days
	v.SetDefault("JWT_ISSUER", "rush-hrms")
	v.SetDefault("JWT_AUDIENCE", "rush-hrms-api")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_WINDOW", "15m")
	v.SetDefault("LIMITER_PURGE_INTERVAL", "1h")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the startup invariants around secrets and expiries.
func (c *Config) Validate() error {
	if c.DBURL == "" {
		return errors.New("config: DB_URL is required")
	}
	if c.AccessTokenSecret == "" {
		return errors.New("config: ACCESS_TOKEN_SECRET is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("config: REFRESH_TOKEN_SECRET is required")
	}
	// A single secret for both token classes would let a leaked access
	// token forge refresh tokens.
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("config: access and refresh token secrets must differ")
	}
	if c.AccessExpiryMin <= 0 || c.RefreshExpiryMin <= 0 {
		return errors.New("config: token expiries must be positive")
	}
	if c.LoginMaxAttempts <= 0 {
		return errors.New("config: LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.LoginWindow <= 0 {
		return errors.New("config: LOGIN_WINDOW must be positive")
	}

	return nil
}
