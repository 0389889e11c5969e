// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	DBPath         string
	ChallengesPath string // empty = bundled dataset
	SpinDelay      time.Duration
	SessionTTL     time.Duration
	SweepInterval  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	spinDelay, spinErr := getEnvDuration("SPIN_DELAY", 2500*time.Millisecond)
	sessionTTL, ttlErr := getEnvDuration("SESSION_TTL", 30*time.Minute)
	sweepInterval, sweepErr := getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute)
	if err := errors.Join(spinErr, ttlErr, sweepErr); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/wheel.db"),
		ChallengesPath: getEnv("CHALLENGES_PATH", ""),
		SpinDelay:      spinDelay,
		SessionTTL:     sessionTTL,
		SweepInterval:  sweepInterval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SpinDelay <= 0 {
		return fmt.Errorf("SPIN_DELAY must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the API.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvDuration accepts Go durations ("2.5s") or bare milliseconds ("2500").
// An unset or blank variable yields fallback; anything unparsable is an error.
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}
