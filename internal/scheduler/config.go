package scheduler

import (
	"time"
)

// Config controls scheduler intervals and timeouts.
type Config struct {
	RunInterval    time.Duration
	AccrualTimeout time.Duration
	BatchSize      int
	EnabledJobs    []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    time.Hour,
		AccrualTimeout: 10 * time.Minute,
		BatchSize:      50,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.AccrualTimeout <= 0 {
		c.AccrualTimeout = defaults.AccrualTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}
