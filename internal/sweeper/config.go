package sweeper

import "time"

// Config controls sweep cadence and the per-pass timeout.
type Config struct {
	RunInterval time.Duration
	PassTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 24 * time.Hour,
		PassTimeout: 10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.PassTimeout <= 0 {
		c.PassTimeout = defaults.PassTimeout
	}
	return c
}
