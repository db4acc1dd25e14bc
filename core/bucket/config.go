package bucket

import "time"

// RetryConfig holds configuration for the retry executor and worker pool.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `mapstructure:"max_retries" default:"5"`
	// InitialBackoff is the sleep before the first retry.
	InitialBackoff time.Duration `mapstructure:"initial_backoff" default:"1s"`
	// MaxBackoff caps the doubling backoff.
	MaxBackoff time.Duration `mapstructure:"max_backoff" default:"16s"`
	// Workers bounds how many backend calls run at once.
	Workers int `mapstructure:"workers" default:"32"`
}

// withDefaults fills zero values so a bare RetryConfig{} is usable.
func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 16 * time.Second
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.Workers <= 0 {
		c.Workers = 32
	}
	return c
}
