package service

import "time"

// Config controls billing run pacing.
type Config struct {
	RunInterval time.Duration
	Currency    string
	// DueInDays is added to the billing period end to produce the invoice
	// due date.
	DueInDays int
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		Currency:    "USD",
		DueInDays:   3,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.Currency == "" {
		c.Currency = defaults.Currency
	}
	if c.DueInDays <= 0 {
		c.DueInDays = defaults.DueInDays
	}
	return c
}
