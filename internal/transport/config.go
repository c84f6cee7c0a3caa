package transport

import "time"

// BackoffConfig defines the wait between failed attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines the remote endpoint and retry policy.
type Config struct {
	BaseURL     string
	CandidateID string

	// MaxRetries is the total number of attempts per operation.
	MaxRetries     int
	AttemptTimeout time.Duration
	Backoff        BackoffConfig
}

// DefaultConfig returns the retry policy the megaverse API tolerates:
// three attempts, 1s/2s/4s backoff, 10s per attempt.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://challenge.crossmint.io/api",
		MaxRetries:     3,
		AttemptTimeout: 10 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: time.Second,
			Multiplier:   2.0,
		},
	}
}

// WithDefaults fills zero-valued policy fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = def.AttemptTimeout
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = def.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier < 1.0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	return c
}
