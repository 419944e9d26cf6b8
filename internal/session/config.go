package session

import "time"

// BackoffConfig defines delay growth between attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines transport and session timing.
type Config struct {
	ConnectTimeout time.Duration
	// ReadTimeout bounds the first read of each drain while no binary window is outstanding.
	ReadTimeout time.Duration
	// WindowReadTimeout replaces ReadTimeout while a skip or capture window is outstanding.
	WindowReadTimeout time.Duration
	// DrainTimeout bounds follow-up reads that collect whatever else is already available.
	DrainTimeout time.Duration
	WriteTimeout time.Duration
	// MaxIdleReads consecutive empty drains while a binary window is
	// outstanding end the session as stalled.
	MaxIdleReads int
	ReadChunk    int
	// MaxDrainBytes caps one drain so a flooding server cannot starve frame handling.
	MaxDrainBytes int
}

// DefaultConfig returns the stress client defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:    5 * time.Second,
		ReadTimeout:       250 * time.Millisecond,
		WindowReadTimeout: time.Second,
		DrainTimeout:      time.Millisecond,
		WriteTimeout:      5 * time.Second,
		MaxIdleReads:      30,
		ReadChunk:         512,
		MaxDrainBytes:     64 * 512,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WindowReadTimeout <= 0 {
		c.WindowReadTimeout = d.WindowReadTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = d.DrainTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MaxIdleReads <= 0 {
		c.MaxIdleReads = d.MaxIdleReads
	}
	if c.ReadChunk <= 0 {
		c.ReadChunk = d.ReadChunk
	}
	if c.MaxDrainBytes <= 0 {
		c.MaxDrainBytes = d.MaxDrainBytes
	}
	if c.MaxDrainBytes < c.ReadChunk {
		c.MaxDrainBytes = c.ReadChunk
	}
	return c
}
