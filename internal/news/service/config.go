package service

import "time"

// Config holds configuration for the news service.
type Config struct {
	// Interval is how often the generator rolls for a new shock.
	Interval time.Duration
	// ShockProbability is the per-roll chance a shock is published.
	ShockProbability float64
	// TapeSize is the capacity of the news ring buffer.
	TapeSize int
	// EventBuffer is the size of the external events channel.
	EventBuffer int
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Interval:         15 * time.Second,
		ShockProbability: 0.35,
		TapeSize:         100,
		EventBuffer:      64,
		DropEvents:       true,
	}
}
