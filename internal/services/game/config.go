package game

import "time"

// Config holds the match timing and capacity settings
type Config struct {
	RoundDuration       time.Duration
	GracePeriod         time.Duration
	Countdown           time.Duration
	MaxPlayers          int
	MaxUpdatesPerSecond float64
}

// DefaultConfig returns the standard match settings
func DefaultConfig() Config {
	return Config{
		RoundDuration:       60 * time.Second,
		GracePeriod:         3 * time.Second,
		Countdown:           3 * time.Second,
		MaxPlayers:          8,
		MaxUpdatesPerSecond: 4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RoundDuration <= 0 {
		c.RoundDuration = d.RoundDuration
	}
	if c.GracePeriod < 0 {
		c.GracePeriod = d.GracePeriod
	}
	if c.Countdown < 0 {
		c.Countdown = d.Countdown
	}
	if c.MaxPlayers < 2 {
		c.MaxPlayers = d.MaxPlayers
	}
	return c
}
