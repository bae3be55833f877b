package lesson

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied to zero-valued Config fields.
const (
	DefaultTrackInterval      = time.Second
	DefaultGuardInterval      = 250 * time.Millisecond
	DefaultSeekTolerance      = 3 * time.Second
	DefaultSkipStep           = 10 * time.Second
	DefaultDurationRetries    = 5
	DefaultDurationRetryDelay = 100 * time.Millisecond
	DefaultCommandRetries     = 3
	DefaultCommandRetryDelay  = 150 * time.Millisecond
)

// Config holds per-lesson engine settings.
type Config struct {
	// CompletionThreshold is the actual-watched percentage (0-100] at
	// which the lesson counts as complete. It has no default: lesson
	// policies differ and must say which one applies.
	CompletionThreshold float64

	TrackInterval      time.Duration
	GuardInterval      time.Duration
	SeekTolerance      time.Duration
	SkipStep           time.Duration
	DurationRetries    int
	DurationRetryDelay time.Duration
	CommandRetries     int
	CommandRetryDelay  time.Duration
}

// DefaultConfig returns a Config with every default set and the given threshold.
func DefaultConfig(threshold float64) Config {
	return Config{CompletionThreshold: threshold}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.TrackInterval <= 0 {
		c.TrackInterval = DefaultTrackInterval
	}
	if c.GuardInterval <= 0 {
		c.GuardInterval = DefaultGuardInterval
	}
	if c.SeekTolerance <= 0 {
		c.SeekTolerance = DefaultSeekTolerance
	}
	if c.SkipStep <= 0 {
		c.SkipStep = DefaultSkipStep
	}
	if c.DurationRetries <= 0 {
		c.DurationRetries = DefaultDurationRetries
	}
	if c.DurationRetryDelay <= 0 {
		c.DurationRetryDelay = DefaultDurationRetryDelay
	}
	if c.CommandRetries <= 0 {
		c.CommandRetries = DefaultCommandRetries
	}
	if c.CommandRetryDelay <= 0 {
		c.CommandRetryDelay = DefaultCommandRetryDelay
	}
	return c
}

// Validate checks the config after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.CompletionThreshold <= 0 || c.CompletionThreshold > 100 {
		return fmt.Errorf("completion threshold %v: must be in (0, 100]", c.CompletionThreshold)
	}
	// Legitimate playback runs ahead of the last tracker sample by up to
	// one interval at top speed; the guard must not mistake that for a skip.
	if lead := time.Duration(float64(c.TrackInterval) * MaxPlaybackRate); c.SeekTolerance <= lead {
		return fmt.Errorf("seek tolerance %v must exceed %v (track interval at %vx)",
			c.SeekTolerance, lead, MaxPlaybackRate)
	}
	if c.GuardInterval > c.TrackInterval {
		return errors.New("guard interval must not exceed track interval")
	}
	return nil
}
