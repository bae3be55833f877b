package lesson

import (
	"slices"
	"time"
)

// Playback rates the provider accepts.
const (
	MinPlaybackRate = 0.25
	MaxPlaybackRate = 2.0
)

var supportedRates = []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

// ResumeHint tells a new session where a returning learner left off.
// It is usually built from the caller's persisted progress record.
type ResumeHint struct {
	// InitialProgressPercentage is the last reported watch position as a
	// percentage of duration.
	InitialProgressPercentage float64
	// InitialPosition is an exact timestamp and wins over the percentage
	// when positive.
	InitialPosition time.Duration
	// ExternalActualPercentage is the server's record of the furthest
	// verified position. It may exceed anything seen locally.
	ExternalActualPercentage float64
}

// Session is the state of one lesson viewing. Values returned by
// Engine.Snapshot are copies.
type Session struct {
	Phase Phase

	CurrentTime time.Duration
	Duration    time.Duration // 0 until the player reports it
	MaxWatched  time.Duration // never decreases

	WatchPercentage  float64
	ActualPercentage float64 // never decreases
	// ExternalActualPercentage is the hint's server-side furthest progress.
	ExternalActualPercentage float64

	IsPlaying        bool
	HasCompletedOnce bool

	PlaybackRate float64
	Volume       int
	IsMuted      bool

	// Scrubbing is true between BeginScrub and EndScrub; ScrubPosition is
	// the clamped preview shown while dragging.
	Scrubbing     bool
	ScrubPosition time.Duration
}

func newSession(hint ResumeHint) Session {
	ext := clampPercent(hint.ExternalActualPercentage)
	return Session{
		Phase:                    PhaseUninitialized,
		ExternalActualPercentage: ext,
		ActualPercentage:         ext,
		PlaybackRate:             1,
		Volume:                   100,
	}
}

// ExternalActualTime converts the server-side furthest percentage to a
// position. Zero while duration is unknown.
func (s *Session) ExternalActualTime() time.Duration {
	return percentToTime(s.ExternalActualPercentage, s.Duration)
}

// EffectiveMax is the furthest position the learner may reach.
func (s *Session) EffectiveMax() time.Duration {
	return max(s.MaxWatched, s.ExternalActualTime())
}

// clamp limits a requested position to [0, EffectiveMax] and to the
// duration when known. restricted reports whether the cap applied.
func (s *Session) clamp(requested time.Duration) (pos time.Duration, restricted bool) {
	pos = max(requested, 0)
	if s.Duration > 0 {
		pos = min(pos, s.Duration)
	}
	if limit := s.EffectiveMax(); pos > limit {
		return limit, true
	}
	return pos, false
}

// exceedsLimit reports whether a position reported by the player lies
// beyond what the learner may have reached, allowing for polling lag.
func (s *Session) exceedsLimit(pos, tolerance time.Duration) bool {
	return pos > s.EffectiveMax()+tolerance
}

// observe records a valid (position, duration) sample. It reports whether
// the sample covered new ground.
func (s *Session) observe(pos, duration time.Duration) bool {
	s.Duration = duration
	s.CurrentTime = pos
	s.WatchPercentage = timeToPercent(pos, duration)
	if pos <= s.MaxWatched {
		// Rewound into watched territory; ActualPercentage keeps the
		// furthest value.
		return false
	}
	s.MaxWatched = pos
	s.ActualPercentage = max(s.ActualPercentage, s.WatchPercentage)
	return true
}

func percentToTime(pct float64, d time.Duration) time.Duration {
	if d <= 0 || pct <= 0 {
		return 0
	}
	return time.Duration(clampPercent(pct) / 100 * float64(d))
}

func timeToPercent(pos, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return clampPercent(float64(pos) / float64(d) * 100)
}

func clampPercent(p float64) float64 {
	return max(0, min(p, 100))
}

func isSupportedRate(rate float64) bool {
	return slices.Contains(supportedRates, rate)
}
