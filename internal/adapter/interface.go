// internal/adapter/interface.go
package adapter

import "time"

// Interface is the contract the lesson engine needs from an embeddable
// video player. Implementations wrap a third-party player; the engine
// treats them as opaque.
type Interface interface {
	CurrentTime() (time.Duration, error)
	Duration() (time.Duration, error)
	SeekTo(pos time.Duration, allowSeekAhead bool) error
	Play() error
	Pause() error
	State() State
	SetPlaybackRate(rate float64) error
	SetVolume(level int) error
	Mute() error
	Unmute() error
	// Events delivers state changes and provider errors. The channel is
	// never closed; use Done to detect destruction.
	Events() <-chan Event
	// Done is closed when the host page destroys the player.
	Done() <-chan struct{}
}

// Event is a single notification from the player.
type Event struct {
	State State
	// Code is set when State is Errored.
	Code ErrorCode
}

// Alive reports whether the adapter handle is still usable.
func Alive(a Interface) bool {
	if a == nil {
		return false
	}
	select {
	case <-a.Done():
		return false
	default:
		return true
	}
}
