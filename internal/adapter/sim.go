package adapter

import (
	"sync"
	"time"
)

// Sim is a clock-driven stand-in for an embedded provider player. The
// playhead advances with wall time at the current playback rate while
// playing, and Ended is reported when it reaches the duration.
type Sim struct {
	mu sync.Mutex

	state    State
	duration time.Duration
	ready    bool
	rate     float64
	volume   int
	muted    bool

	// position at anchor, valid while paused; while playing the live
	// position is anchorPos + elapsed*rate.
	anchorPos  time.Duration
	anchorTime time.Time
	endTimer   *time.Timer

	events    chan Event
	done      chan struct{}
	destroyed bool
}

// NewSim creates a simulated player for a video of the given length.
// Metadata becomes available after loadDelay, like a provider that
// reports duration only once the video is cued.
func NewSim(duration, loadDelay time.Duration) *Sim {
	s := &Sim{
		state:    Unstarted,
		duration: duration,
		rate:     1,
		volume:   100,
		events:   make(chan Event, eventBufferSize),
		done:     make(chan struct{}),
	}
	time.AfterFunc(loadDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.destroyed {
			return
		}
		s.ready = true
		s.state = Cued
		s.emitLocked(Event{State: Cued})
	})
	return s
}

func (s *Sim) positionLocked() time.Duration {
	pos := s.anchorPos
	if s.state == Playing {
		pos += time.Duration(float64(time.Since(s.anchorTime)) * s.rate)
	}
	return min(pos, s.duration)
}

func (s *Sim) reanchorLocked(pos time.Duration) {
	s.anchorPos = pos
	s.anchorTime = time.Now()
	if s.endTimer != nil {
		s.endTimer.Stop()
		s.endTimer = nil
	}
	if s.state != Playing {
		return
	}
	remaining := time.Duration(float64(s.duration-pos) / s.rate)
	s.endTimer = time.AfterFunc(remaining, s.finish)
}

func (s *Sim) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.state != Playing {
		return
	}
	s.anchorPos = s.duration
	s.state = Ended
	s.endTimer = nil
	s.emitLocked(Event{State: Ended})
}

func (s *Sim) CurrentTime() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return 0, ErrDestroyed
	}
	return s.positionLocked(), nil
}

func (s *Sim) Duration() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return 0, ErrDestroyed
	}
	if !s.ready {
		return 0, nil
	}
	return s.duration, nil
}

// SeekTo moves the playhead. Without allowSeekAhead the provider only
// seeks within what it considers buffered, which the simulator models
// as at most 30 seconds past the current position.
func (s *Sim) SeekTo(pos time.Duration, allowSeekAhead bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	cur := s.positionLocked()
	if !allowSeekAhead && pos > cur+30*time.Second {
		pos = cur + 30*time.Second
	}
	pos = max(0, min(pos, s.duration))
	if s.state == Ended && pos < s.duration {
		s.state = Paused
		s.emitLocked(Event{State: Paused})
	}
	s.reanchorLocked(pos)
	return nil
}

func (s *Sim) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	if s.state == Playing || !s.ready {
		return nil
	}
	pos := s.positionLocked()
	if s.state == Ended {
		pos = 0
	}
	s.state = Playing
	s.reanchorLocked(pos)
	s.emitLocked(Event{State: Playing})
	return nil
}

func (s *Sim) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	if s.state != Playing {
		return nil
	}
	pos := s.positionLocked()
	s.state = Paused
	s.reanchorLocked(pos)
	s.emitLocked(Event{State: Paused})
	return nil
}

func (s *Sim) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sim) SetPlaybackRate(rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	pos := s.positionLocked()
	s.rate = rate
	s.reanchorLocked(pos)
	return nil
}

func (s *Sim) SetVolume(level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.volume = level
	return nil
}

func (s *Sim) Mute() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.muted = true
	return nil
}

func (s *Sim) Unmute() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.muted = false
	return nil
}

func (s *Sim) Events() <-chan Event { return s.events }

func (s *Sim) Done() <-chan struct{} { return s.done }

// Fail reports a provider error, as when the stream cannot be decoded.
func (s *Sim) Fail(code ErrorCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.anchorPos = s.positionLocked()
	s.state = Errored
	if s.endTimer != nil {
		s.endTimer.Stop()
		s.endTimer = nil
	}
	s.emitLocked(Event{State: Errored, Code: code})
}

// Destroy tears the player down. Further calls return ErrDestroyed.
func (s *Sim) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.endTimer != nil {
		s.endTimer.Stop()
		s.endTimer = nil
	}
	close(s.done)
}

func (s *Sim) emitLocked(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

var _ Interface = (*Sim)(nil)
