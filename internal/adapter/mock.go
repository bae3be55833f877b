// internal/adapter/mock.go
package adapter

import (
	"errors"
	"sync"
	"time"
)

const eventBufferSize = 16

// ErrDestroyed is returned by adapters once the host has torn them down.
var ErrDestroyed = errors.New("player destroyed")

// SeekCall records a single SeekTo invocation.
type SeekCall struct {
	Position       time.Duration
	AllowSeekAhead bool
}

// Mock is a test double for a provider player.
type Mock struct {
	mu sync.Mutex

	state    State
	position time.Duration
	duration time.Duration
	rate     float64
	volume   int
	muted    bool

	durationAfter int // Duration() returns 0 for this many calls
	durationCalls int
	dropCommands  int // Play/Pause calls silently ignored
	commandErr    error
	seekErr       error

	seekCalls  []SeekCall
	playCalls  int
	pauseCalls int
	rateCalls  []float64

	events    chan Event
	done      chan struct{}
	destroyed bool
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{
		state:  Unstarted,
		rate:   1,
		volume: 100,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
}

func (m *Mock) CurrentTime() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return 0, ErrDestroyed
	}
	return m.position, nil
}

func (m *Mock) Duration() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return 0, ErrDestroyed
	}
	m.durationCalls++
	if m.durationCalls <= m.durationAfter {
		return 0, nil
	}
	return m.duration, nil
}

func (m *Mock) SeekTo(pos time.Duration, allowSeekAhead bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.seekCalls = append(m.seekCalls, SeekCall{Position: pos, AllowSeekAhead: allowSeekAhead})
	if m.seekErr != nil {
		return m.seekErr
	}
	m.position = pos
	return nil
}

func (m *Mock) Play() error {
	return m.command(&m.playCalls, Playing)
}

func (m *Mock) Pause() error {
	return m.command(&m.pauseCalls, Paused)
}

func (m *Mock) command(counter *int, target State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	*counter++
	if m.commandErr != nil {
		return m.commandErr
	}
	if m.dropCommands > 0 {
		m.dropCommands--
		return nil
	}
	if m.state == target {
		return nil
	}
	m.state = target
	m.emitLocked(Event{State: target})
	return nil
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) SetPlaybackRate(rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.rateCalls = append(m.rateCalls, rate)
	m.rate = rate
	return nil
}

func (m *Mock) SetVolume(level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.volume = level
	return nil
}

func (m *Mock) Mute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.muted = true
	return nil
}

func (m *Mock) Unmute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.muted = false
	return nil
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Done() <-chan struct{} { return m.done }

func (m *Mock) emitLocked(e Event) {
	select {
	case m.events <- e:
	default:
		// Drop if buffer full
	}
}

// Test helpers

// SetPosition moves the playhead without recording a seek, as if the
// learner dragged the provider's own scrubber.
func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

// Advance moves the playhead forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.position += d
	m.mu.Unlock()
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// SetDurationAfter makes the first n Duration calls report 0.
func (m *Mock) SetDurationAfter(n int) {
	m.mu.Lock()
	m.durationAfter = n
	m.mu.Unlock()
}

// SetState changes the reported state without emitting an event.
func (m *Mock) SetState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// DropCommands makes the next n Play/Pause calls silently do nothing.
func (m *Mock) DropCommands(n int) {
	m.mu.Lock()
	m.dropCommands = n
	m.mu.Unlock()
}

func (m *Mock) SetCommandError(err error) {
	m.mu.Lock()
	m.commandErr = err
	m.mu.Unlock()
}

func (m *Mock) SetSeekError(err error) {
	m.mu.Lock()
	m.seekErr = err
	m.mu.Unlock()
}

// Emit pushes an event as if the provider reported it.
func (m *Mock) Emit(e Event) {
	m.mu.Lock()
	if e.State != Errored {
		m.state = e.State
	}
	m.emitLocked(e)
	m.mu.Unlock()
}

// Destroy simulates the host page tearing the player down.
func (m *Mock) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	m.destroyed = true
	close(m.done)
}

func (m *Mock) SeekCalls() []SeekCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SeekCall(nil), m.seekCalls...)
}

func (m *Mock) DurationCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durationCalls
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) RateCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.rateCalls...)
}

func (m *Mock) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
