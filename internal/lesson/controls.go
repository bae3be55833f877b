package lesson

import (
	"errors"
	"fmt"
	"time"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/log"
	"github.com/llehouerou/lessongate/internal/metrics"
)

// Control errors.
var (
	ErrDurationUnknown = errors.New("duration not known yet")
	ErrNotScrubbing    = errors.New("no scrub in progress")
)

// controlLocked returns the player for a transport command.
func (e *Engine) controlLocked() (adapter.Interface, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if !e.started {
		return nil, ErrNotStarted
	}
	if e.sess.Phase == PhaseError && e.err != nil {
		return nil, e.err
	}
	if !adapter.Alive(e.player) {
		return nil, &Error{Kind: KindAdapterInit, Op: errmsg.OpAttachPlayer, Err: adapter.ErrDestroyed}
	}
	return e.player, nil
}

// Play starts playback and confirms the player actually started.
func (e *Engine) Play() error {
	return e.command("play", errmsg.OpPlay, adapter.Playing, adapter.Interface.Play)
}

// Pause pauses playback and confirms the player actually paused.
func (e *Engine) Pause() error {
	return e.command("pause", errmsg.OpPause, adapter.Paused, adapter.Interface.Pause)
}

// TogglePlay pauses or plays based on the state the player reports, not
// on the session's view of it.
func (e *Engine) TogglePlay() error {
	e.mu.Lock()
	p, err := e.controlLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if p.State() == adapter.Playing {
		return e.Pause()
	}
	return e.Play()
}

// command issues a play/pause command until the player reports target.
// Embedded players silently drop commands sent too soon after they become
// ready, so a command counts only once the reported state changes.
func (e *Engine) command(name string, op errmsg.Op, target adapter.State, issue func(adapter.Interface) error) error {
	e.mu.Lock()
	p, err := e.controlLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if p.State() == target {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= e.cfg.CommandRetries; attempt++ {
		if attempt > 1 {
			metrics.IncCommandRetry(name)
			e.logger.Debug().Str("command", name).Int(log.FieldAttempt, attempt).Msg("retrying player command")
		}
		if err := issue(p); err != nil {
			lastErr = err
		} else if p.State() == target {
			return nil
		}
		if !e.sleep(e.cfg.CommandRetryDelay) {
			return ErrClosed
		}
		if !e.attached(p) {
			return &Error{Kind: KindAdapterInit, Op: errmsg.OpAttachPlayer, Err: adapter.ErrDestroyed}
		}
		if p.State() == target {
			return nil
		}
	}

	metrics.IncCommandFailure(name)
	if lastErr == nil {
		lastErr = fmt.Errorf("player still %s after %d attempts", p.State(), e.cfg.CommandRetries)
	}
	cmdErr := &Error{Kind: KindAdapterCommand, Op: op, Err: lastErr}
	e.logger.Warn().Err(cmdErr).Msg("player command gave up")

	e.mu.Lock()
	var out emits
	e.noticeLocked(&out, Notice{Kind: NoticeCommandFailed, Message: cmdErr.Message(), Err: cmdErr})
	e.mu.Unlock()
	e.dispatch(out)
	return cmdErr
}

// sleep waits d, returning false if the session closes first.
func (e *Engine) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-e.quit:
		return false
	}
}

// attached reports whether p is still the live session player.
func (e *Engine) attached(p adapter.Interface) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed.Load() && e.player == p && adapter.Alive(p)
}

// SkipForward jumps ahead by the configured step, within watched content.
func (e *Engine) SkipForward() (time.Duration, error) {
	return e.Skip(e.cfg.SkipStep)
}

// SkipBackward jumps back by the configured step.
func (e *Engine) SkipBackward() (time.Duration, error) {
	return e.Skip(-e.cfg.SkipStep)
}

// Skip seeks relative to the position the player reports.
func (e *Engine) Skip(delta time.Duration) (time.Duration, error) {
	e.mu.Lock()
	p, err := e.controlLocked()
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}
	cur, err := p.CurrentTime()
	if err != nil {
		cur = e.sess.CurrentTime
	}
	var out emits
	pos, err := e.seekLocked(&out, p, cur+delta)
	e.mu.Unlock()
	e.dispatch(out)
	return pos, err
}

// SeekTo seeks to an absolute position, clamped to watched content. It
// returns the position actually sent to the player.
func (e *Engine) SeekTo(requested time.Duration) (time.Duration, error) {
	e.mu.Lock()
	p, err := e.controlLocked()
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}
	var out emits
	pos, err := e.seekLocked(&out, p, requested)
	e.mu.Unlock()
	e.dispatch(out)
	return pos, err
}

// SeekToFraction handles a click on the progress bar; fraction is in [0, 1].
func (e *Engine) SeekToFraction(fraction float64) (time.Duration, error) {
	e.mu.Lock()
	d := e.sess.Duration
	e.mu.Unlock()
	if d <= 0 {
		return 0, ErrDurationUnknown
	}
	return e.SeekTo(fractionOf(fraction, d))
}

// BeginScrub starts a press-drag-release interaction on the progress bar.
// The player is not touched until EndScrub.
func (e *Engine) BeginScrub() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.controlLocked(); err != nil {
		return err
	}
	if e.sess.Duration <= 0 {
		return ErrDurationUnknown
	}
	e.sess.Scrubbing = true
	e.sess.ScrubPosition = e.sess.CurrentTime
	e.scrubRequest = e.sess.CurrentTime
	return nil
}

// Scrub moves the drag handle and returns the preview position, already
// capped at watched content so the bar never shows an unreachable spot.
func (e *Engine) Scrub(fraction float64) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sess.Scrubbing {
		return 0, ErrNotScrubbing
	}
	e.scrubRequest = fractionOf(fraction, e.sess.Duration)
	pos, _ := e.sess.clamp(e.scrubRequest)
	e.sess.ScrubPosition = pos
	return pos, nil
}

// EndScrub releases the handle and seeks to the last dragged position.
func (e *Engine) EndScrub() (time.Duration, error) {
	e.mu.Lock()
	if !e.sess.Scrubbing {
		e.mu.Unlock()
		return 0, ErrNotScrubbing
	}
	e.sess.Scrubbing = false
	p, err := e.controlLocked()
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}
	var out emits
	pos, err := e.seekLocked(&out, p, e.scrubRequest)
	e.mu.Unlock()
	e.dispatch(out)
	return pos, err
}

// CancelScrub abandons a drag without seeking.
func (e *Engine) CancelScrub() {
	e.mu.Lock()
	e.sess.Scrubbing = false
	e.mu.Unlock()
}

// SetPlaybackRate changes speed. Only the provider's rates are accepted.
func (e *Engine) SetPlaybackRate(rate float64) error {
	if !isSupportedRate(rate) {
		return fmt.Errorf("%w: %v", ErrRate, rate)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.controlLocked()
	if err != nil {
		return err
	}
	if err := p.SetPlaybackRate(rate); err != nil {
		return &Error{Kind: KindAdapterCommand, Op: errmsg.OpRate, Err: err}
	}
	e.sess.PlaybackRate = rate
	return nil
}

// SetVolume sets the volume level (0 to 100).
// If muted, only stores the level without applying it.
func (e *Engine) SetVolume(level int) error {
	level = max(0, min(level, 100))
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.controlLocked()
	if err != nil {
		return err
	}
	if !e.sess.IsMuted {
		if err := p.SetVolume(level); err != nil {
			return &Error{Kind: KindAdapterCommand, Op: errmsg.OpVolume, Err: err}
		}
	}
	e.sess.Volume = level
	return nil
}

// SetMuted sets the muted state.
// When unmuted, restores the stored volume level.
func (e *Engine) SetMuted(muted bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.controlLocked()
	if err != nil {
		return err
	}
	if muted {
		err = p.Mute()
	} else if err = p.SetVolume(e.sess.Volume); err == nil {
		err = p.Unmute()
	}
	if err != nil {
		return &Error{Kind: KindAdapterCommand, Op: errmsg.OpMute, Err: err}
	}
	e.sess.IsMuted = muted
	return nil
}

// ToggleMute flips the muted state and returns the new state.
func (e *Engine) ToggleMute() (bool, error) {
	e.mu.Lock()
	muted := !e.sess.IsMuted
	e.mu.Unlock()
	if err := e.SetMuted(muted); err != nil {
		return !muted, err
	}
	return muted, nil
}

func fractionOf(f float64, d time.Duration) time.Duration {
	return time.Duration(max(0, min(f, 1)) * float64(d))
}
