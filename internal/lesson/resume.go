package lesson

import (
	"time"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/log"
	"github.com/llehouerou/lessongate/internal/metrics"
)

// awaitDuration is one attempt of the AwaitingDuration phase. It
// reschedules itself until the player reports a duration or the attempt
// budget runs out. gen ties the attempt to the start that scheduled it.
func (e *Engine) awaitDuration(gen int) {
	e.mu.Lock()
	if e.closed.Load() || gen != e.resumeGen || e.sess.Phase != PhaseAwaitingDuration {
		e.mu.Unlock()
		return
	}
	e.retry = nil

	var out emits
	p := e.player
	if !adapter.Alive(p) {
		_ = e.failLocked(&out, &Error{Kind: KindAdapterInit, Op: errmsg.OpAttachPlayer, Err: adapter.ErrDestroyed})
		e.mu.Unlock()
		e.dispatch(out)
		return
	}

	e.attempts++
	d, err := p.Duration()
	switch {
	case err == nil && d > 0:
		e.applyResumeLocked(&out, p, d)
	case e.attempts >= e.cfg.DurationRetries:
		// Start from the beginning; the tracker picks the duration up
		// if the player reports it later.
		e.logger.Warn().Err(err).Int(log.FieldAttempt, e.attempts).
			Msg("duration unavailable, starting lesson without resume")
		e.resumed = true
		e.readyLocked(&out, p)
	default:
		e.retry = time.AfterFunc(e.cfg.DurationRetryDelay, func() { e.awaitDuration(gen) })
	}
	e.mu.Unlock()
	e.dispatch(out)
}

// applyResumeLocked seeds progress from the hint and seeks once.
func (e *Engine) applyResumeLocked(out *emits, p adapter.Interface, d time.Duration) {
	e.noteDurationLocked(out, d)

	pos := resumePosition(e.hint, d)
	// An unverified resume point only widens the seek limit. Actual
	// progress moves once playback passes it.
	e.sess.MaxWatched = max(e.sess.MaxWatched, pos, e.sess.ExternalActualTime())

	if !e.resumed {
		e.resumed = true
		if pos > 0 {
			if err := p.SeekTo(pos, true); err != nil {
				e.logger.Warn().Err(err).Dur(log.FieldPosition, pos).Msg(errmsg.Format(errmsg.OpResume, err))
			} else {
				e.sess.CurrentTime = pos
				e.sess.WatchPercentage = timeToPercent(pos, d)
				e.logger.Debug().Dur(log.FieldPosition, pos).Msg("resumed lesson")
			}
		}
		metrics.ObserveResumeOffset(pos.Seconds())
	}
	e.readyLocked(out, p)
}

// readyLocked enters Ready, and Playing straight after if the player is
// already running.
func (e *Engine) readyLocked(out *emits, p adapter.Interface) {
	e.setPhaseLocked(out, PhaseReady)
	if e.sess.IsPlaying || p.State() == adapter.Playing {
		e.sess.IsPlaying = true
		e.setPhaseLocked(out, PhasePlaying)
		e.startTimersLocked()
	}
}

func (e *Engine) noteDurationLocked(out *emits, d time.Duration) {
	e.sess.Duration = d
	if e.durationReported {
		return
	}
	e.durationReported = true
	if fn := e.handler.OnDurationChange; fn != nil {
		out.add(func() { fn(d) })
	}
}

// resumePosition picks the exact timestamp when present, otherwise the
// larger of the two percentages.
func resumePosition(h ResumeHint, d time.Duration) time.Duration {
	if h.InitialPosition > 0 {
		return min(h.InitialPosition, d)
	}
	return percentToTime(max(h.InitialProgressPercentage, h.ExternalActualPercentage), d)
}
