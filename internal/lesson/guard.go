package lesson

import (
	"time"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/log"
	"github.com/llehouerou/lessongate/internal/metrics"
)

// guardTick catches positions the learner reached through the provider's
// own controls.
func (e *Engine) guardTick(stop chan struct{}) {
	e.mu.Lock()
	if e.closed.Load() || e.guardStop != stop {
		e.mu.Unlock()
		return
	}
	var out emits
	p := e.player
	// No limit can be computed before the duration is known.
	if adapter.Alive(p) && e.sess.Duration > 0 {
		if pos, err := p.CurrentTime(); err == nil && e.sess.exceedsLimit(pos, e.cfg.SeekTolerance) {
			e.enforceLocked(&out, p, metrics.SeekOriginMonitor)
		}
	}
	e.mu.Unlock()
	e.dispatch(out)
}

// enforceLocked pulls the player back to the furthest allowed position
// and returns that position.
func (e *Engine) enforceLocked(out *emits, p adapter.Interface, origin string) time.Duration {
	limit := e.sess.EffectiveMax()
	if err := p.SeekTo(limit, true); err != nil {
		e.logger.Warn().Err(err).Dur(log.FieldLimit, limit).Msg(errmsg.Format(errmsg.OpSeek, err))
	}
	e.sess.CurrentTime = limit
	e.logger.Debug().Str("origin", origin).Dur(log.FieldLimit, limit).Msg("skip ahead pulled back")
	metrics.IncGuardCorrection(origin)
	e.restrictedLocked(out)
	return limit
}

// seekLocked clamps an explicit seek to the allowed range and sends it.
func (e *Engine) seekLocked(out *emits, p adapter.Interface, requested time.Duration) (time.Duration, error) {
	pos, restricted := e.sess.clamp(requested)
	if err := p.SeekTo(pos, true); err != nil {
		return e.sess.CurrentTime, &Error{Kind: KindAdapterCommand, Op: errmsg.OpSeek, Err: err}
	}
	e.sess.CurrentTime = pos
	e.sess.WatchPercentage = timeToPercent(pos, e.sess.Duration)
	if restricted {
		metrics.IncGuardCorrection(metrics.SeekOriginControl)
		e.restrictedLocked(out)
	}
	return pos, nil
}

func (e *Engine) restrictedLocked(out *emits) {
	e.noticeLocked(out, Notice{Kind: NoticeRestricted, Message: MessageRestricted})
}
