package lesson

import (
	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/metrics"
)

func (e *Engine) trackTick(stop chan struct{}) {
	e.mu.Lock()
	if e.closed.Load() || e.trackStop != stop {
		e.mu.Unlock()
		return
	}
	var out emits
	e.sampleLocked(&out)
	e.mu.Unlock()
	e.dispatch(out)
}

// sampleLocked reads the player once and folds the reading into the
// session. Readings without a duration are ignored.
//
// A position past the guard limit is pulled back before it is recorded,
// so a skip the guard has not caught yet is never credited as watched.
func (e *Engine) sampleLocked(out *emits) {
	p := e.player
	if !adapter.Alive(p) {
		return
	}
	pos, err := p.CurrentTime()
	if err != nil || pos < 0 {
		return
	}
	d, err := p.Duration()
	if err != nil || d <= 0 {
		return
	}
	e.noteDurationLocked(out, d)

	if e.sess.exceedsLimit(pos, e.cfg.SeekTolerance) {
		pos = e.enforceLocked(out, p, metrics.SeekOriginTracker)
	}
	e.sess.observe(pos, d)
	e.progressLocked(out)

	if e.latch.observe(e.sess.ActualPercentage) {
		e.completeLocked(out)
	}
}

func (e *Engine) progressLocked(out *emits) {
	s := e.sess
	update := ProgressUpdate{
		Current:          s.CurrentTime,
		Duration:         s.Duration,
		WatchPercentage:  s.WatchPercentage,
		ActualPercentage: s.ActualPercentage,
	}
	onProgress, onTime := e.handler.OnProgress, e.handler.OnTimeUpdate
	subs := e.subs
	out.add(func() {
		if onProgress != nil {
			onProgress(update.WatchPercentage, update.ActualPercentage)
		}
		if onTime != nil {
			onTime(update.Current)
		}
		for _, sub := range subs {
			sub.sendProgress(update)
		}
	})
}
