package lesson

import "github.com/llehouerou/lessongate/internal/metrics"

// latch closes once, the first time progress reaches the threshold.
type latch struct {
	threshold float64
	fired     bool
}

// observe reports true exactly once per latch.
func (l *latch) observe(actual float64) bool {
	if l.fired || actual < l.threshold {
		return false
	}
	l.fired = true
	return true
}

func (e *Engine) completeLocked(out *emits) {
	e.sess.HasCompletedOnce = true
	metrics.IncCompletion()
	e.logger.Info().Float64("actual", e.sess.ActualPercentage).Msg("lesson completed")

	if fn := e.handler.OnComplete; fn != nil {
		out.add(fn)
	}
	e.noticeLocked(out, Notice{Kind: NoticeCompleted, Message: MessageCompleted})
}

// CanAdvance reports whether the learner has watched enough to move on.
func (e *Engine) CanAdvance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.ActualPercentage >= e.cfg.CompletionThreshold
}
