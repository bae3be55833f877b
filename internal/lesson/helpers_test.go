package lesson

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/lessongate/internal/adapter"
)

const testVideo = "dQw4w9WgXcQ"

type progressCall struct {
	watch, actual float64
}

type pauseCall struct {
	actual  float64
	current time.Duration
}

// recorder captures every callback the engine delivers.
type recorder struct {
	mu        sync.Mutex
	progress  []progressCall
	pauses    []pauseCall
	completes []progressCall // last progress seen when OnComplete fired
	durations []time.Duration
	times     []time.Duration
	notices   []Notice
	phases    []PhaseChange
}

func (r *recorder) handler() Handler {
	return Handler{
		OnProgress: func(watch, actual float64) {
			r.mu.Lock()
			r.progress = append(r.progress, progressCall{watch, actual})
			r.mu.Unlock()
		},
		OnPause: func(actual float64, current time.Duration) {
			r.mu.Lock()
			r.pauses = append(r.pauses, pauseCall{actual, current})
			r.mu.Unlock()
		},
		OnComplete: func() {
			r.mu.Lock()
			var last progressCall
			if n := len(r.progress); n > 0 {
				last = r.progress[n-1]
			}
			r.completes = append(r.completes, last)
			r.mu.Unlock()
		},
		OnDurationChange: func(d time.Duration) {
			r.mu.Lock()
			r.durations = append(r.durations, d)
			r.mu.Unlock()
		},
		OnTimeUpdate: func(cur time.Duration) {
			r.mu.Lock()
			r.times = append(r.times, cur)
			r.mu.Unlock()
		},
		OnNotice: func(n Notice) {
			r.mu.Lock()
			r.notices = append(r.notices, n)
			r.mu.Unlock()
		},
		OnPhaseChange: func(c PhaseChange) {
			r.mu.Lock()
			r.phases = append(r.phases, c)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) progressCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.progress)
}

func (r *recorder) lastProgress() progressCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.progress) == 0 {
		return progressCall{}
	}
	return r.progress[len(r.progress)-1]
}

func (r *recorder) completeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completes)
}

func (r *recorder) firstComplete() progressCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.completes) == 0 {
		return progressCall{}
	}
	return r.completes[0]
}

func (r *recorder) noticeCount(k NoticeKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Kind == k {
			n++
		}
	}
	return n
}

func (r *recorder) durationCalls() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.durations...)
}

func (r *recorder) pauseCalls() []pauseCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pauseCall(nil), r.pauses...)
}

func (r *recorder) phaseSequence() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, 0, len(r.phases))
	for _, c := range r.phases {
		out = append(out, c.Current)
	}
	return out
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.progress) + len(r.pauses) + len(r.completes) + len(r.durations) +
		len(r.times) + len(r.notices) + len(r.phases)
}

// newTestEngine builds an engine with default timings around m.
// Must be called inside a synctest bubble; the engine is closed on return.
func newTestEngine(t *testing.T, m adapter.Interface, threshold float64) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e, err := New(m, DefaultConfig(threshold), rec.handler(), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, rec
}

// startPlaying mounts the lesson and starts playback.
func startPlaying(t *testing.T, e *Engine, hint ResumeHint) {
	t.Helper()
	require.NoError(t, e.Start(testVideo, hint))
	require.NoError(t, e.Play())
	synctest.Wait()
	require.Equal(t, PhasePlaying, e.Phase())
}

// playFor advances the player by step before each of the next n tracker
// ticks, returning once every tick has been handled.
func playFor(m *adapter.Mock, n int, step time.Duration) {
	for range n {
		m.Advance(step)
		time.Sleep(time.Second + time.Millisecond)
		synctest.Wait()
	}
}
