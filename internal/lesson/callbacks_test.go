package lesson

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/lessongate/internal/adapter"
)

func TestEngine_HandlerSeeksPastLimit(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := adapter.NewMock()
		m.SetDuration(200 * time.Second)

		var (
			e        *Engine
			mu       sync.Mutex
			once     sync.Once
			landed   time.Duration
			seekErr  error
			notices  int
			progress int
		)
		h := Handler{
			OnProgress: func(_, _ float64) {
				mu.Lock()
				progress++
				mu.Unlock()
				once.Do(func() {
					pos, err := e.SeekTo(190 * time.Second)
					mu.Lock()
					landed, seekErr = pos, err
					mu.Unlock()
				})
			},
			OnNotice: func(n Notice) {
				if n.Kind == NoticeRestricted {
					mu.Lock()
					notices++
					mu.Unlock()
				}
			},
		}
		var err error
		e, err = New(m, DefaultConfig(80), h, WithLogger(zerolog.Nop()))
		require.NoError(t, err)
		t.Cleanup(func() { _ = e.Close() })

		startPlaying(t, e, ResumeHint{})
		playFor(m, 2, time.Second)

		mu.Lock()
		assert.NoError(t, seekErr)
		assert.Equal(t, time.Second, landed)
		assert.Equal(t, 1, notices)
		assert.Equal(t, 2, progress)
		mu.Unlock()
		assert.Equal(t, 2*time.Second, m.Position())

		// The session is still usable and closes cleanly.
		_, err = e.SeekTo(0)
		require.NoError(t, err)
		require.NoError(t, e.Close())
	})
}

func TestEngine_HandlerPausesOnComplete(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := adapter.NewMock()
		m.SetDuration(100 * time.Second)

		var (
			e      *Engine
			mu     sync.Mutex
			pauses []time.Duration
		)
		h := Handler{
			OnComplete: func() {
				_ = e.Pause()
			},
			OnPause: func(_ float64, cur time.Duration) {
				mu.Lock()
				pauses = append(pauses, cur)
				mu.Unlock()
			},
		}
		var err error
		e, err = New(m, DefaultConfig(80), h, WithLogger(zerolog.Nop()))
		require.NoError(t, err)
		t.Cleanup(func() { _ = e.Close() })

		startPlaying(t, e, ResumeHint{InitialPosition: 78 * time.Second})
		playFor(m, 3, time.Second)

		assert.Equal(t, PhasePaused, e.Phase())
		assert.True(t, e.Snapshot().HasCompletedOnce)
		mu.Lock()
		assert.Equal(t, []time.Duration{80 * time.Second}, pauses)
		mu.Unlock()
	})
}
