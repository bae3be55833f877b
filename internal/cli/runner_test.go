package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/course"
	"github.com/llehouerou/lessongate/internal/lesson"
	"github.com/llehouerou/lessongate/internal/metrics"
	"github.com/llehouerou/lessongate/internal/notify"
	"github.com/llehouerou/lessongate/internal/state"
)

type fakeNotifier struct {
	sent      []notify.Notification
	dismissed []uint32
}

func (f *fakeNotifier) Notify(n notify.Notification) (uint32, error) {
	f.sent = append(f.sent, n)
	return uint32(len(f.sent)), nil
}

func (f *fakeNotifier) Dismiss(id uint32) error {
	f.dismissed = append(f.dismissed, id)
	return nil
}

func newRunner(cache state.Interface, n notify.Notifier) (*runner, *bytes.Buffer) {
	var buf bytes.Buffer
	r := &runner{out: &buf, cache: cache, logger: zerolog.Nop()}
	if n != nil {
		r.notices = notify.NewForwarder(n, "Intro")
	}
	return r, &buf
}

func testRun() lessonRun {
	return lessonRun{
		CourseID: "go101",
		LessonID: "intro",
		Title:    "Intro",
		Ref:      "https://youtu.be/dQw4w9WgXcQ",
		Config:   lesson.DefaultConfig(80),
	}
}

func TestRunner_PlaysToCompletion(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := adapter.NewSim(20*time.Second, 200*time.Millisecond)
		defer sim.Destroy()
		cache := state.NewMock()
		n := &fakeNotifier{}
		r, out := newRunner(cache, n)

		s, err := r.run(context.Background(), sim, testRun())
		require.NoError(t, err)

		assert.True(t, s.HasCompletedOnce)
		assert.InDelta(t, 100, s.ActualPercentage, 1e-9)
		assert.Equal(t, lesson.PhaseEnded, s.Phase)

		p, err := cache.GetProgress("go101", "intro")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.Completed())
		assert.InDelta(t, 100, p.Actual, 1e-9)
		assert.Equal(t, "dQw4w9WgXcQ", p.VideoID)

		assert.Contains(t, out.String(), lesson.MessageCompleted)
		assert.Contains(t, out.String(), "lesson ended: 100% watched")
		require.NotEmpty(t, n.sent)
		assert.Equal(t, lesson.MessageCompleted, n.sent[len(n.sent)-1].Body)
	})
}

func TestRunner_SkipIsRestricted(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := adapter.NewSim(60*time.Second, 0)
		defer sim.Destroy()
		cache := state.NewMock()
		r, out := newRunner(cache, nil)

		lr := testRun()
		lr.SkipTo = 50 * time.Second

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s, err := r.run(ctx, sim, lr)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		assert.Contains(t, out.String(), "skip to 0:50 landed at 0:01")
		assert.Contains(t, out.String(), "[Restricted] "+lesson.MessageRestricted)
		assert.Less(t, s.ActualPercentage, 10.0)
		assert.False(t, s.HasCompletedOnce)

		p, _ := cache.GetProgress("go101", "intro")
		require.NotNil(t, p)
		assert.False(t, p.Completed())
	})
}

func TestRunner_ResumesFromCache(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := adapter.NewSim(100*time.Second, 0)
		defer sim.Destroy()
		cache := state.NewMock()
		cache.SaveProgress(state.LessonProgress{
			CourseID: "go101", LessonID: "intro",
			Position: 30 * time.Second, Duration: 100 * time.Second, Actual: 50,
		})
		r, out := newRunner(cache, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		s, err := r.run(ctx, sim, testRun())
		require.ErrorIs(t, err, context.DeadlineExceeded)

		assert.Contains(t, out.String(), "resuming at 0:30 (50% watched before)")
		assert.GreaterOrEqual(t, s.MaxWatched, 50*time.Second)
		assert.GreaterOrEqual(t, s.CurrentTime, 30*time.Second)
		assert.InDelta(t, 50, s.ActualPercentage, 1e-9)
	})
}

func TestRunner_InvalidSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := adapter.NewSim(10*time.Second, 0)
		defer sim.Destroy()
		r, _ := newRunner(nil, nil)

		lr := testRun()
		lr.Ref = "not a video"
		_, err := r.run(context.Background(), sim, lr)
		assert.ErrorIs(t, err, lesson.ErrInvalidSource)
	})
}

func TestRunner_HintOverride(t *testing.T) {
	cache := state.NewMock()
	cache.SaveProgress(state.LessonProgress{CourseID: "go101", LessonID: "intro", Position: time.Minute, Actual: 20})
	r, _ := newRunner(cache, nil)

	lr := testRun()
	lr.ResumePct = 40
	h, err := r.hint(lr)
	require.NoError(t, err)

	assert.Zero(t, h.InitialPosition)
	assert.InDelta(t, 40, h.InitialProgressPercentage, 1e-9)
	assert.InDelta(t, 20, h.ExternalActualPercentage, 1e-9)
}

func TestRunner_CompletionOnLastSampleIsReported(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := adapter.NewSim(20*time.Second, 0)
		defer sim.Destroy()
		n := &fakeNotifier{}
		r, out := newRunner(state.NewMock(), n)

		// Only the sample taken at the end reaches 100%, so the
		// completion notice and the Ended phase arrive together.
		lr := testRun()
		lr.Config = lesson.DefaultConfig(100)

		s, err := r.run(context.Background(), sim, lr)
		require.NoError(t, err)
		require.True(t, s.HasCompletedOnce)

		assert.Contains(t, out.String(), "[Completed] "+lesson.MessageCompleted)
		require.NotEmpty(t, n.sent)
		assert.Equal(t, lesson.MessageCompleted, n.sent[len(n.sent)-1].Body)
	})
}

func TestRunner_MetricsExported(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := adapter.NewSim(10*time.Second, 0)
		defer sim.Destroy()
		r, _ := newRunner(nil, nil)

		lr := testRun()
		lr.SkipTo = 8 * time.Second
		_, err := r.run(context.Background(), sim, lr)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, metrics.WriteText(&buf, prometheus.DefaultGatherer))
		assert.Contains(t, buf.String(), "lessongate_lesson_completions_total")
		assert.Contains(t, buf.String(), `lessongate_guard_corrections_total{origin="control"}`)
	})
}

type brokenCache struct {
	state.Interface
	err error
}

func (b brokenCache) GetProgress(string, string) (*state.LessonProgress, error) { return nil, b.err }
func (b brokenCache) ListProgress(string) ([]state.LessonProgress, error) { return nil, b.err }

func TestRunner_CacheErrorsAreFormatted(t *testing.T) {
	cache := brokenCache{err: errors.New("disk I/O error")}
	r, _ := newRunner(cache, nil)

	_, err := r.hint(testRun())
	require.Error(t, err)
	assert.Equal(t, "Failed to load lesson progress 'intro': disk I/O error", err.Error())

	c := course.New("go101", "Go 101", 80, course.Lesson{ID: "intro"})
	err = restoreCourse(c, cache)
	require.Error(t, err)
	assert.Equal(t, "Failed to load lesson progress 'go101': disk I/O error", err.Error())
}
