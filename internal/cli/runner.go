package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/lesson"
	"github.com/llehouerou/lessongate/internal/notify"
	"github.com/llehouerou/lessongate/internal/state"
)

// lessonRun describes one lesson to play.
type lessonRun struct {
	CourseID string
	LessonID string
	Title    string
	Ref      string
	Config   lesson.Config

	// ResumePct overrides the cached resume percentage when positive.
	ResumePct float64
	// SkipTo requests a seek after the first progress tick, to show the
	// guard at work.
	SkipTo time.Duration
	Rate   float64
}

// runner plays lessons against a player and keeps the resume cache
// current. cache and notices may be nil.
type runner struct {
	out     io.Writer
	cache   state.Interface
	notices *notify.Forwarder
	logger  zerolog.Logger
}

// run plays a lesson until it ends, fails, or ctx is done, and returns
// the final session state.
func (r *runner) run(ctx context.Context, p adapter.Interface, lr lessonRun) (lesson.Session, error) {
	hint, err := r.hint(lr)
	if err != nil {
		return lesson.Session{}, err
	}

	// Output is written from this goroutine only, so the loop reads the
	// subscription instead of installing handler callbacks.
	e, err := lesson.New(p, lr.Config, lesson.Handler{}, lesson.WithLogger(r.logger))
	if err != nil {
		return lesson.Session{}, err
	}
	defer e.Close()

	sub := e.Subscribe()
	if err := e.Start(lr.Ref, hint); err != nil {
		return e.Snapshot(), err
	}

	var started, skipped bool
	for {
		select {
		case <-ctx.Done():
			r.drainNotices(sub)
			s := e.Snapshot()
			r.save(lr, e.VideoID().String(), s)
			return s, ctx.Err()

		case c := <-sub.PhaseChanged:
			switch c.Current {
			case lesson.PhaseReady:
				if started {
					continue
				}
				started = true
				if err := r.begin(e, lr); err != nil {
					return e.Snapshot(), err
				}
			case lesson.PhasePaused:
				s := e.Snapshot()
				fmt.Fprintf(r.out, "paused at %s (%s watched)\n", formatClock(s.CurrentTime), formatPercent(s.ActualPercentage))
			case lesson.PhaseEnded:
				r.drainNotices(sub)
				s := e.Snapshot()
				r.save(lr, e.VideoID().String(), s)
				fmt.Fprintf(r.out, "lesson ended: %s watched\n", formatPercent(s.ActualPercentage))
				if r.notices != nil {
					_ = r.notices.Dismiss(lesson.NoticeRestricted)
				}
				return s, nil
			case lesson.PhaseError:
				r.drainNotices(sub)
				s := e.Snapshot()
				r.save(lr, e.VideoID().String(), s)
				return s, e.Err()
			default:
			}

		case u := <-sub.Progress:
			fmt.Fprintln(r.out, formatProgress(u))
			r.save(lr, e.VideoID().String(), e.Snapshot())
			if lr.SkipTo > 0 && !skipped {
				skipped = true
				pos, err := e.SeekTo(lr.SkipTo)
				if err != nil {
					fmt.Fprintf(r.out, "skip failed: %v\n", err)
				} else {
					fmt.Fprintf(r.out, "skip to %s landed at %s\n", formatClock(lr.SkipTo), formatClock(pos))
				}
			}

		case n := <-sub.Notices:
			r.notice(n)
		}
	}
}

func (r *runner) notice(n lesson.Notice) {
	fmt.Fprintf(r.out, "[%s] %s\n", n.Kind, n.Message)
	if r.notices != nil {
		if err := r.notices.Send(n); err != nil {
			r.logger.Debug().Err(err).Msg("desktop notification failed")
		}
	}
}

// drainNotices reports notices already queued when the session stops.
// A notice from the final sample arrives together with the phase change.
func (r *runner) drainNotices(sub *lesson.Subscription) {
	for {
		select {
		case n, ok := <-sub.Notices:
			if !ok {
				return
			}
			r.notice(n)
		default:
			return
		}
	}
}

func (r *runner) hint(lr lessonRun) (lesson.ResumeHint, error) {
	var hint lesson.ResumeHint
	if r.cache != nil {
		p, err := r.cache.GetProgress(lr.CourseID, lr.LessonID)
		if err != nil {
			return hint, errors.New(errmsg.FormatWith(errmsg.OpProgressLoad, lr.LessonID, err))
		}
		if p != nil {
			hint = p.ResumeHint()
			fmt.Fprintf(r.out, "resuming at %s (%s watched before)\n", formatClock(p.Position), formatPercent(p.Actual))
		}
	}
	if lr.ResumePct > 0 {
		hint.InitialPosition = 0
		hint.InitialProgressPercentage = lr.ResumePct
	}
	return hint, nil
}

func (r *runner) begin(e *lesson.Engine, lr lessonRun) error {
	s := e.Snapshot()
	fmt.Fprintf(r.out, "%s: %s long, limit %s\n", lr.Title, formatClock(s.Duration), formatClock(s.EffectiveMax()))
	if lr.Rate > 0 && lr.Rate != 1 {
		if err := e.SetPlaybackRate(lr.Rate); err != nil {
			return err
		}
	}
	return e.Play()
}

func (r *runner) save(lr lessonRun, videoID string, s lesson.Session) {
	if r.cache == nil || s.Duration <= 0 {
		return
	}
	p := state.LessonProgress{
		CourseID:  lr.CourseID,
		LessonID:  lr.LessonID,
		VideoID:   videoID,
		Position:  s.CurrentTime,
		Duration:  s.Duration,
		Actual:    s.ActualPercentage,
		UpdatedAt: time.Now(),
	}
	if s.HasCompletedOnce {
		now := time.Now()
		p.CompletedAt = &now
	}
	r.cache.SaveProgress(p)
}
