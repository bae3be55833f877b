package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/course"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/lesson"
	"github.com/llehouerou/lessongate/internal/log"
	"github.com/llehouerou/lessongate/internal/metrics"
	"github.com/llehouerou/lessongate/internal/notify"
	"github.com/llehouerou/lessongate/internal/source"
	"github.com/llehouerou/lessongate/internal/state"
)

const adhocCourse = "adhoc"

var (
	errNoVideo   = errors.New("a video reference or --course is required")
	errNoLessons = errors.New("course has no lessons")
)

var playCmd = &cobra.Command{
	Use:   "play [video-ref]",
	Short: "Play a lesson against the simulated player",
	Example: "  lessongate play dQw4w9WgXcQ --duration 2m --skip-to 1m\n" +
		"  lessongate play --course go101 --lesson intro\n" +
		"  lessongate play --course go101 --metrics",
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	f := playCmd.Flags()
	f.String("course", "", "Course id from the config file")
	f.String("lesson", "", "Lesson id within --course")
	f.Duration("duration", 2*time.Minute, "Video length for the simulated player")
	f.Duration("load-delay", 300*time.Millisecond, "Time until the simulated player reports its duration")
	f.Float64("resume-pct", 0, "Resume from this percentage instead of the cached position")
	f.Duration("skip-to", 0, "Try to seek to this position after the first tick")
	f.Float64("rate", 1, "Playback rate (0.25 to 2)")
	f.Float64("threshold", 0, "Completion threshold override, in percent")
	f.Bool("no-cache", false, "Do not read or write the local resume cache")
	f.Bool("no-notify", false, "Disable desktop notifications")
	f.Bool("metrics", false, "Print lesson metrics in Prometheus text format when the session ends")
}

func runPlay(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	courseID, _ := f.GetString("course")
	lessonID, _ := f.GetString("lesson")
	duration, _ := f.GetDuration("duration")
	loadDelay, _ := f.GetDuration("load-delay")
	threshold, _ := f.GetFloat64("threshold")
	noCache, _ := f.GetBool("no-cache")
	noNotify, _ := f.GetBool("no-notify")
	showMetrics, _ := f.GetBool("metrics")

	lr := lessonRun{CourseID: courseID, LessonID: lessonID}
	lr.ResumePct, _ = f.GetFloat64("resume-pct")
	lr.SkipTo, _ = f.GetDuration("skip-to")
	lr.Rate, _ = f.GetFloat64("rate")

	r := &runner{out: cmd.OutOrStdout(), logger: log.WithComponent("lesson")}
	if !noCache {
		mgr, err := state.Open(cfg.State.Path)
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpProgressLoad, err))
		}
		defer func() {
			if err := mgr.Close(); err != nil {
				r.logger.Warn().Err(err).Msg(errmsg.Format(errmsg.OpProgressSave, err))
			}
		}()
		r.cache = mgr
	}

	var c *course.Course
	switch {
	case courseID != "":
		var err error
		c, err = course.FromConfig(cfg, courseID)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpCourseLoad, courseID, err))
		}
		if err := restoreCourse(c, r.cache); err != nil {
			return err
		}
		if lessonID == "" {
			l := c.Resume()
			if l == nil {
				return errors.New(errmsg.FormatWith(errmsg.OpCourseLoad, courseID, errNoLessons))
			}
			lessonID = l.ID
			lr.LessonID = l.ID
		}
		idx := c.Index(lessonID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", course.ErrUnknownLesson, lessonID)
		}
		if !c.Unlocked(idx) {
			return fmt.Errorf("%w: finish the earlier lessons of %s first", course.ErrLocked, c.Title)
		}
		l := c.Lessons()[idx]
		lr.Ref, lr.Title = l.Video, l.Title
		if l.Duration > 0 && !f.Changed("duration") {
			duration = l.Duration
		}
		if threshold <= 0 {
			threshold = c.Threshold(idx)
		}
	case len(args) == 1:
		id, err := source.Parse(args[0])
		if err != nil {
			return err
		}
		lr.Ref = args[0]
		lr.CourseID = adhocCourse
		if lr.LessonID == "" {
			lr.LessonID = id.String()
		}
		if threshold <= 0 {
			threshold = cfg.Threshold(lr.CourseID)
		}
	default:
		return errNoVideo
	}
	if lr.Title == "" {
		lr.Title = lr.LessonID
	}

	ec, err := cfg.EngineWithThreshold(threshold)
	if err != nil {
		return err
	}
	lr.Config = ec

	if !noNotify {
		n, err := notify.New()
		if err != nil {
			return err
		}
		r.notices = notify.NewForwarder(n, lr.Title)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sim := adapter.NewSim(duration, loadDelay)
	defer sim.Destroy()

	s, err := r.run(ctx, sim, lr)
	if showMetrics {
		defer func() {
			if err := metrics.WriteText(r.out, prometheus.DefaultGatherer); err != nil {
				r.logger.Warn().Err(err).Msg("metrics dump failed")
			}
		}()
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		fmt.Fprintf(r.out, "stopped at %s, %s watched\n", formatClock(s.CurrentTime), formatPercent(s.ActualPercentage))
		return nil
	}
	if err != nil {
		var lerr *lesson.Error
		if errors.As(err, &lerr) {
			return errors.New(lerr.Message())
		}
		return err
	}

	if c != nil && s.HasCompletedOnce {
		_ = c.MarkComplete(lessonID)
		_, _ = c.JumpTo(c.Index(lessonID))
		if c.CanAdvance() {
			next := c.Lessons()[c.CurrentIndex()+1]
			fmt.Fprintf(r.out, "next lesson unlocked: %s\n", next.ID)
		} else if c.Done() {
			fmt.Fprintf(r.out, "course %s complete\n", c.Title)
		}
	}
	return nil
}

// restoreCourse marks the lessons the cache knows as completed.
func restoreCourse(c *course.Course, cache state.Interface) error {
	if cache == nil {
		return nil
	}
	list, err := cache.ListProgress(c.ID)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpProgressLoad, c.ID, err))
	}
	for _, p := range list {
		if p.Completed() {
			_ = c.MarkComplete(p.LessonID)
		}
	}
	return nil
}
