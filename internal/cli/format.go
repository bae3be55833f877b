package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/lessongate/internal/lesson"
	"github.com/llehouerou/lessongate/internal/state"
)

// formatClock renders d as m:ss, or h:mm:ss past an hour.
func formatClock(d time.Duration) string {
	d = max(d, 0).Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatPercent(p float64) string {
	return humanize.Ftoa(math.Round(p*10)/10) + "%"
}

func formatProgress(u lesson.ProgressUpdate) string {
	return fmt.Sprintf("%s / %s  watching %s  furthest %s",
		formatClock(u.Current), formatClock(u.Duration),
		formatPercent(u.WatchPercentage), formatPercent(u.ActualPercentage))
}

// lessonStatus describes a lesson line of the course listing.
func lessonStatus(unlocked bool, p *state.LessonProgress) string {
	switch {
	case p != nil && p.Completed():
		return "completed " + humanize.Time(*p.CompletedAt)
	case !unlocked:
		return "locked"
	case p != nil:
		return formatPercent(p.Actual) + " watched, last seen " + humanize.Time(p.UpdatedAt)
	default:
		return "not started"
	}
}
