// Package metrics exposes Prometheus instruments for lesson playback.
package metrics

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const namePrefix = "lessongate_"

// Seek origins.
const (
	SeekOriginMonitor = "monitor"
	SeekOriginControl = "control"
	SeekOriginTracker = "tracker"
	seekOriginUnknown = "unknown"
)

var (
	guardCorrectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessongate_guard_corrections_total",
		Help: "Forward seeks past watched content that were pulled back, by origin",
	}, []string{"origin"})

	lessonCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lessongate_lesson_completions_total",
		Help: "Lesson sessions that crossed their completion threshold",
	})

	commandRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessongate_command_retries_total",
		Help: "Player commands re-issued because the player did not reflect them",
	}, []string{"command"})

	commandFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessongate_command_failures_total",
		Help: "Player commands that exhausted their retries",
	}, []string{"command"})

	providerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessongate_provider_errors_total",
		Help: "Playback errors reported by the embedded player, by provider code",
	}, []string{"code"})

	resumeOffsetSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lessongate_resume_offset_seconds",
		Help:    "Position sessions resumed from",
		Buckets: []float64{0, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	})
)

// IncGuardCorrection counts a pulled-back forward seek.
func IncGuardCorrection(origin string) {
	guardCorrectionsTotal.WithLabelValues(normalizeOrigin(origin)).Inc()
}

// IncCompletion counts a lesson completion.
func IncCompletion() {
	lessonCompletionsTotal.Inc()
}

// IncCommandRetry counts a re-issued play/pause command.
func IncCommandRetry(command string) {
	commandRetriesTotal.WithLabelValues(normalizeCommand(command)).Inc()
}

// IncCommandFailure counts a command that gave up.
func IncCommandFailure(command string) {
	commandFailuresTotal.WithLabelValues(normalizeCommand(command)).Inc()
}

// IncProviderError counts a provider playback error.
func IncProviderError(code int) {
	providerErrorsTotal.WithLabelValues(normalizeCode(code)).Inc()
}

// ObserveResumeOffset records the position a session resumed at.
func ObserveResumeOffset(seconds float64) {
	resumeOffsetSeconds.Observe(seconds)
}

func normalizeOrigin(origin string) string {
	switch origin {
	case SeekOriginMonitor, SeekOriginControl, SeekOriginTracker:
		return origin
	default:
		return seekOriginUnknown
	}
}

func normalizeCommand(command string) string {
	switch command {
	case "play", "pause":
		return command
	default:
		return "other"
	}
}

// Provider codes are a small fixed set; anything else collapses into one label.
func normalizeCode(code int) string {
	switch code {
	case 2, 5, 100, 101, 150:
		return strconv.Itoa(code)
	default:
		return "other"
	}
}

// WriteText writes the lessongate families gathered from g in the
// Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namePrefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
