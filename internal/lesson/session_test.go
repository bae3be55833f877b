package lesson

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_EffectiveMax(t *testing.T) {
	tests := []struct {
		name       string
		maxWatched time.Duration
		duration   time.Duration
		external   float64
		want       time.Duration
	}{
		{"local only", 30 * time.Second, 100 * time.Second, 0, 30 * time.Second},
		{"external wins", 30 * time.Second, 200 * time.Second, 50, 100 * time.Second},
		{"local wins", 150 * time.Second, 200 * time.Second, 50, 150 * time.Second},
		{"duration unknown ignores external", 10 * time.Second, 0, 90, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{MaxWatched: tt.maxWatched, Duration: tt.duration, ExternalActualPercentage: tt.external}
			assert.Equal(t, tt.want, s.EffectiveMax())
		})
	}
}

func TestSession_Clamp(t *testing.T) {
	s := Session{MaxWatched: 40 * time.Second, Duration: 200 * time.Second, ExternalActualPercentage: 50}

	tests := []struct {
		name           string
		requested      time.Duration
		want           time.Duration
		wantRestricted bool
	}{
		{"backward", 10 * time.Second, 10 * time.Second, false},
		{"at limit", 100 * time.Second, 100 * time.Second, false},
		{"beyond limit", 150 * time.Second, 100 * time.Second, true},
		{"beyond duration", time.Hour, 100 * time.Second, true},
		{"negative", -5 * time.Second, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, restricted := s.clamp(tt.requested)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRestricted, restricted)
		})
	}
}

func TestSession_ObserveRewindKeepsActual(t *testing.T) {
	s := newSession(ResumeHint{})
	d := 100 * time.Second

	assert.True(t, s.observe(40*time.Second, d))
	assert.InDelta(t, 40, s.ActualPercentage, 1e-9)

	assert.False(t, s.observe(10*time.Second, d))
	assert.InDelta(t, 10, s.WatchPercentage, 1e-9)
	assert.InDelta(t, 40, s.ActualPercentage, 1e-9)
	assert.Equal(t, 40*time.Second, s.MaxWatched)
}

func TestSession_ObserveNeverBelowExternal(t *testing.T) {
	s := newSession(ResumeHint{ExternalActualPercentage: 60})
	s.observe(20*time.Second, 100*time.Second)
	assert.InDelta(t, 60, s.ActualPercentage, 1e-9)
}

func TestSession_ObserveMonotonic(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	d := 600 * time.Second

	for run := range 50 {
		s := newSession(ResumeHint{ExternalActualPercentage: float64(r.IntN(100))})
		var lastMax time.Duration
		lastActual := s.ActualPercentage

		for range 200 {
			pos := time.Duration(r.Int64N(int64(d)))
			s.observe(pos, d)
			if s.MaxWatched < lastMax {
				t.Fatalf("run %d: MaxWatched decreased from %v to %v", run, lastMax, s.MaxWatched)
			}
			if s.ActualPercentage < lastActual {
				t.Fatalf("run %d: ActualPercentage decreased from %v to %v", run, lastActual, s.ActualPercentage)
			}
			lastMax, lastActual = s.MaxWatched, s.ActualPercentage
		}
	}
}

func TestResumePosition(t *testing.T) {
	d := 600 * time.Second
	tests := []struct {
		name string
		hint ResumeHint
		want time.Duration
	}{
		{"empty", ResumeHint{}, 0},
		{"exact position wins", ResumeHint{InitialPosition: 120 * time.Second, InitialProgressPercentage: 90}, 120 * time.Second},
		{"position capped at duration", ResumeHint{InitialPosition: time.Hour}, d},
		{"initial percentage", ResumeHint{InitialProgressPercentage: 25}, 150 * time.Second},
		{"external larger", ResumeHint{InitialProgressPercentage: 25, ExternalActualPercentage: 50}, 300 * time.Second},
		{"percentage above 100", ResumeHint{InitialProgressPercentage: 250}, d},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resumePosition(tt.hint, d))
		})
	}
}

func TestIsSupportedRate(t *testing.T) {
	for _, r := range []float64{0.25, 0.5, 1, 1.5, 2} {
		assert.True(t, isSupportedRate(r), "rate %v", r)
	}
	for _, r := range []float64{0, 0.3, 2.5, 3, -1} {
		assert.False(t, isSupportedRate(r), "rate %v", r)
	}
}
