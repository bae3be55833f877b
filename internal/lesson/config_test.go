package lesson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig(80)
	assert.InDelta(t, 80, c.CompletionThreshold, 1e-9)
	assert.Equal(t, time.Second, c.TrackInterval)
	assert.Equal(t, 250*time.Millisecond, c.GuardInterval)
	assert.Equal(t, 3*time.Second, c.SeekTolerance)
	assert.Equal(t, 10*time.Second, c.SkipStep)
	assert.Equal(t, 5, c.DurationRetries)
	assert.Equal(t, 3, c.CommandRetries)
	assert.NoError(t, c.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing threshold", Config{}, true},
		{"threshold above 100", Config{CompletionThreshold: 101}, true},
		{"negative threshold", Config{CompletionThreshold: -5}, true},
		{"threshold 100", Config{CompletionThreshold: 100}, false},
		{"threshold 95 defaults", Config{CompletionThreshold: 95}, false},
		{
			"tolerance below tracker lead",
			Config{CompletionThreshold: 80, TrackInterval: 2 * time.Second, SeekTolerance: 3 * time.Second},
			true,
		},
		{
			"guard slower than tracker",
			Config{CompletionThreshold: 80, GuardInterval: 2 * time.Second},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
