package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/lessongate/internal/lesson"
)

type Config struct {
	// Playback timings; zero values fall back to the lesson defaults.
	Playback PlaybackConfig `koanf:"playback"`

	// Completion policy shared by every course without its own threshold.
	Completion CompletionConfig `koanf:"completion"`

	// Courses keyed by course id.
	Courses map[string]CourseConfig `koanf:"courses"`

	Log   LogConfig   `koanf:"log"`
	State StateConfig `koanf:"state"`
}

// PlaybackConfig holds tracker, guard and retry timings.
type PlaybackConfig struct {
	TrackInterval      time.Duration `koanf:"track_interval"`       // default: 1s
	GuardInterval      time.Duration `koanf:"guard_interval"`       // default: 250ms
	SeekTolerance      time.Duration `koanf:"seek_tolerance"`       // default: 3s
	SkipStep           time.Duration `koanf:"skip_step"`            // default: 10s
	DurationRetries    int           `koanf:"duration_retries"`     // default: 5
	DurationRetryDelay time.Duration `koanf:"duration_retry_delay"` // default: 100ms
	CommandRetries     int           `koanf:"command_retries"`      // default: 3
	CommandRetryDelay  time.Duration `koanf:"command_retry_delay"`  // default: 150ms
}

// CompletionConfig holds the fallback completion threshold.
type CompletionConfig struct {
	DefaultThreshold float64 `koanf:"default_threshold"` // percent, e.g. 80 or 95
}

// CourseConfig describes one course and its lessons, in order.
type CourseConfig struct {
	Title     string         `koanf:"title"`
	Threshold float64        `koanf:"threshold"` // overrides completion.default_threshold
	Lessons   []LessonConfig `koanf:"lessons"`
}

// LessonConfig describes one lesson of a course.
type LessonConfig struct {
	ID        string        `koanf:"id"`
	Title     string        `koanf:"title"`
	Video     string        `koanf:"video"`     // video id or URL
	Duration  time.Duration `koanf:"duration"`  // length used by the simulated player
	Threshold float64       `koanf:"threshold"` // overrides the course threshold
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `koanf:"level"` // "debug", "info", ... (default: info)
}

// StateConfig holds the local resume cache options.
type StateConfig struct {
	Path string `koanf:"path"` // sqlite file (default: XDG data dir)
}

// Load reads the config files in priority order.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files; later files override earlier ones.
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.State.Path != "" {
		cfg.State.Path = expandPath(cfg.State.Path)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/lessongate/config.toml
		filepath.Join(xdg.ConfigHome, "lessongate", "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Threshold returns the completion threshold for a course, falling back to
// completion.default_threshold. Zero means no threshold is configured.
func (c *Config) Threshold(courseID string) float64 {
	if course, ok := c.Courses[courseID]; ok && course.Threshold > 0 {
		return course.Threshold
	}
	return c.Completion.DefaultThreshold
}

// Engine returns the lesson engine configuration for a course. The result
// is validated; a missing threshold is an error.
func (c *Config) Engine(courseID string) (lesson.Config, error) {
	cfg, err := c.EngineWithThreshold(c.Threshold(courseID))
	if err != nil {
		return lesson.Config{}, fmt.Errorf("course %q: %w", courseID, err)
	}
	return cfg, nil
}

// EngineWithThreshold returns the engine configuration with an explicit
// completion threshold. Zero timings keep the engine defaults.
func (c *Config) EngineWithThreshold(threshold float64) (lesson.Config, error) {
	p := c.Playback
	cfg := lesson.Config{
		CompletionThreshold: threshold,
		TrackInterval:       p.TrackInterval,
		GuardInterval:       p.GuardInterval,
		SeekTolerance:       p.SeekTolerance,
		SkipStep:            p.SkipStep,
		DurationRetries:     p.DurationRetries,
		DurationRetryDelay:  p.DurationRetryDelay,
		CommandRetries:      p.CommandRetries,
		CommandRetryDelay:   p.CommandRetryDelay,
	}
	if err := cfg.Validate(); err != nil {
		return lesson.Config{}, err
	}
	return cfg, nil
}
