// Package course orders lessons and gates each one behind completion of
// the lessons before it.
package course

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/llehouerou/lessongate/internal/config"
)

var (
	ErrUnknownCourse = errors.New("unknown course")
	ErrUnknownLesson = errors.New("unknown lesson")
	ErrLocked        = errors.New("lesson locked")
)

// Lesson is one entry of a course.
type Lesson struct {
	ID       string
	Title    string
	Video    string
	Duration time.Duration
	// Threshold overrides the course threshold when positive.
	Threshold float64
}

// Course is an ordered lesson list with a cursor on the current lesson.
type Course struct {
	ID    string
	Title string

	threshold    float64
	lessons      []Lesson
	completed    map[string]bool
	currentIndex int // -1 before the first JumpTo
}

// New creates a course. threshold applies to lessons without their own.
func New(id, title string, threshold float64, lessons ...Lesson) *Course {
	return &Course{
		ID:           id,
		Title:        title,
		threshold:    threshold,
		lessons:      append([]Lesson(nil), lessons...),
		completed:    make(map[string]bool),
		currentIndex: -1,
	}
}

// FromConfig builds the course configured under courses.<id>.
func FromConfig(cfg *config.Config, id string) (*Course, error) {
	cc, ok := cfg.Courses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCourse, id)
	}
	lessons := make([]Lesson, 0, len(cc.Lessons))
	for i, lc := range cc.Lessons {
		lid := lc.ID
		if lid == "" {
			lid = strconv.Itoa(i + 1)
		}
		lessons = append(lessons, Lesson{
			ID:        lid,
			Title:     lc.Title,
			Video:     lc.Video,
			Duration:  lc.Duration,
			Threshold: lc.Threshold,
		})
	}
	title := cc.Title
	if title == "" {
		title = id
	}
	return New(id, title, cfg.Threshold(id), lessons...), nil
}

// Lessons returns all lessons in order.
func (c *Course) Lessons() []Lesson {
	return append([]Lesson(nil), c.lessons...)
}

// Len returns the number of lessons.
func (c *Course) Len() int {
	return len(c.lessons)
}

// Index returns the position of a lesson, or -1.
func (c *Course) Index(lessonID string) int {
	for i, l := range c.lessons {
		if l.ID == lessonID {
			return i
		}
	}
	return -1
}

// Threshold returns the completion threshold of the lesson at index.
func (c *Course) Threshold(index int) float64 {
	if index >= 0 && index < len(c.lessons) && c.lessons[index].Threshold > 0 {
		return c.lessons[index].Threshold
	}
	return c.threshold
}

// MarkComplete records a completed lesson. Completion is never undone.
func (c *Course) MarkComplete(lessonID string) error {
	if c.Index(lessonID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLesson, lessonID)
	}
	c.completed[lessonID] = true
	return nil
}

// IsComplete reports whether a lesson was completed.
func (c *Course) IsComplete(lessonID string) bool {
	return c.completed[lessonID]
}

// Unlocked reports whether the lesson at index may be opened: every
// lesson before it is complete.
func (c *Course) Unlocked(index int) bool {
	if index < 0 || index >= len(c.lessons) {
		return false
	}
	for _, l := range c.lessons[:index] {
		if !c.completed[l.ID] {
			return false
		}
	}
	return true
}

// Current returns the current lesson, or nil if none.
func (c *Course) Current() *Lesson {
	if c.currentIndex < 0 || c.currentIndex >= len(c.lessons) {
		return nil
	}
	l := c.lessons[c.currentIndex]
	return &l
}

// CurrentIndex returns the index of the current lesson (-1 if none).
func (c *Course) CurrentIndex() int {
	return c.currentIndex
}

// JumpTo opens the lesson at index if it is unlocked.
func (c *Course) JumpTo(index int) (*Lesson, error) {
	if index < 0 || index >= len(c.lessons) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownLesson, index)
	}
	if !c.Unlocked(index) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, c.lessons[index].ID)
	}
	c.currentIndex = index
	return c.Current(), nil
}

// Resume opens the first lesson that is not complete yet, or the last
// lesson when the whole course is done.
func (c *Course) Resume() *Lesson {
	if len(c.lessons) == 0 {
		return nil
	}
	for i, l := range c.lessons {
		if !c.completed[l.ID] {
			c.currentIndex = i
			return c.Current()
		}
	}
	c.currentIndex = len(c.lessons) - 1
	return c.Current()
}

// HasNext returns true if there's a lesson after the current one.
func (c *Course) HasNext() bool {
	return c.currentIndex < len(c.lessons)-1
}

// CanAdvance reports whether the learner may move past the current lesson.
func (c *Course) CanAdvance() bool {
	cur := c.Current()
	return cur != nil && c.HasNext() && c.completed[cur.ID]
}

// Next advances to the following lesson once the current one is complete.
// It returns nil at the end of the course.
func (c *Course) Next() (*Lesson, error) {
	if !c.HasNext() {
		return nil, nil
	}
	if cur := c.Current(); cur != nil && !c.completed[cur.ID] {
		return nil, fmt.Errorf("%w: complete %s first", ErrLocked, cur.ID)
	}
	return c.JumpTo(c.currentIndex + 1)
}

// Done reports whether every lesson is complete.
func (c *Course) Done() bool {
	for _, l := range c.lessons {
		if !c.completed[l.ID] {
			return false
		}
	}
	return len(c.lessons) > 0
}
