// internal/state/mock.go
package state

import (
	"slices"
	"strings"
	"sync"
)

// Mock is a test double for Manager.
type Mock struct {
	mu       sync.Mutex
	progress map[progressKey]LessonProgress
	saves    int
	closed   bool
}

// NewMock creates a new mock progress cache for testing.
func NewMock() *Mock {
	return &Mock{progress: make(map[progressKey]LessonProgress)}
}

func (m *Mock) GetProgress(courseID, lessonID string) (*LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progressKey{courseID, lessonID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Mock) ListProgress(courseID string) ([]LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LessonProgress
	for k, p := range m.progress {
		if k.course == courseID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b LessonProgress) int {
		return strings.Compare(a.LessonID, b.LessonID)
	})
	return out, nil
}

func (m *Mock) SaveProgress(p LessonProgress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := progressKey{p.CourseID, p.LessonID}
	if prev, ok := m.progress[key]; ok {
		p = prev.merge(p)
	}
	m.progress[key] = p
	m.saves++
}

func (m *Mock) Flush() error { return nil }

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *Mock) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
