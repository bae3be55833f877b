// internal/state/interface.go
package state

// Interface defines the progress cache contract for dependency injection and testing.
type Interface interface {
	GetProgress(courseID, lessonID string) (*LessonProgress, error)
	ListProgress(courseID string) ([]LessonProgress, error)
	SaveProgress(p LessonProgress)
	Flush() error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
