package state

import (
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/lessongate/internal/db"
	"github.com/llehouerou/lessongate/internal/lesson"
)

// LessonProgress is the cached progress of one lesson.
type LessonProgress struct {
	CourseID string
	LessonID string
	VideoID  string

	// Position is where the learner left off; Actual is the furthest
	// percentage ever reached and only grows.
	Position time.Duration
	Duration time.Duration
	Actual   float64

	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// Completed reports whether the lesson was ever completed.
func (p LessonProgress) Completed() bool {
	return p.CompletedAt != nil
}

// ResumeHint converts cached progress into the hint a new session starts
// from: the last position, bounded by the furthest progress reached.
func (p LessonProgress) ResumeHint() lesson.ResumeHint {
	return lesson.ResumeHint{
		InitialPosition:          p.Position,
		ExternalActualPercentage: p.Actual,
	}
}

// merge folds a newer update into p. Furthest progress and completion
// never regress.
func (p LessonProgress) merge(next LessonProgress) LessonProgress {
	next.Actual = max(p.Actual, next.Actual)
	if next.CompletedAt == nil {
		next.CompletedAt = p.CompletedAt
	}
	if next.VideoID == "" {
		next.VideoID = p.VideoID
	}
	if next.Duration == 0 {
		next.Duration = p.Duration
	}
	return next
}

func getProgress(conn *sql.DB, courseID, lessonID string) (*LessonProgress, error) {
	row := conn.QueryRow(`
		SELECT course_id, lesson_id, video_id, position_ms, duration_ms, actual_pct, completed_at, updated_at
		FROM lesson_progress
		WHERE course_id = ? AND lesson_id = ?
	`, courseID, lessonID)

	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func listProgress(conn *sql.DB, courseID string) ([]LessonProgress, error) {
	rows, err := conn.Query(`
		SELECT course_id, lesson_id, video_id, position_ms, duration_ms, actual_pct, completed_at, updated_at
		FROM lesson_progress
		WHERE course_id = ?
		ORDER BY lesson_id
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LessonProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(s scanner) (LessonProgress, error) {
	var (
		p           LessonProgress
		videoID     sql.NullString
		positionMS  int64
		durationMS  int64
		completedAt sql.NullInt64
		updatedAt   int64
	)
	err := s.Scan(&p.CourseID, &p.LessonID, &videoID, &positionMS, &durationMS, &p.Actual, &completedAt, &updatedAt)
	if err != nil {
		return LessonProgress{}, err
	}
	p.VideoID = videoID.String
	p.Position = db.FromMillis(positionMS)
	p.Duration = db.FromMillis(durationMS)
	p.CompletedAt = db.FromUnix(completedAt)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return p, nil
}

// saveProgress upserts p. The furthest percentage and the first
// completion time are kept when the stored row is ahead.
func saveProgress(tx *sql.Tx, p LessonProgress) error {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := tx.Exec(`
		INSERT INTO lesson_progress (course_id, lesson_id, video_id, position_ms, duration_ms, actual_pct, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_id, lesson_id) DO UPDATE SET
			video_id = COALESCE(excluded.video_id, video_id),
			position_ms = excluded.position_ms,
			duration_ms = CASE WHEN excluded.duration_ms > 0 THEN excluded.duration_ms ELSE duration_ms END,
			actual_pct = MAX(actual_pct, excluded.actual_pct),
			completed_at = COALESCE(completed_at, excluded.completed_at),
			updated_at = excluded.updated_at
	`, p.CourseID, p.LessonID, db.StringOrNull(p.VideoID), db.Millis(p.Position), db.Millis(p.Duration),
		p.Actual, db.UnixOrNull(p.CompletedAt), updatedAt.Unix())
	return err
}
