package state

import (
	"database/sql"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS lesson_progress (
			course_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			video_id TEXT,
			position_ms INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			actual_pct REAL NOT NULL DEFAULT 0,
			completed_at INTEGER,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (course_id, lesson_id)
		);

		CREATE INDEX IF NOT EXISTS idx_lesson_progress_course ON lesson_progress(course_id);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: add duration_ms column if missing
	_, _ = db.Exec(`ALTER TABLE lesson_progress ADD COLUMN duration_ms INTEGER NOT NULL DEFAULT 0`)

	return nil
}
