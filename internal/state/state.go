// Package state keeps a local cache of lesson progress so a learner can
// resume where they left off.
package state

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/lessongate/internal/db"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/log"
)

const (
	appName      = "lessongate"
	dbFileName   = "lessongate.db"
	saveDebounce = 500 * time.Millisecond
)

type progressKey struct {
	course, lesson string
}

type Manager struct {
	db        *sql.DB
	logger    zerolog.Logger
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   map[progressKey]LessonProgress
}

// Open opens the cache at path, or at the XDG data location when path is
// empty.
func Open(path string) (*Manager, error) {
	if path == "" {
		p, err := getDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return newManager(conn), nil
}

func newManager(conn *sql.DB) *Manager {
	return &Manager{
		db:      conn,
		logger:  log.WithComponent("state"),
		pending: make(map[progressKey]LessonProgress),
	}
}

func (m *Manager) Close() error {
	flushErr := m.Flush()
	if err := m.db.Close(); err != nil {
		return err
	}
	return flushErr
}

// GetProgress returns the stored progress for a lesson, or nil when the
// lesson was never opened. Pending saves are included.
func (m *Manager) GetProgress(courseID, lessonID string) (*LessonProgress, error) {
	stored, err := getProgress(m.db, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	m.saveMu.Lock()
	p, ok := m.pending[progressKey{courseID, lessonID}]
	m.saveMu.Unlock()
	if !ok {
		return stored, nil
	}
	if stored != nil {
		p = stored.merge(p)
	}
	return &p, nil
}

// ListProgress returns stored progress for every lesson of a course.
func (m *Manager) ListProgress(courseID string) ([]LessonProgress, error) {
	if err := m.Flush(); err != nil {
		return nil, err
	}
	return listProgress(m.db, courseID)
}

// SaveProgress queues a progress update. Updates arrive on every tracker
// tick, so writes are coalesced and happen after a short quiet period.
func (m *Manager) SaveProgress(p LessonProgress) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	key := progressKey{p.CourseID, p.LessonID}
	if prev, ok := m.pending[key]; ok {
		p = prev.merge(p)
	}
	m.pending[key] = p

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		if err := m.Flush(); err != nil {
			m.logger.Error().Err(err).Msg(errmsg.Format(errmsg.OpProgressSave, err))
		}
	})
}

// Flush writes queued updates immediately.
func (m *Manager) Flush() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}
	pending := m.pending
	m.pending = make(map[progressKey]LessonProgress)
	m.saveMu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	return db.WithTx(context.Background(), m.db, func(tx *sql.Tx) error {
		for _, p := range pending {
			if err := saveProgress(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
