package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`CREATE TABLE watch (lesson TEXT PRIMARY KEY, position_ms INTEGER, completed_at INTEGER)`)
	require.NoError(t, err)
	return conn
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM watch`).Scan(&n))
	return n
}

func TestWithTx_Commits(t *testing.T) {
	conn := openTestDB(t)

	err := WithTx(context.Background(), conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO watch VALUES ('intro', 1000, NULL)`); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO watch VALUES ('types', 2000, NULL)`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, countRows(t, conn))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	conn := openTestDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO watch VALUES ('intro', 1000, NULL)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, countRows(t, conn))
}

func TestWithTx_CanceledContext(t *testing.T) {
	conn := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithTx(ctx, conn, func(*sql.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestMillisRoundTrip(t *testing.T) {
	assert.Equal(t, int64(90500), Millis(90*time.Second+500*time.Millisecond))
	assert.Equal(t, 90*time.Second+500*time.Millisecond, FromMillis(90500))
	assert.Zero(t, FromMillis(-5))
}

func TestUnixColumns(t *testing.T) {
	assert.False(t, UnixOrNull(nil).Valid)
	assert.False(t, UnixOrNull(&time.Time{}).Valid)
	assert.Nil(t, FromUnix(sql.NullInt64{}))

	ts := time.Unix(1_700_000_000, 0)
	n := UnixOrNull(&ts)
	require.True(t, n.Valid)
	got := FromUnix(n)
	require.NotNil(t, got)
	assert.True(t, ts.Equal(*got))
}

func TestStringOrNull(t *testing.T) {
	assert.False(t, StringOrNull("").Valid)
	assert.Equal(t, sql.NullString{String: "dQw4w9WgXcQ", Valid: true}, StringOrNull("dQw4w9WgXcQ"))
}

func TestNullableColumnsThroughSQLite(t *testing.T) {
	conn := openTestDB(t)
	done := time.Unix(1_700_000_000, 0)

	_, err := conn.Exec(`INSERT INTO watch VALUES (?, ?, ?), (?, ?, ?)`,
		"intro", Millis(time.Minute), UnixOrNull(&done),
		"types", Millis(0), UnixOrNull(nil))
	require.NoError(t, err)

	var (
		pos       int64
		completed sql.NullInt64
	)
	require.NoError(t, conn.QueryRow(`SELECT position_ms, completed_at FROM watch WHERE lesson = 'intro'`).Scan(&pos, &completed))
	assert.Equal(t, time.Minute, FromMillis(pos))
	require.NotNil(t, FromUnix(completed))
	assert.True(t, done.Equal(*FromUnix(completed)))

	require.NoError(t, conn.QueryRow(`SELECT position_ms, completed_at FROM watch WHERE lesson = 'types'`).Scan(&pos, &completed))
	assert.Nil(t, FromUnix(completed))
}
