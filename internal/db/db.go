// Package db holds the sqlite helpers shared by the resume cache:
// transactions and the column encodings for durations and timestamps.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WithTx runs fn in a transaction, committing only if fn succeeds.
func WithTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Millis encodes d for an INTEGER millisecond column.
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}

// FromMillis decodes a millisecond column. Negative values read as zero.
func FromMillis(ms int64) time.Duration {
	return time.Duration(max(ms, 0)) * time.Millisecond
}

// UnixOrNull encodes an optional timestamp as unix seconds or NULL.
func UnixOrNull(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// FromUnix decodes an optional unix-seconds column.
func FromUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}

// StringOrNull encodes s, storing the empty string as NULL.
func StringOrNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
