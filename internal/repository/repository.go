package repository

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned by the caller
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when an optimistic update lost a race
	ErrVersionConflict = errors.New("version conflict")
)

// dbTime normalizes a timestamp to UTC at microsecond precision so it
// round-trips identically through every dialect.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dbTime(t), Valid: true}
}
