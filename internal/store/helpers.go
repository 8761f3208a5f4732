package store

import (
	"time"

	"github.com/google/uuid"
)

// nullTime scans a nullable timestamptz into a zero time.Time, matching the
// Job/Worker fields that are time.Time (not *time.Time) and use IsZero as
// their "unset" sentinel.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(v any) error {
	if v == nil {
		*n = nullTime{}
		return nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return errScanType("time.Time", v)
	}
	*n = nullTime{Time: t, Valid: true}
	return nil
}

func toNullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toNullUUID(id uuid.UUID) uuid.NullUUID {
	if id == uuid.Nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}

func errScanType(want string, got any) error {
	return scanTypeError{want: want, got: got}
}

type scanTypeError struct {
	want string
	got  any
}

func (e scanTypeError) Error() string {
	return "store: cannot scan into " + e.want
}
