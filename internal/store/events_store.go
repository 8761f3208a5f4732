package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/events"
)

// AddEvent implements events.Sink, inserting a new event and assigning a
// UUID/Time if unset.
func (s *Store) AddEvent(ctx context.Context, e *events.EventEntry) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO events (uuid, kind, module, time, title, text)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.UUID, e.Kind, e.Module, e.Time, e.Title, e.Text)
	if err != nil {
		return errors.Wrap(err, "store: add event")
	}
	return nil
}

// RecentEvents returns up to limit events for module (empty: all modules),
// newest first.
func (s *Store) RecentEvents(ctx context.Context, module string, limit int) ([]*events.EventEntry, error) {
	var rows pgx.Rows
	var err error
	if module == "" {
		rows, err = s.Pool.Query(ctx, `SELECT uuid, kind, module, time, title, text
			FROM events ORDER BY time DESC LIMIT $1`, limit)
	} else {
		rows, err = s.Pool.Query(ctx, `SELECT uuid, kind, module, time, title, text
			FROM events WHERE module = $1 ORDER BY time DESC LIMIT $2`, module, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: recent events")
	}
	defer rows.Close()

	var out []*events.EventEntry
	for rows.Next() {
		var e events.EventEntry
		if err := rows.Scan(&e.UUID, &e.Kind, &e.Module, &e.Time, &e.Title, &e.Text); err != nil {
			return nil, errors.Wrap(err, "store: scan event")
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

var _ events.Sink = (*Store)(nil)
