package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// GetConfig unmarshals the JSONB value stored under (module, key) into out.
// Returns ErrNotFound if no row exists.
func (s *Store) GetConfig(ctx context.Context, module, key string, out any) error {
	var raw []byte
	err := s.Pool.QueryRow(ctx, `SELECT value FROM config WHERE module = $1 AND key = $2`,
		module, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return errors.Wrap(err, "store: get config")
	}
	return json.Unmarshal(raw, out)
}

// SetConfig marshals value and upserts it under (module, key).
func (s *Store) SetConfig(ctx context.Context, module, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "store: marshal config value")
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO config (module, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (module, key) DO UPDATE SET value = EXCLUDED.value`,
		module, key, raw)
	if err != nil {
		return errors.Wrap(err, "store: set config")
	}
	return nil
}

// DeleteConfig removes the (module, key) row, if any.
func (s *Store) DeleteConfig(ctx context.Context, module, key string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM config WHERE module = $1 AND key = $2`, module, key)
	if err != nil {
		return errors.Wrap(err, "store: delete config")
	}
	return nil
}
