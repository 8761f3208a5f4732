package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/spears"
)

// excuseData is the JSONB payload of spears_excuses.data: everything beyond
// the indexed columns (migration_id, source_package, date, source_suite,
// target_suite, is_candidate, maintainer).
type excuseData struct {
	NewVersion    string                 `json:"newVersion"`
	OldVersion    string                 `json:"oldVersion"`
	Age           spears.AgeInfo         `json:"age"`
	MissingBuilds spears.MissingBuilds   `json:"missingBuilds"`
	OldBinaries   []spears.OldBinary     `json:"oldBinaries"`
	Reason        spears.Reason          `json:"reason"`
}

// ReplaceExcuses implements spears.Store: a fresh migration run supersedes
// the previous excuse set for migrationID entirely.
func (s *Store) ReplaceExcuses(ctx context.Context, migrationID string, excuses []*spears.Excuse) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "store: begin replace excuses")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM spears_excuses WHERE migration_id = $1`, migrationID); err != nil {
		return errors.Wrap(err, "store: clear excuses")
	}
	for _, ex := range excuses {
		data, err := json.Marshal(excuseData{
			NewVersion:    ex.NewVersion,
			OldVersion:    ex.OldVersion,
			Age:           ex.Age,
			MissingBuilds: ex.MissingBuilds,
			OldBinaries:   ex.OldBinaries,
			Reason:        ex.Reason,
		})
		if err != nil {
			return errors.Wrap(err, "store: marshal excuse")
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO spears_excuses
				(migration_id, source_package, date, source_suite, target_suite, is_candidate, maintainer, data)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			migrationID, ex.SourcePackage, ex.Date, ex.SourceSuite, ex.TargetSuite, ex.IsCandidate, ex.Maintainer, data)
		if err != nil {
			return errors.Wrap(err, "store: insert excuse")
		}
	}
	return errors.Wrap(tx.Commit(ctx), "store: commit replace excuses")
}

// ExcusesForMigration returns the most recently recorded excuses for migrationID.
func (s *Store) ExcusesForMigration(ctx context.Context, migrationID string) ([]*spears.Excuse, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT migration_id, source_package, date, source_suite, target_suite, is_candidate, maintainer, data
		FROM spears_excuses WHERE migration_id = $1 ORDER BY source_package`, migrationID)
	if err != nil {
		return nil, errors.Wrap(err, "store: excuses for migration")
	}
	defer rows.Close()
	return scanExcuses(rows)
}

func scanExcuses(rows pgx.Rows) ([]*spears.Excuse, error) {
	var out []*spears.Excuse
	for rows.Next() {
		var ex spears.Excuse
		var data []byte
		if err := rows.Scan(&ex.MigrationID, &ex.SourcePackage, &ex.Date, &ex.SourceSuite,
			&ex.TargetSuite, &ex.IsCandidate, &ex.Maintainer, &data); err != nil {
			return nil, errors.Wrap(err, "store: scan excuse")
		}
		var d excuseData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, errors.Wrap(err, "store: unmarshal excuse data")
		}
		ex.NewVersion = d.NewVersion
		ex.OldVersion = d.OldVersion
		ex.Age = d.Age
		ex.MissingBuilds = d.MissingBuilds
		ex.OldBinaries = d.OldBinaries
		ex.Reason = d.Reason
		out = append(out, &ex)
	}
	return out, rows.Err()
}

var _ spears.Store = (*Store)(nil)
var _ spears.Suites = (*Store)(nil)
