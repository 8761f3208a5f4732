package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/synchrotron"
)

// IsBlacklisted implements synchrotron.Store.
func (s *Store) IsBlacklisted(ctx context.Context, name string) (*synchrotron.BlacklistEntry, error) {
	var e synchrotron.BlacklistEntry
	err := s.Pool.QueryRow(ctx, `SELECT package_name, date, reason, "user"
		FROM synchrotron_blacklist WHERE package_name = $1`, name).
		Scan(&e.PackageName, &e.Date, &e.Reason, &e.User)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: is blacklisted")
	}
	return &e, nil
}

// UpsertBlacklistEntry adds or replaces a blacklist entry.
func (s *Store) UpsertBlacklistEntry(ctx context.Context, e *synchrotron.BlacklistEntry) error {
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO synchrotron_blacklist (package_name, date, reason, "user")
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (package_name) DO UPDATE SET
			date = EXCLUDED.date, reason = EXCLUDED.reason, "user" = EXCLUDED."user"`,
		e.PackageName, e.Date, e.Reason, e.User)
	if err != nil {
		return errors.Wrap(err, "store: upsert blacklist entry")
	}
	return nil
}

// RemoveBlacklistEntry un-blacklists name.
func (s *Store) RemoveBlacklistEntry(ctx context.Context, name string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM synchrotron_blacklist WHERE package_name = $1`, name)
	if err != nil {
		return errors.Wrap(err, "store: remove blacklist entry")
	}
	return nil
}

// SaveIssue implements synchrotron.Store.
func (s *Store) SaveIssue(ctx context.Context, issue *synchrotron.Issue) error {
	if issue.UUID == uuid.Nil {
		issue.UUID = uuid.New()
	}
	if issue.Date.IsZero() {
		issue.Date = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO synchrotron_issue
			(uuid, date, kind, package_name, source_suite, target_suite, source_version, target_version, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		issue.UUID, issue.Date, issue.Kind, issue.PackageName, issue.SourceSuite, issue.TargetSuite,
		issue.SourceVersion, issue.TargetVersion, issue.Details)
	if err != nil {
		return errors.Wrap(err, "store: save synchrotron issue")
	}
	return nil
}

// DeleteIssuesForSuitePair implements synchrotron.Store, clearing the
// previous run's issues before a fresh AutoSync pass.
func (s *Store) DeleteIssuesForSuitePair(ctx context.Context, sourceSuite, targetSuite string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM synchrotron_issue WHERE source_suite = $1 AND target_suite = $2`,
		sourceSuite, targetSuite)
	if err != nil {
		return errors.Wrap(err, "store: delete synchrotron issues")
	}
	return nil
}

// IssuesForSuitePair returns the currently recorded issues for a source/target pair.
func (s *Store) IssuesForSuitePair(ctx context.Context, sourceSuite, targetSuite string) ([]*synchrotron.Issue, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT uuid, date, kind, package_name, source_suite, target_suite, source_version, target_version, details
		FROM synchrotron_issue WHERE source_suite = $1 AND target_suite = $2
		ORDER BY date DESC`, sourceSuite, targetSuite)
	if err != nil {
		return nil, errors.Wrap(err, "store: issues for suite pair")
	}
	defer rows.Close()

	var out []*synchrotron.Issue
	for rows.Next() {
		var iss synchrotron.Issue
		if err := rows.Scan(&iss.UUID, &iss.Date, &iss.Kind, &iss.PackageName, &iss.SourceSuite,
			&iss.TargetSuite, &iss.SourceVersion, &iss.TargetVersion, &iss.Details); err != nil {
			return nil, errors.Wrap(err, "store: scan synchrotron issue")
		}
		out = append(out, &iss)
	}
	return out, rows.Err()
}

var _ synchrotron.Store = (*Store)(nil)
