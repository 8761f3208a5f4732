package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/debcheck"
)

// DeleteIssuesForSuiteKindArch implements debcheck.Store, clearing a prior
// run's issues before a fresh GetBuildDepCheckIssues/GetDepCheckIssues pass
// writes its own.
func (s *Store) DeleteIssuesForSuiteKindArch(ctx context.Context, suite string, kind debcheck.PackageKind, arch string) error {
	_, err := s.Pool.Exec(ctx, `
		DELETE FROM debcheck_issues WHERE suite_name = $1 AND package_kind = $2 AND architecture = $3`,
		suite, kind, arch)
	if err != nil {
		return errors.Wrap(err, "store: delete debcheck issues")
	}
	return nil
}

// SaveIssue implements debcheck.Store.
func (s *Store) SaveIssue(ctx context.Context, issue *debcheck.DebcheckIssue) error {
	if issue.UUID == uuid.Nil {
		issue.UUID = uuid.New()
	}
	if issue.Date.IsZero() {
		issue.Date = time.Now().UTC()
	}
	missing, err := json.Marshal(issue.Missing)
	if err != nil {
		return errors.Wrap(err, "store: marshal debcheck missing")
	}
	conflicts, err := json.Marshal(issue.Conflicts)
	if err != nil {
		return errors.Wrap(err, "store: marshal debcheck conflicts")
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO debcheck_issues
			(uuid, date, package_kind, suite_name, package_name, package_version, architecture, missing, conflicts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		issue.UUID, issue.Date, issue.PackageKind, issue.SuiteName, issue.PackageName,
		issue.PackageVersion, issue.Architecture, missing, conflicts)
	if err != nil {
		return errors.Wrap(err, "store: save debcheck issue")
	}
	return nil
}

// IssuesForSuite returns the currently recorded issues for a suite, newest first.
func (s *Store) IssuesForSuite(ctx context.Context, suite string) ([]*debcheck.DebcheckIssue, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT uuid, date, package_kind, suite_name, package_name, package_version, architecture, missing, conflicts
		FROM debcheck_issues WHERE suite_name = $1 ORDER BY date DESC`, suite)
	if err != nil {
		return nil, errors.Wrap(err, "store: issues for suite")
	}
	defer rows.Close()

	var out []*debcheck.DebcheckIssue
	for rows.Next() {
		var iss debcheck.DebcheckIssue
		var missing, conflicts []byte
		if err := rows.Scan(&iss.UUID, &iss.Date, &iss.PackageKind, &iss.SuiteName, &iss.PackageName,
			&iss.PackageVersion, &iss.Architecture, &missing, &conflicts); err != nil {
			return nil, errors.Wrap(err, "store: scan debcheck issue")
		}
		if err := json.Unmarshal(missing, &iss.Missing); err != nil {
			return nil, errors.Wrap(err, "store: unmarshal debcheck missing")
		}
		if err := json.Unmarshal(conflicts, &iss.Conflicts); err != nil {
			return nil, errors.Wrap(err, "store: unmarshal debcheck conflicts")
		}
		out = append(out, &iss)
	}
	return out, rows.Err()
}

var _ debcheck.Store = (*Store)(nil)
