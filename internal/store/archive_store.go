package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/archive"
)

// UpsertRepository registers repo.Name if not already present.
func (s *Store) UpsertRepository(ctx context.Context, repo *archive.Repository) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO archive_repository (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING`, repo.Name)
	return errors.Wrap(err, "store: upsert repository")
}

// UpsertSuite persists a Suite's component/architecture membership.
func (s *Store) UpsertSuite(ctx context.Context, suite *archive.Suite) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO archive_suite (name, repo, architectures, components, base_suite_name)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (repo, name) DO UPDATE SET
			architectures = EXCLUDED.architectures,
			components = EXCLUDED.components,
			base_suite_name = EXCLUDED.base_suite_name`,
		suite.Name, suite.Repo, suite.Architectures, suite.Components, suite.BaseSuiteName)
	return errors.Wrap(err, "store: upsert suite")
}

// SuiteByName fetches a suite's component/architecture membership.
func (s *Store) SuiteByName(ctx context.Context, repoName, name string) (*archive.Suite, error) {
	var suite archive.Suite
	suite.Repo = repoName
	err := s.Pool.QueryRow(ctx, `SELECT name, architectures, components, base_suite_name
		FROM archive_suite WHERE repo = $1 AND name = $2`, repoName, name).
		Scan(&suite.Name, &suite.Architectures, &suite.Components, &suite.BaseSuiteName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "store: suite by name")
	}
	return &suite, nil
}

// SuitesByRepo lists every suite registered under repoName.
func (s *Store) SuitesByRepo(ctx context.Context, repoName string) ([]*archive.Suite, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, architectures, components, base_suite_name
		FROM archive_suite WHERE repo = $1 ORDER BY name`, repoName)
	if err != nil {
		return nil, errors.Wrap(err, "store: suites by repo")
	}
	defer rows.Close()

	var out []*archive.Suite
	for rows.Next() {
		suite := &archive.Suite{Repo: repoName}
		if err := rows.Scan(&suite.Name, &suite.Architectures, &suite.Components, &suite.BaseSuiteName); err != nil {
			return nil, errors.Wrap(err, "store: scan suite")
		}
		out = append(out, suite)
	}
	return out, rows.Err()
}

const srcPackageColumns = `uuid, source_uuid, name, version, repo, component,
	architectures, standards_version, format, homepage, vcs_browser,
	maintainer, uploaders, build_depends, directory, binaries, files`

// UpsertSourcePackage persists pkg, assigning its content-addressed UUID
// first if unset.
func (s *Store) UpsertSourcePackage(ctx context.Context, pkg *archive.SourcePackage) error {
	pkg.EnsureUUID()
	binaries, err := json.Marshal(pkg.Binaries)
	if err != nil {
		return errors.Wrap(err, "store: marshal binaries")
	}
	files, err := json.Marshal(pkg.Files)
	if err != nil {
		return errors.Wrap(err, "store: marshal files")
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO archive_src_package (`+srcPackageColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (uuid) DO UPDATE SET
			architectures = EXCLUDED.architectures,
			standards_version = EXCLUDED.standards_version,
			format = EXCLUDED.format,
			homepage = EXCLUDED.homepage,
			vcs_browser = EXCLUDED.vcs_browser,
			maintainer = EXCLUDED.maintainer,
			uploaders = EXCLUDED.uploaders,
			build_depends = EXCLUDED.build_depends,
			directory = EXCLUDED.directory,
			binaries = EXCLUDED.binaries,
			files = EXCLUDED.files`,
		pkg.UUID, pkg.SourceUUID, pkg.Name, pkg.Version, pkg.Repo, pkg.Component,
		pkg.Architectures, pkg.StandardsVersion, pkg.Format, pkg.Homepage,
		pkg.VcsBrowser, pkg.Maintainer, pkg.Uploaders, pkg.BuildDepends,
		pkg.Directory, binaries, files)
	return errors.Wrap(err, "store: upsert source package")
}

// BindSourcePackageToSuite records that src is part of suite's package set.
func (s *Store) BindSourcePackageToSuite(ctx context.Context, repoName, suiteName string, src *archive.SourcePackage) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO archive_suite_source_packages (suite_repo, suite_name, src_uuid)
		VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`, repoName, suiteName, src.UUID)
	return errors.Wrap(err, "store: bind source package to suite")
}

// UnbindSourcePackageFromSuite removes src from suite's package set (used
// by synchrotron/spears cruft removal, without deleting the package row
// itself since other suites may still reference it).
func (s *Store) UnbindSourcePackageFromSuite(ctx context.Context, repoName, suiteName string, src *archive.SourcePackage) error {
	_, err := s.Pool.Exec(ctx, `
		DELETE FROM archive_suite_source_packages
		WHERE suite_repo = $1 AND suite_name = $2 AND src_uuid = $3`, repoName, suiteName, src.UUID)
	return errors.Wrap(err, "store: unbind source package from suite")
}

// SourcePackagesInSuite returns every source package bound to suite.
func (s *Store) SourcePackagesInSuite(ctx context.Context, repoName, suiteName string) ([]*archive.SourcePackage, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT p.`+srcPackageColumns+` FROM archive_src_package p
		JOIN archive_suite_source_packages m ON m.src_uuid = p.uuid
		WHERE m.suite_repo = $1 AND m.suite_name = $2`, repoName, suiteName)
	if err != nil {
		return nil, errors.Wrap(err, "store: source packages in suite")
	}
	defer rows.Close()

	var out []*archive.SourcePackage
	for rows.Next() {
		pkg, err := scanSourcePackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
	return out, rows.Err()
}

func scanSourcePackage(row pgx.Row) (*archive.SourcePackage, error) {
	var pkg archive.SourcePackage
	var binaries, files []byte
	err := row.Scan(&pkg.UUID, &pkg.SourceUUID, &pkg.Name, &pkg.Version, &pkg.Repo,
		&pkg.Component, &pkg.Architectures, &pkg.StandardsVersion, &pkg.Format,
		&pkg.Homepage, &pkg.VcsBrowser, &pkg.Maintainer, &pkg.Uploaders,
		&pkg.BuildDepends, &pkg.Directory, &binaries, &files)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "store: scan source package")
	}
	if err := json.Unmarshal(binaries, &pkg.Binaries); err != nil {
		return nil, errors.Wrap(err, "store: unmarshal binaries")
	}
	if err := json.Unmarshal(files, &pkg.Files); err != nil {
		return nil, errors.Wrap(err, "store: unmarshal files")
	}
	return &pkg, nil
}

const binPackageColumns = `uuid, deb_type, name, version, repo, component,
	architecture, installed_size, description, description_md5, source_name,
	source_version, priority, section, depends, pre_depends, maintainer,
	homepage, file_name, file_sha256`

// UpsertBinaryPackage persists pkg, assigning its UUID first if unset.
func (s *Store) UpsertBinaryPackage(ctx context.Context, pkg *archive.BinaryPackage) error {
	pkg.EnsureUUID()
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO archive_bin_package (`+binPackageColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (uuid) DO UPDATE SET
			installed_size = EXCLUDED.installed_size,
			description = EXCLUDED.description,
			description_md5 = EXCLUDED.description_md5,
			source_name = EXCLUDED.source_name,
			source_version = EXCLUDED.source_version,
			priority = EXCLUDED.priority,
			section = EXCLUDED.section,
			depends = EXCLUDED.depends,
			pre_depends = EXCLUDED.pre_depends,
			maintainer = EXCLUDED.maintainer,
			homepage = EXCLUDED.homepage,
			file_name = EXCLUDED.file_name,
			file_sha256 = EXCLUDED.file_sha256`,
		pkg.UUID, pkg.DebType, pkg.Name, pkg.Version, pkg.Repo, pkg.Component,
		pkg.Architecture, pkg.InstalledSize, pkg.Description, pkg.DescriptionMD5,
		pkg.SourceName, nullableVersion(pkg.SourceVersion), pkg.Priority, pkg.Section,
		pkg.Depends, pkg.PreDepends, pkg.Maintainer, pkg.Homepage, pkg.File.Filename,
		pkg.File.SHA256Sum)
	return errors.Wrap(err, "store: upsert binary package")
}

func nullableVersion(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// BindBinaryPackageToSuite records that bin is part of suite's package set.
func (s *Store) BindBinaryPackageToSuite(ctx context.Context, repoName, suiteName string, bin *archive.BinaryPackage) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO archive_suite_binary_packages (suite_repo, suite_name, bin_uuid)
		VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`, repoName, suiteName, bin.UUID)
	return errors.Wrap(err, "store: bind binary package to suite")
}

// BinaryPackagesInSuite returns every binary package bound to (suite, arch);
// arch == "" returns all architectures.
func (s *Store) BinaryPackagesInSuite(ctx context.Context, repoName, suiteName, arch string) ([]*archive.BinaryPackage, error) {
	var rows pgx.Rows
	var err error
	if arch == "" {
		rows, err = s.Pool.Query(ctx, `
			SELECT p.`+binPackageColumns+` FROM archive_bin_package p
			JOIN archive_suite_binary_packages m ON m.bin_uuid = p.uuid
			WHERE m.suite_repo = $1 AND m.suite_name = $2`, repoName, suiteName)
	} else {
		rows, err = s.Pool.Query(ctx, `
			SELECT p.`+binPackageColumns+` FROM archive_bin_package p
			JOIN archive_suite_binary_packages m ON m.bin_uuid = p.uuid
			WHERE m.suite_repo = $1 AND m.suite_name = $2 AND p.architecture = $3`,
			repoName, suiteName, arch)
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: binary packages in suite")
	}
	defer rows.Close()

	var out []*archive.BinaryPackage
	for rows.Next() {
		pkg, err := scanBinaryPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
	return out, rows.Err()
}

func scanBinaryPackage(row pgx.Row) (*archive.BinaryPackage, error) {
	var pkg archive.BinaryPackage
	var srcVersion *string
	err := row.Scan(&pkg.UUID, &pkg.DebType, &pkg.Name, &pkg.Version, &pkg.Repo,
		&pkg.Component, &pkg.Architecture, &pkg.InstalledSize, &pkg.Description,
		&pkg.DescriptionMD5, &pkg.SourceName, &srcVersion, &pkg.Priority,
		&pkg.Section, &pkg.Depends, &pkg.PreDepends, &pkg.Maintainer,
		&pkg.Homepage, &pkg.File.Filename, &pkg.File.SHA256Sum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "store: scan binary package")
	}
	if srcVersion != nil {
		pkg.SourceVersion = *srcVersion
	}
	return &pkg, nil
}
