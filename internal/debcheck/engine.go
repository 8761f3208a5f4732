package debcheck

import (
	"context"
	"path"

	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/archive"
)

// getFullIndexFileList gathers the background (bg) and foreground (fg)
// index files dose needs for one (suite, arch) analysis, following this
// index-selection rule: fg is the suite's own Sources.xz (build-dependency
// case) or Packages.xz (installability case); bg is always the suite's own
// Packages.xz (plus the binArch variant when arch == "all", so arch:all
// packages can resolve against a concrete architecture), with the parent
// suite's equivalents appended when suite overlays one.
func (e *Engine) getFullIndexFileList(ctx context.Context, suite *archive.Suite, arch string, sourcePackages bool, binArch string) (bg, fg []string, err error) {
	for _, component := range suite.Components {
		ownPackages := path.Join(component, "binary-"+arch, "Packages.xz")
		if f, ferr := e.Repo.GetIndexFile(ctx, suite.Name, ownPackages); ferr == nil {
			bg = append(bg, f)
		}
		if arch == "all" && binArch != "" {
			variant := path.Join(component, "binary-"+binArch, "Packages.xz")
			if f, ferr := e.Repo.GetIndexFile(ctx, suite.Name, variant); ferr == nil {
				bg = append(bg, f)
			}
		}

		if sourcePackages {
			rel := path.Join(component, "source", "Sources.xz")
			f, ferr := e.Repo.GetIndexFile(ctx, suite.Name, rel)
			if ferr != nil {
				continue // this component legitimately has no sources for the suite
			}
			fg = append(fg, f)
		} else {
			f, ferr := e.Repo.GetIndexFile(ctx, suite.Name, ownPackages)
			if ferr != nil {
				continue
			}
			fg = append(fg, f)
		}

		if suite.HasParent() {
			parentPackages := path.Join(component, "binary-"+arch, "Packages.xz")
			if f, ferr := e.Repo.GetIndexFile(ctx, suite.BaseSuiteName, parentPackages); ferr == nil {
				bg = append(bg, f)
			}
			if arch == "all" && binArch != "" {
				variant := path.Join(component, "binary-"+binArch, "Packages.xz")
				if f, ferr := e.Repo.GetIndexFile(ctx, suite.BaseSuiteName, variant); ferr == nil {
					bg = append(bg, f)
				}
			}
		}
	}
	return bg, fg, nil
}

// GetBuildDepCheckIssues runs dose-builddebcheck for every architecture of
// suite (plus "all"), replacing the previously recorded SOURCE issues for
// each (suite, arch) pair with whatever the new run reports.
func (e *Engine) GetBuildDepCheckIssues(ctx context.Context, suiteName string) ([]*DebcheckIssue, error) {
	suite, err := e.Suites.SuiteByName(ctx, e.RepoName, suiteName)
	if err != nil {
		return nil, errors.Wrapf(err, "debcheck: resolve suite %s", suiteName)
	}
	native := nativeArchitecture(suite)

	var all []*DebcheckIssue
	for _, arch := range archesPlusAll(suite) {
		bg, fg, err := e.getFullIndexFileList(ctx, suite, arch, true, native)
		if err != nil {
			return nil, err
		}
		out, err := e.Dose.RunBuildDebcheck(ctx, native, bg, fg)
		if err != nil {
			return nil, errors.Wrapf(err, "debcheck: dose-builddebcheck %s/%s", suiteName, arch)
		}
		issues, err := parseDoseReport(out, KindSource, suiteName, arch)
		if err != nil {
			return nil, err
		}
		if err := e.replaceIssues(ctx, suiteName, KindSource, arch, issues); err != nil {
			return nil, err
		}
		all = append(all, issues...)
	}
	return all, nil
}

// GetDepCheckIssues runs dose-debcheck for every architecture of suite
// (plus "all"), replacing the previously recorded BINARY issues for each
// (suite, arch) pair.
func (e *Engine) GetDepCheckIssues(ctx context.Context, suiteName string) ([]*DebcheckIssue, error) {
	suite, err := e.Suites.SuiteByName(ctx, e.RepoName, suiteName)
	if err != nil {
		return nil, errors.Wrapf(err, "debcheck: resolve suite %s", suiteName)
	}
	native := nativeArchitecture(suite)

	var all []*DebcheckIssue
	for _, arch := range archesPlusAll(suite) {
		bg, fg, err := e.getFullIndexFileList(ctx, suite, arch, false, native)
		if err != nil {
			return nil, err
		}
		out, err := e.Dose.RunDebcheck(ctx, native, bg, fg)
		if err != nil {
			return nil, errors.Wrapf(err, "debcheck: dose-debcheck %s/%s", suiteName, arch)
		}
		issues, err := parseDoseReport(out, KindBinary, suiteName, arch)
		if err != nil {
			return nil, err
		}
		if err := e.replaceIssues(ctx, suiteName, KindBinary, arch, issues); err != nil {
			return nil, err
		}
		all = append(all, issues...)
	}
	return all, nil
}

// replaceIssues deletes the previous run's issues for (suite, kind, arch)
// before inserting the new ones, so a stale issue never outlives the run
// that would have cleared it.
func (e *Engine) replaceIssues(ctx context.Context, suite string, kind PackageKind, arch string, issues []*DebcheckIssue) error {
	if err := e.Store.DeleteIssuesForSuiteKindArch(ctx, suite, kind, arch); err != nil {
		return errors.Wrap(err, "debcheck: delete prior issues")
	}
	for _, iss := range issues {
		if err := e.Store.SaveIssue(ctx, iss); err != nil {
			return errors.Wrap(err, "debcheck: save issue")
		}
	}
	return nil
}
