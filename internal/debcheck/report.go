package debcheck

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// doseReport mirrors the YAML shape emitted by dose-builddebcheck/
// dose-debcheck with --summary.
type doseReport struct {
	Report []doseReportEntry `yaml:"report"`
}

type doseReportEntry struct {
	Package      string       `yaml:"package"`
	Version      string       `yaml:"version"`
	Architecture string       `yaml:"architecture"`
	Type         string       `yaml:"type"`
	Reasons      []doseReason `yaml:"reasons"`
}

type doseReason struct {
	Missing  *dosePackageRef  `yaml:"missing"`
	Conflict *doseConflictRef `yaml:"conflict"`
}

type dosePackageRef struct {
	Pkg doseYAMLPackage `yaml:"pkg"`
}

type doseYAMLPackage struct {
	Package         string `yaml:"package"`
	Version         string `yaml:"version"`
	Architecture    string `yaml:"architecture"`
	Depends         string `yaml:"depends"`
	UnsatDependency string `yaml:"unsat-dependency"`
	UnsatConflict   string `yaml:"unsat-conflict"`
}

type doseConflictRef struct {
	Pkg1      doseYAMLPackage   `yaml:"pkg1"`
	Pkg2      doseYAMLPackage   `yaml:"pkg2"`
	Depchain1 []doseYAMLPackage `yaml:"depchain1"`
	Depchain2 []doseYAMLPackage `yaml:"depchain2"`
}

func toPackageIssue(kind PackageKind, p doseYAMLPackage) PackageIssue {
	return PackageIssue{
		PackageKind:     kind,
		PackageName:     p.Package,
		PackageVersion:  p.Version,
		Architecture:    p.Architecture,
		Depends:         p.Depends,
		UnsatDependency: p.UnsatDependency,
		UnsatConflict:   p.UnsatConflict,
	}
}

func firstDepchain(kind PackageKind, chain []doseYAMLPackage) []PackageIssue {
	if len(chain) == 0 {
		return nil
	}
	out := make([]PackageIssue, 0, len(chain))
	for _, p := range chain {
		out = append(out, toPackageIssue(kind, p))
	}
	return out
}

// parseDoseReport converts one dose YAML report into DebcheckIssue
// records, skipping entries for "all" unless the current processing arch
// is itself "all" (arch:all packages are only meaningful once, when their
// own pass runs).
func parseDoseReport(raw string, defaultKind PackageKind, suiteName, processingArch string) ([]*DebcheckIssue, error) {
	var report doseReport
	if err := yaml.Unmarshal([]byte(raw), &report); err != nil {
		return nil, errors.Wrap(err, "debcheck: parse dose report")
	}

	var issues []*DebcheckIssue
	for _, entry := range report.Report {
		if entry.Architecture == "all" && processingArch != "all" {
			continue
		}

		kind := defaultKind
		if entry.Type == "src" {
			kind = KindSource
		} else if entry.Type != "" {
			kind = KindBinary
		}

		issue := &DebcheckIssue{
			UUID:           uuid.New(),
			Date:           time.Now(),
			PackageKind:    kind,
			SuiteName:      suiteName,
			PackageName:    entry.Package,
			PackageVersion: entry.Version,
			Architecture:   entry.Architecture,
		}

		for _, reason := range entry.Reasons {
			switch {
			case reason.Missing != nil:
				issue.Missing = append(issue.Missing, toPackageIssue(kind, reason.Missing.Pkg))
			case reason.Conflict != nil:
				issue.Conflicts = append(issue.Conflicts, PackageConflict{
					Pkg1:      toPackageIssue(kind, reason.Conflict.Pkg1),
					Pkg2:      toPackageIssue(kind, reason.Conflict.Pkg2),
					Depchain1: firstDepchain(kind, reason.Conflict.Depchain1),
					Depchain2: firstDepchain(kind, reason.Conflict.Depchain2),
				})
			default:
				return nil, errors.Errorf("debcheck: unrecognized reason for %s/%s", entry.Package, entry.Version)
			}
		}

		issues = append(issues, issue)
	}
	return issues, nil
}
