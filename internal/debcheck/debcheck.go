// Package debcheck drives the external dose solver (dose-builddebcheck,
// dose-debcheck) per suite/architecture and materializes its YAML report as
// structured installability issues.
package debcheck

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lkhq/laniakea/internal/archive"
)

// PackageKind discriminates a DebcheckIssue's subject.
type PackageKind string

const (
	KindSource PackageKind = "SOURCE"
	KindBinary PackageKind = "BINARY"
)

// PackageIssue names one package referenced by a missing-dependency or
// conflict report entry.
type PackageIssue struct {
	PackageKind     PackageKind
	PackageName     string
	PackageVersion  string
	Architecture    string
	Depends         string
	UnsatDependency string
	UnsatConflict   string
}

// PackageConflict is a mutually-unsatisfiable pair, each with its own
// dependency chain back to the root package under test.
type PackageConflict struct {
	Pkg1      PackageIssue
	Pkg2      PackageIssue
	Depchain1 []PackageIssue
	Depchain2 []PackageIssue
}

// DebcheckIssue is one dose report entry for a package that failed to
// install.
type DebcheckIssue struct {
	UUID           uuid.UUID
	Date           time.Time
	PackageKind    PackageKind
	SuiteName      string
	PackageName    string
	PackageVersion string
	Architecture   string
	Missing        []PackageIssue
	Conflicts      []PackageConflict
}

// Source is the subset of repository.Repository the engine needs: raw
// index file retrieval (dose consumes Packages.xz/Sources.xz files
// directly as bg/fg arguments; it does not need parsed package records).
type Source interface {
	GetIndexFile(ctx context.Context, suite, relativePath string) (string, error)
}

// Suites resolves suite metadata (components/architectures/parent).
type Suites interface {
	SuiteByName(ctx context.Context, repoName, name string) (*archive.Suite, error)
}

// Dose is the subset of toolexec.Dose the engine drives.
type Dose interface {
	RunBuildDebcheck(ctx context.Context, nativeArch string, bg, fg []string) (string, error)
	RunDebcheck(ctx context.Context, nativeArch string, bg, fg []string) (string, error)
}

// Store is the persistence contract for issue bookkeeping.
type Store interface {
	DeleteIssuesForSuiteKindArch(ctx context.Context, suite string, kind PackageKind, arch string) error
	SaveIssue(ctx context.Context, issue *DebcheckIssue) error
}

// Engine implements installability checking over a Source (mirror access),
// a Suites resolver, a Dose adapter, and a Store.
type Engine struct {
	Repo     Source
	Suites   Suites
	Dose     Dose
	Store    Store
	RepoName string
}

// nativeArchitecture picks "amd64" if present, else the first non-"all"
// architecture of suite.
func nativeArchitecture(suite *archive.Suite) string {
	for _, a := range suite.Architectures {
		if a == "amd64" {
			return "amd64"
		}
	}
	for _, a := range suite.Architectures {
		if a != "all" {
			return a
		}
	}
	return ""
}

// archesPlusAll returns suite's non-"all" architectures followed by exactly
// one "all" entry, regardless of whether "all" already appears in
// suite.Architectures: each architecture of the suite is checked, plus all.
func archesPlusAll(suite *archive.Suite) []string {
	out := make([]string, 0, len(suite.Architectures)+1)
	for _, a := range suite.Architectures {
		if a != "all" {
			out = append(out, a)
		}
	}
	return append(out, "all")
}
