// Package spears implements the migration orchestrator: per-migration
// workspace management, multi-source index fusion, britney invocation, and
// excuse ingestion.
package spears

import (
	"context"
	"sort"
	"time"

	"github.com/lkhq/laniakea/internal/archive"
)

// VersionPriority is the urgency bucket a delay applies to (e.g. "low",
// "medium", "high", "critical", "emergency").
type VersionPriority string

// Hint records a manual migration override (the britney "hint" concept).
type Hint struct {
	Hint   string
	Reason string
	Date   time.Time
	User   string
}

// ConfigEntry is one migration definition: one or more source suites
// feeding a single target suite.
type ConfigEntry struct {
	SourceSuites []string
	TargetSuite  string
	Delays       map[VersionPriority]int // days
	Hints        []Hint
}

// MigrationID derives the workspace/HeidiResult identifier for entry:
// sorted(sourceSuites).join("+") + "-to-" + targetSuite.
func (c ConfigEntry) MigrationID() string {
	return MigrationID(c.SourceSuites, c.TargetSuite)
}

// MigrationID is the free-function form, usable before a ConfigEntry exists
// (e.g. to look one up).
func MigrationID(sourceSuites []string, targetSuite string) string {
	sorted := append([]string(nil), sourceSuites...)
	sort.Strings(sorted)
	joined := sorted[0]
	for _, s := range sorted[1:] {
		joined += "+" + s
	}
	return joined + "-to-" + targetSuite
}

// AgeInfo is the excuse's package-age accounting.
type AgeInfo struct {
	CurrentAge  int
	RequiredAge int
}

// MissingBuilds lists architectures a candidate has not yet built on.
type MissingBuilds struct {
	PrimaryArchs   []string
	SecondaryArchs []string
}

// OldBinary is one still-present binary of a version being superseded.
type OldBinary struct {
	PackageVersion string
	Binaries       []string
}

// Reason is why a candidate did or did not migrate.
type Reason struct {
	BlockedBy    []string
	MigrateAfter []string
	ManualBlock  string
	Other        string
	LogExcerpt   string
}

// Excuse is britney's structured explanation for one candidate source
// package.
type Excuse struct {
	MigrationID   string
	Date          time.Time
	SourceSuite   string
	TargetSuite   string
	IsCandidate   bool
	SourcePackage string
	Maintainer    string
	Age           AgeInfo
	NewVersion    string
	OldVersion    string
	MissingBuilds MissingBuilds
	OldBinaries   []OldBinary
	Reason        Reason

	// BuildOrder is this excuse's 1-based position among excuses with an
	// outstanding missing build, in build-dependency order (a package never
	// precedes one of its own build-dependencies). Zero means either no
	// missing build or the ordering pass was not run/failed.
	BuildOrder int
}

// Source is the subset of repository.Repository the engine needs for index
// retrieval and source-suite package enumeration.
type Source interface {
	GetIndexFile(ctx context.Context, suite, relativePath string) (string, error)
	GetSourcePackages(ctx context.Context, suite, component string) ([]*archive.SourcePackage, error)
}

// Dak is the subset of toolexec.Dak the engine drives.
type Dak interface {
	SetSuiteToBritneyResult(ctx context.Context, suite, heidiFile string) (bool, error)
	UrgencyExportDir(ctx context.Context) (string, error)
}

// Britney wraps the external migration tool's filesystem contract.
type Britney interface {
	UpdateDist(ctx context.Context) error
	Run(ctx context.Context, configFile string) error
}

// Events is the narrow emitter surface for non-fatal policy notices.
type Events interface {
	Info(ctx context.Context, title, text string) error
	Warning(ctx context.Context, title, text string) error
}

// Store is the persistence contract for excuse bookkeeping.
type Store interface {
	ReplaceExcuses(ctx context.Context, migrationID string, excuses []*Excuse) error
}

// Suites resolves suite metadata (parent/architecture/component lists)
// needed by UpdateConfig and CreateFauxPackages.
type Suites interface {
	SuiteByName(ctx context.Context, repoName, name string) (*archive.Suite, error)
}

// ErrNoSuchMigration is returned by RunMigration when no ConfigEntry
// matches the requested source/target pair.
type ErrNoSuchMigration struct {
	SourceSuitesJoined string
	TargetSuite        string
}

func (e *ErrNoSuchMigration) Error() string {
	return "spears: no such migration: " + e.SourceSuitesJoined + " -> " + e.TargetSuite
}

// Engine implements suite migration over a Source (mirror access), a Dak
// and Britney adapter, and a Store.
type Engine struct {
	Store     Store
	Repo      Source
	Suites    Suites
	Dak       Dak
	Britney   Britney
	Events    Events
	Workspace string // root under which spears/<migrationId>/ is created
	XZ        Compressor
	Entries   []ConfigEntry
	RepoName  string // archive repository name passed to Suites.SuiteByName
}

// Compressor is the narrow surface spears needs from toolexec.XZ, kept as
// an interface so fusion can be tested without shelling out to xz(1).
type Compressor interface {
	Compress(ctx context.Context, data []byte) ([]byte, error)
}

// entryFor returns the ConfigEntry matching sourceSuitesJoined and target,
// or nil.
func (e *Engine) entryFor(sourceSuitesJoined, target string) *ConfigEntry {
	for i := range e.Entries {
		if e.Entries[i].TargetSuite != target {
			continue
		}
		sorted := append([]string(nil), e.Entries[i].SourceSuites...)
		sort.Strings(sorted)
		joined := sorted[0]
		for _, s := range sorted[1:] {
			joined += "+" + s
		}
		if joined == sourceSuitesJoined {
			return &e.Entries[i]
		}
	}
	return nil
}
