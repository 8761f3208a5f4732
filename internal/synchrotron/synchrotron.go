// Package synchrotron implements the source-to-target package
// synchronization engine: version-gated sync, blacklisting, binary-binding,
// and cruft detection/removal.
package synchrotron

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lkhq/laniakea/internal/archive"
)

// IssueKind enumerates the SynchrotronIssue discriminator.
type IssueKind string

const (
	IssueNone          IssueKind = "none"
	IssueMergeRequired IssueKind = "merge-required"
	IssueMaybeCruft    IssueKind = "maybe-cruft"
	IssueSyncFailed    IssueKind = "sync-failed"
	IssueRemovalFailed IssueKind = "removal-failed"
)

// Issue records a policy exception raised during a sync run.
type Issue struct {
	UUID          uuid.UUID
	Date          time.Time
	Kind          IssueKind
	PackageName   string
	SourceSuite   string
	TargetSuite   string
	SourceVersion string
	TargetVersion string
	Details       string
}

// BlacklistEntry is one entry of the sync blacklist.
type BlacklistEntry struct {
	PackageName string
	Date        time.Time
	Reason      string
	User        string
}

// Config is the per-run policy: which source feeds the target, and the
// distro tag used to recognize locally-modified target versions.
type Config struct {
	SourceName   string
	SourceSuite  string // e.g. "unstable"
	TargetSuite  archive.Suite
	SyncBinaries bool
	DistroTag    string // e.g. "tanglu"; substring marking downstream modification
}

// Source is the subset of repository.Repository the engine needs; narrowed
// to an interface so tests can fake index contents without materializing
// real compressed tagfiles.
type Source interface {
	GetSourcePackages(ctx context.Context, suite, component string) ([]*archive.SourcePackage, error)
	GetBinaryPackages(ctx context.Context, suite, component, arch string) ([]*archive.BinaryPackage, error)
	GetFile(ctx context.Context, af archive.ArchiveFile, validate bool) (string, error)
}

// Dak is the subset of toolexec.Dak the engine drives.
type Dak interface {
	ImportPackageFiles(ctx context.Context, suite, component string, files []string, trusted, allowExisting bool) (bool, error)
	PackageIsRemovable(ctx context.Context, name, suite string) (bool, error)
	RemovePackage(ctx context.Context, name, suite string) error
}

// Events is the narrow emitter surface the engine uses to report policy
// decisions without propagating them as errors.
type Events interface {
	Info(ctx context.Context, title, text string) error
	Warning(ctx context.Context, title, text string) error
}

// Store is the persistence contract for blacklist lookups and issue
// bookkeeping.
type Store interface {
	IsBlacklisted(ctx context.Context, name string) (*BlacklistEntry, error)
	SaveIssue(ctx context.Context, issue *Issue) error
	DeleteIssuesForSuitePair(ctx context.Context, sourceSuite, targetSuite string) error
}

// Engine implements synchronization over a Source (source repo), a target
// Source, a Dak adapter, and a Store.
type Engine struct {
	Store      Store
	SourceRepo Source
	TargetRepo Source
	Dak        Dak
	Events     Events
	Config     Config
}

func (e *Engine) issue(ctx context.Context, kind IssueKind, pkgName, sourceVersion, targetVersion, details string) (*Issue, error) {
	iss := &Issue{
		UUID:          uuid.New(),
		Date:          time.Now().UTC(),
		Kind:          kind,
		PackageName:   pkgName,
		SourceSuite:   e.Config.SourceSuite,
		TargetSuite:   e.Config.TargetSuite.Name,
		SourceVersion: sourceVersion,
		TargetVersion: targetVersion,
		Details:       details,
	}
	if err := e.Store.SaveIssue(ctx, iss); err != nil {
		return nil, err
	}
	return iss, nil
}

// isLocallyModified reports whether a target Debian revision carries the
// configured distro tag (a "locally modified" downstream version).
func (e *Engine) isLocallyModified(version string) bool {
	if e.Config.DistroTag == "" {
		return false
	}
	rev := archive.DebianRevision(version, true)
	return strings.Contains(rev, e.Config.DistroTag)
}

// isNewInDistro reports whether version's revision starts with "0"+distroTag
// (such a package is never removed as cruft, treated as new-in-distro).
func (e *Engine) isNewInDistro(version string) bool {
	if e.Config.DistroTag == "" {
		return false
	}
	rev := archive.DebianRevision(version, true)
	return strings.HasPrefix(rev, "0"+e.Config.DistroTag)
}
