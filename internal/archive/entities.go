package archive

import "github.com/google/uuid"

// DebType distinguishes binary package flavors.
type DebType string

const (
	DebTypeDEB  DebType = "deb"
	DebTypeUDeb DebType = "udeb"
)

func debTypeFromString(s string) DebType {
	if s == "udeb" {
		return DebTypeUDeb
	}
	return DebTypeDEB
}

// Priority is the Debian package priority field.
type Priority string

const (
	PriorityUnknown   Priority = "unknown"
	PriorityRequired  Priority = "required"
	PriorityImportant Priority = "important"
	PriorityStandard  Priority = "standard"
	PriorityOptional  Priority = "optional"
	PriorityExtra     Priority = "extra"
)

func packagePriorityFromString(s string) Priority {
	switch s {
	case "required":
		return PriorityRequired
	case "important":
		return PriorityImportant
	case "standard":
		return PriorityStandard
	case "optional":
		return PriorityOptional
	case "extra":
		return PriorityExtra
	default:
		return PriorityUnknown
	}
}

// Repository is a named collection of suites.
type Repository struct {
	Name   string
	Suites []string
}

// Component is a subdivision of a suite (main, contrib, non-free, ...).
type Component struct {
	Name       string
	DependsOn  []string
	InSuites   []string
}

// Architecture is a target CPU/ABI.
type Architecture struct {
	Name     string
	InSuites []string
}

// Suite is a named slice of the archive.
type Suite struct {
	Name              string
	Repo              string
	Architectures     []string
	Components        []string
	BaseSuiteName     string // optional parent for overlay suites
	primaryArchCache  string
}

// PrimaryArchitecture returns the first non-"all" architecture of the suite.
func (s *Suite) PrimaryArchitecture() string {
	if s.primaryArchCache != "" {
		return s.primaryArchCache
	}
	for _, a := range s.Architectures {
		if a != "all" {
			s.primaryArchCache = a
			return a
		}
	}
	return ""
}

// HasParent reports whether the suite overlays a base suite.
func (s *Suite) HasParent() bool {
	return s.BaseSuiteName != ""
}

// ArchiveFile describes a single file referenced by a package record.
type ArchiveFile struct {
	Filename  string
	Size      int64
	SHA256Sum string
}

// PackageInfo is a single entry of a source package's Package-List field.
type PackageInfo struct {
	DebType       DebType
	Name          string
	Version       string
	Section       string
	Priority      Priority
	Architectures []string
}

// SourcePackage is a Debian source package at a specific version.
type SourcePackage struct {
	UUID            uuid.UUID
	SourceUUID      uuid.UUID
	Name            string
	Version         string
	Repo            string
	Component       string
	Suites          []string
	Architectures   []string
	Binaries        []PackageInfo
	StandardsVersion string
	Format          string
	Homepage        string
	VcsBrowser      string
	Maintainer      string
	Uploaders       []string
	BuildDepends    string
	Files           []ArchiveFile
	Directory       string
}

// NewSourcePackage constructs a SourcePackage with its deterministic
// identities precomputed.
func NewSourcePackage(repo, name, version string) *SourcePackage {
	return &SourcePackage{
		UUID:       SourcePackageUUID(repo, name, version),
		SourceUUID: SourceUUID(repo, name),
		Name:       name,
		Version:    version,
		Repo:       repo,
	}
}

// EnsureUUID regenerates the package's deterministic identities in place;
// safe to call repeatedly (idempotent on unchanged repo/name/version).
func (s *SourcePackage) EnsureUUID() {
	s.UUID = SourcePackageUUID(s.Repo, s.Name, s.Version)
	s.SourceUUID = SourceUUID(s.Repo, s.Name)
}

// BinaryPackage is a compiled .deb or installer .udeb.
type BinaryPackage struct {
	UUID             uuid.UUID
	DebType          DebType
	Name             string
	Version          string
	Repo             string
	Component        string
	Suites           []string
	Architecture     string
	InstalledSize    int64
	Description      string
	DescriptionMD5   string
	SourceName       string
	SourceVersion    string
	Priority         Priority
	Section          string
	Depends          string
	PreDepends       string
	Maintainer       string
	File             ArchiveFile
	Homepage         string
}

// NewBinaryPackage constructs a BinaryPackage with its deterministic UUID
// precomputed. Returns an error if arch is empty.
func NewBinaryPackage(repo, name, version, arch string) (*BinaryPackage, error) {
	if arch == "" {
		return nil, errArchRequired
	}
	return &BinaryPackage{
		UUID:         BinaryPackageUUID(repo, name, version, arch),
		Name:         name,
		Version:      version,
		Repo:         repo,
		Architecture: arch,
	}, nil
}

// EnsureUUID regenerates the binary package's deterministic identity.
func (b *BinaryPackage) EnsureUUID() {
	b.UUID = BinaryPackageUUID(b.Repo, b.Name, b.Version, b.Architecture)
}
