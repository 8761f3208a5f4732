// Package archive holds the canonical in-memory representation of archive
// entities (repositories, suites, components, architectures, source and
// binary packages) and their deterministic identity derivation.
package archive

import (
	"github.com/google/uuid"
)

// namespace is an arbitrary fixed UUID used as the SHA-1 namespace so that
// identical (repo, kind, key) triples always hash to the same UUID across
// processes and re-imports.
var namespace = uuid.MustParse("6c8a1e2e-6b9b-4b3b-9b1e-6a2d6f8c9a01")

// sha1UUID derives a deterministic UUID (version 5, SHA-1) from name.
func sha1UUID(name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(name))
}

// SourceUUID computes the stable-across-versions identity used as a
// migration/build trigger key: sha1UUID(repo ~ "::" ~ name).
func SourceUUID(repo, name string) uuid.UUID {
	return sha1UUID(repo + "::" + name)
}

// SourcePackageUUID computes the version-specific identity of a source
// package: sha1UUID(repo ~ "::source/" ~ name ~ "/" ~ version).
func SourcePackageUUID(repo, name, version string) uuid.UUID {
	return sha1UUID(repo + "::source/" + name + "/" + version)
}

// BinaryPackageUUID computes the identity of a binary package: sha1UUID(repo
// ~ "::" ~ name ~ "/" ~ version ~ "/" ~ arch).
func BinaryPackageUUID(repo, name, version, arch string) uuid.UUID {
	return sha1UUID(repo + "::" + name + "/" + version + "/" + arch)
}

// StringID returns the binary package's string identifier:
// repo ~ "::" ~ name ~ "/" ~ version ~ "/" ~ arch.
func (b *BinaryPackage) StringID() string {
	return b.Repo + "::" + b.Name + "/" + b.Version + "/" + b.Architecture
}
