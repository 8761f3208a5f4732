package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/lkhq/laniakea/internal/archive"
	"github.com/lkhq/laniakea/internal/tagfile"
)

func sha256File(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetSourcePackages streams dists/<suite>/<component>/source/Sources.xz,
// materializing typed records with deterministic UUIDs filled in.
func (r *Repository) GetSourcePackages(ctx context.Context, suite, component string) ([]*archive.SourcePackage, error) {
	rel := path.Join(component, "source", "Sources.xz")
	local, err := r.GetIndexFile(ctx, suite, rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tr, err := tagfile.Open(local, f)
	if err != nil {
		return nil, err
	}

	var out []*archive.SourcePackage
	for tr.NextSection() {
		name := tr.ReadField("Package", "")
		version := tr.ReadField("Version", "")
		if name == "" || version == "" {
			continue
		}
		sp := archive.NewSourcePackage(r.Name, name, version)
		sp.Component = component
		sp.Suites = []string{suite}
		sp.StandardsVersion = tr.ReadField("Standards-Version", "")
		sp.Maintainer = tr.ReadField("Maintainer", "")
		sp.Homepage = tr.ReadField("Homepage", "")
		sp.VcsBrowser = tr.ReadField("Vcs-Browser", "")
		sp.Format = tr.ReadField("Format", "")
		sp.Directory = tr.ReadField("Directory", "")
		sp.BuildDepends = tr.ReadField("Build-Depends", "")
		if arches := tr.ReadField("Architecture", ""); arches != "" {
			sp.Architectures = splitFields(arches)
		}
		sp.Binaries = tagfile.ParsePackageList(tr.ReadField("Package-List", ""), version)
		files, err := tagfile.ParseChecksumsList(tr.ReadField("Checksums-Sha256", ""), sp.Directory)
		if err != nil {
			return nil, err
		}
		sp.Files = files
		out = append(out, sp)
	}
	return out, tr.Err()
}

// GetBinaryPackages streams dists/<suite>/<component>/binary-<arch>/Packages.xz.
// Arch-specific lists must not contain stanzas whose Architecture is "all";
// such stanzas are skipped here, and callers merge them separately via
// arch="all".
func (r *Repository) GetBinaryPackages(ctx context.Context, suite, component, arch string) ([]*archive.BinaryPackage, error) {
	rel := path.Join(component, "binary-"+arch, "Packages.xz")
	return r.readBinaryIndex(ctx, suite, component, arch, rel, arch != "all")
}

// GetInstallerPackages streams the debian-installer variant of the binary
// index for (suite, component, arch).
func (r *Repository) GetInstallerPackages(ctx context.Context, suite, component, arch string) ([]*archive.BinaryPackage, error) {
	rel := path.Join(component, "debian-installer", "binary-"+arch, "Packages.xz")
	pkgs, err := r.readBinaryIndex(ctx, suite, component, arch, rel, arch != "all")
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		p.DebType = archive.DebTypeUDeb
	}
	return pkgs, nil
}

func (r *Repository) readBinaryIndex(ctx context.Context, suite, component, arch, rel string, excludeAll bool) ([]*archive.BinaryPackage, error) {
	local, err := r.GetIndexFile(ctx, suite, rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tr, err := tagfile.Open(local, f)
	if err != nil {
		return nil, err
	}

	var out []*archive.BinaryPackage
	for tr.NextSection() {
		name := tr.ReadField("Package", "")
		version := tr.ReadField("Version", "")
		pkgArch := tr.ReadField("Architecture", arch)
		if name == "" || version == "" {
			continue
		}
		if excludeAll && pkgArch == "all" {
			continue
		}
		bp, err := archive.NewBinaryPackage(r.Name, name, version, pkgArch)
		if err != nil {
			continue // malformed stanza: skip with warning
		}
		bp.Component = component
		bp.Suites = []string{suite}
		bp.Description = tr.ReadField("Description", "")
		bp.DescriptionMD5 = tr.ReadField("Description-md5", "")
		bp.SourceName, bp.SourceVersion = name, version
		if src := tr.ReadField("Source", ""); src != "" {
			srcName, srcVer := parseSourceField(src)
			bp.SourceName = srcName
			if srcVer != "" {
				bp.SourceVersion = srcVer
			}
		}
		bp.Section = tr.ReadField("Section", "")
		bp.Depends = tr.ReadField("Depends", "")
		bp.PreDepends = tr.ReadField("Pre-Depends", "")
		bp.Maintainer = tr.ReadField("Maintainer", "")
		bp.Homepage = tr.ReadField("Homepage", "")
		bp.File.Filename = tr.ReadField("Filename", "")
		bp.File.SHA256Sum = tr.ReadField("SHA256", "")
		out = append(out, bp)
	}
	return out, tr.Err()
}

// parseSourceField splits a "Source:" field of the form "name (version)".
func parseSourceField(s string) (name, version string) {
	i := strings.IndexByte(s, '(')
	if i < 0 {
		return s, ""
	}
	name = strings.TrimSpace(s[:i])
	version = strings.TrimSuffix(strings.TrimSpace(s[i+1:]), ")")
	return name, version
}

func splitFields(s string) []string {
	return strings.Fields(s)
}

// GetNewestPackagesMap reduces a list of binary packages to the newest
// version per name. Ties keep the last entry (append order).
func GetNewestPackagesMap(pkgs []*archive.BinaryPackage) map[string]*archive.BinaryPackage {
	out := make(map[string]*archive.BinaryPackage, len(pkgs))
	for _, p := range pkgs {
		cur, ok := out[p.Name]
		if !ok || archive.VersionCompare(p.Version, cur.Version) >= 0 {
			out[p.Name] = p
		}
	}
	return out
}

// GetNewestSourcePackagesMap is the source-package analogue of
// GetNewestPackagesMap.
func GetNewestSourcePackagesMap(pkgs []*archive.SourcePackage) map[string]*archive.SourcePackage {
	out := make(map[string]*archive.SourcePackage, len(pkgs))
	for _, p := range pkgs {
		cur, ok := out[p.Name]
		if !ok || archive.VersionCompare(p.Version, cur.Version) >= 0 {
			out[p.Name] = p
		}
	}
	return out
}

// SortedNames returns map keys sorted, a small helper used by callers that
// need deterministic iteration order (e.g. tests, logging).
func SortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
