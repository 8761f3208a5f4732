package archive

import (
	"strings"

	debversion "pault.ag/go/debian/version"
)

// VersionCompare compares two Debian version strings and returns -1, 0 or 1,
// mirroring dpkg's epoch:upstream-debianrev ordering. It delegates to
// pault.ag/go/debian/version rather than reimplementing the comparator.
func VersionCompare(a, b string) int {
	va, errA := debversion.Parse(a)
	vb, errB := debversion.Parse(b)
	if errA != nil || errB != nil {
		// Fall back to a plain string comparison for unparsable input so
		// callers never panic on malformed index data; a warning-level
		// event should be raised by the caller in that case.
		return strings.Compare(a, b)
	}
	return debversion.Compare(va, vb)
}

// DebianRevision returns the suffix after the last "-" in v. If v has no
// "-", DebianRevision returns v itself when fullForNative is true, and ""
// otherwise (native package convention).
func DebianRevision(v string, fullForNative bool) string {
	idx := strings.LastIndex(v, "-")
	if idx < 0 {
		if fullForNative {
			return v
		}
		return ""
	}
	return v[idx+1:]
}

// IsNative reports whether v has no Debian revision suffix (a "native"
// package, conventionally never eligible for cruft removal).
func IsNative(v string) bool {
	return DebianRevision(v, false) == ""
}

// IsBinNMU reports whether revision has the "XbY" binary-NMU suffix form,
// e.g. "3b1".
func IsBinNMU(revision string) bool {
	idx := strings.IndexByte(revision, 'b')
	if idx <= 0 || idx == len(revision)-1 {
		return false
	}
	// Everything before 'b' and after it must be digits.
	for _, r := range revision[:idx] {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, r := range revision[idx+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NewestVersion returns the largest of versions by VersionCompare; ties keep
// the last entry (append-ordered, matching §4.3's "ties: last wins").
func NewestVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if VersionCompare(v, best) >= 0 {
			best = v
		}
	}
	return best
}

// SortVersionsDescending sorts versions from newest to oldest in place,
// using an insertion sort over the parsed Debian versions.
func SortVersionsDescending(versions []string) {
	parsed := make([]debversion.Version, 0, len(versions))
	for _, v := range versions {
		pv, err := debversion.Parse(v)
		if err != nil {
			pv = debversion.Version{}
		}
		parsed = append(parsed, pv)
	}
	// simple insertion sort paired with the original strings, descending.
	for i := 1; i < len(versions); i++ {
		for j := i; j > 0 && debversion.Compare(parsed[j], parsed[j-1]) > 0; j-- {
			parsed[j], parsed[j-1] = parsed[j-1], parsed[j]
			versions[j], versions[j-1] = versions[j-1], versions[j]
		}
	}
}
