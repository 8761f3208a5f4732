package tagfile

import (
	"testing"

	"github.com/lkhq/laniakea/internal/archive"
	"github.com/stretchr/testify/require"
)

func TestParseChecksumsListRoundTrip(t *testing.T) {
	files := []archive.ArchiveFile{
		{SHA256Sum: "abc123", Size: 42, Filename: "pool/main/f/foo/foo_1.0.dsc"},
		{SHA256Sum: "def456", Size: 100, Filename: "pool/main/f/foo/foo_1.0.tar.xz"},
	}
	raw := FormatChecksumsList(files)
	got, err := ParseChecksumsList(raw, "")
	require.NoError(t, err)
	require.Equal(t, files, got)
}

func TestParseChecksumsListBaseDir(t *testing.T) {
	got, err := ParseChecksumsList("abc 10 foo.dsc", "pool/main/f/foo")
	require.NoError(t, err)
	require.Equal(t, []archive.ArchiveFile{{SHA256Sum: "abc", Size: 10, Filename: "pool/main/f/foo/foo.dsc"}}, got)
}

func TestParseChecksumsListInvalidSize(t *testing.T) {
	_, err := ParseChecksumsList("abc notanumber foo.dsc", "")
	require.Error(t, err)
}

func TestParsePackageListRoundTrip(t *testing.T) {
	infos := []archive.PackageInfo{
		{Name: "foo", DebType: archive.DebTypeDEB, Section: "libs", Priority: archive.PriorityOptional, Version: "1.0", Architectures: []string{"amd64", "i386"}},
		{Name: "foo-dbg", DebType: archive.DebTypeDEB, Section: "debug", Priority: archive.PriorityExtra, Version: "1.0"},
	}
	raw := FormatPackageList(infos)
	got := ParsePackageList(raw, "1.0")
	require.Equal(t, infos, got)
}

func TestParsePackageListSkipsMalformed(t *testing.T) {
	got := ParsePackageList("foo deb\nbar deb libs optional", "1.0")
	require.Len(t, got, 1)
	require.Equal(t, "bar", got[0].Name)
}
