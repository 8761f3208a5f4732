package archive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCompareAntisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"1.0-1", "1.0-2"},
		{"2.0", "1.9-0distro1"},
		{"1:1.0-1", "2.0-1"},
		{"1.0", "1.0"},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		require.Equal(t, -VersionCompare(b, a), VersionCompare(a, b), "antisymmetry for %s/%s", a, b)
	}
}

func TestDebianRevision(t *testing.T) {
	require.Equal(t, "1", DebianRevision("1.0-1", false))
	require.Equal(t, "", DebianRevision("1.0", false))
	require.Equal(t, "1.0", DebianRevision("1.0", true))
	require.Equal(t, "0tanglu1", DebianRevision("1.0-0tanglu1", false))
}

func TestIsNative(t *testing.T) {
	require.True(t, IsNative("1.0"))
	require.False(t, IsNative("1.0-1"))
}

func TestIsBinNMU(t *testing.T) {
	require.True(t, IsBinNMU("3b1"))
	require.False(t, IsBinNMU("0tanglu1"))
	require.False(t, IsBinNMU("b1"))
	require.False(t, IsBinNMU("3b"))
}

func TestNewestVersion(t *testing.T) {
	require.Equal(t, "1.2-3", NewestVersion([]string{"1.0-1", "1.2-3", "1.1-5"}))
}

func TestSortVersionsDescending(t *testing.T) {
	v := []string{"1.0-1", "1.2-3", "1.1-5"}
	SortVersionsDescending(v)
	require.Equal(t, []string{"1.2-3", "1.1-5", "1.0-1"}, v)
}
