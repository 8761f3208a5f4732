package repository

import (
	"testing"

	"github.com/lkhq/laniakea/internal/archive"
	"github.com/stretchr/testify/require"
)

func TestGetNewestPackagesMapTieLastWins(t *testing.T) {
	a, _ := archive.NewBinaryPackage("repo", "foo", "1.0", "amd64")
	b, _ := archive.NewBinaryPackage("repo", "foo", "1.0", "amd64")
	m := GetNewestPackagesMap([]*archive.BinaryPackage{a, b})
	require.Same(t, b, m["foo"])
}

func TestGetNewestPackagesMapPicksLargest(t *testing.T) {
	a, _ := archive.NewBinaryPackage("repo", "foo", "1.0-1", "amd64")
	b, _ := archive.NewBinaryPackage("repo", "foo", "2.0-1", "amd64")
	m := GetNewestPackagesMap([]*archive.BinaryPackage{a, b})
	require.Same(t, b, m["foo"])
}

func TestParseSourceField(t *testing.T) {
	name, ver := parseSourceField("libfoo (1.2-3)")
	require.Equal(t, "libfoo", name)
	require.Equal(t, "1.2-3", ver)

	name, ver = parseSourceField("libfoo")
	require.Equal(t, "libfoo", name)
	require.Equal(t, "", ver)
}
