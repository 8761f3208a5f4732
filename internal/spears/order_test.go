package spears

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkhq/laniakea/internal/archive"
)

func TestOrderSourcesForBuildRespectsDependencies(t *testing.T) {
	names := []string{"app", "libfoo", "libbar"}
	deps := map[string][]string{
		"app":    {"libfoo", "libbar"},
		"libfoo": {"libbar"},
	}

	ordered, err := OrderSourcesForBuild(names, deps)
	require.NoError(t, err)
	require.Len(t, ordered, 3)

	pos := make(map[string]int, len(ordered))
	for i, n := range ordered {
		pos[n] = i
	}
	require.Less(t, pos["libbar"], pos["libfoo"])
	require.Less(t, pos["libfoo"], pos["app"])
}

func TestBuildDependencyNamesStripsVersionsAlternativesAndArch(t *testing.T) {
	got := buildDependencyNames("debhelper (>= 11), libfoo-dev:any (>= 2.0) | libfoo2-dev, pkg-config")
	require.Equal(t, []string{"debhelper", "libfoo-dev", "pkg-config"}, got)
}

// Scenario 7: Spears' reported missing-build excuses are reordered by
// build-dependency so a dependency's own missing build is scheduled first.
func TestOrderMissingBuildsOrdersByBuildDependency(t *testing.T) {
	src := &fakeSource{
		srcPkgs: map[string][]*archive.SourcePackage{
			"unstable/main": {
				withBuildDepends(archive.NewSourcePackage("debian", "app", "1.0"), "libfoo"),
				withBuildDepends(archive.NewSourcePackage("debian", "libfoo", "1.0"), ""),
				withBuildDepends(archive.NewSourcePackage("debian", "unrelated", "1.0"), ""),
			},
		},
	}
	suites := &fakeSuites{suites: map[string]*archive.Suite{
		"testing": {Name: "testing", Components: []string{"main"}},
	}}
	e := &Engine{Repo: src, Suites: suites, RepoName: "debian"}
	entry := ConfigEntry{SourceSuites: []string{"unstable"}, TargetSuite: "testing"}

	excuses := []*Excuse{
		{SourcePackage: "app", MissingBuilds: MissingBuilds{PrimaryArchs: []string{"arm64"}}},
		{SourcePackage: "libfoo", MissingBuilds: MissingBuilds{PrimaryArchs: []string{"arm64"}}},
		{SourcePackage: "unrelated"}, // no missing build, excluded from the result
	}

	ordered, err := e.OrderMissingBuilds(context.Background(), entry, excuses)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	require.Equal(t, "libfoo", ordered[0].SourcePackage)
	require.Equal(t, "app", ordered[1].SourcePackage)
}

func withBuildDepends(sp *archive.SourcePackage, buildDepends string) *archive.SourcePackage {
	sp.BuildDepends = buildDepends
	return sp
}
