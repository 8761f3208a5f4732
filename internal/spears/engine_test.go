package spears

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkhq/laniakea/internal/archive"
)

// fakeSource is a minimal Source: GetIndexFile serves plain-text fixtures
// (named without a .xz suffix so tagfile.Decompress passes them through
// unchanged) keyed by suite+"/"+relPath.
type fakeSource struct {
	dir      string
	files    map[string]string // suite+"/"+relPath -> fixture filename under dir
	srcPkgs  map[string][]*archive.SourcePackage
}

func (f *fakeSource) GetIndexFile(_ context.Context, suite, relativePath string) (string, error) {
	key := suite + "/" + relativePath
	name, ok := f.files[key]
	if !ok {
		return "", os.ErrNotExist
	}
	return filepath.Join(f.dir, name), nil
}

func (f *fakeSource) GetSourcePackages(_ context.Context, suite, component string) ([]*archive.SourcePackage, error) {
	return f.srcPkgs[suite+"/"+component], nil
}

type fakeSuites struct {
	suites map[string]*archive.Suite
}

func (s *fakeSuites) SuiteByName(_ context.Context, _, name string) (*archive.Suite, error) {
	if suite, ok := s.suites[name]; ok {
		return suite, nil
	}
	return nil, os.ErrNotExist
}

type passthroughXZ struct{}

func (passthroughXZ) Compress(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

type fakeEvents struct {
	warnings []string
}

func (e *fakeEvents) Info(_ context.Context, _, _ string) error { return nil }
func (e *fakeEvents) Warning(_ context.Context, title, _ string) error {
	e.warnings = append(e.warnings, title)
	return nil
}

// Scenario 6: migration fusion.
func TestPrepareSourceDataFusesMultipleSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unstable-amd64.txt"), []byte("Package: foo\nVersion: 1.0\n\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "experimental-amd64.txt"), []byte("Package: bar\nVersion: 2.0\n\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unstable-source.txt"), []byte("Package: foo\nVersion: 1.0\n\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release.txt"), []byte("Codename: unstable\n"), 0644))

	src := &fakeSource{
		dir: dir,
		files: map[string]string{
			"unstable/main/binary-amd64/Packages.xz":     "unstable-amd64.txt",
			"experimental/main/binary-amd64/Packages.xz": "experimental-amd64.txt",
			"unstable/main/source/Sources.xz":            "unstable-source.txt",
			"experimental/main/source/Sources.xz":         "unstable-source.txt",
			"unstable/Release":                           "release.txt",
		},
	}

	workspace := t.TempDir()
	e := &Engine{
		Repo:      src,
		Suites:    &fakeSuites{suites: map[string]*archive.Suite{"testing": {Name: "testing", Components: []string{"main"}, Architectures: []string{"amd64", "all"}}}},
		Workspace: workspace,
		XZ:        passthroughXZ{},
	}
	entry := ConfigEntry{SourceSuites: []string{"unstable", "experimental"}, TargetSuite: "testing"}

	err := e.PrepareSourceData(context.Background(), entry.MigrationID(), entry)
	require.NoError(t, err)

	fused := filepath.Join(workspace, "spears", entry.MigrationID(), "input", "dists",
		"experimental+unstable", "main", "binary-amd64", "Packages.xz")
	data, err := os.ReadFile(fused)
	require.NoError(t, err)
	require.Contains(t, string(data), "Package: foo")
	require.Contains(t, string(data), "Package: bar")
}

func TestMigrationIDSortsSourceSuites(t *testing.T) {
	id := MigrationID([]string{"unstable", "experimental"}, "testing")
	require.Equal(t, "experimental+unstable-to-testing", id)
}

func TestPostprocessHeidiResultDropsFourthColumn(t *testing.T) {
	workspace := t.TempDir()
	e := &Engine{Workspace: workspace, Events: &fakeEvents{}}
	migrationID := "unstable-to-testing"
	outDir := filepath.Join(workspace, "spears", migrationID, "output")
	require.NoError(t, os.MkdirAll(outDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "HeidiResult"),
		[]byte("foo 1.0 amd64 extra-col\nbar malformed-line\n"), 0644))

	dest, entries, err := e.postprocessHeidiResult(context.Background(), migrationID)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "foo 1.0 amd64\n", string(data))
	require.Len(t, entries, 1)
	require.Equal(t, "extra-col", entries[0].Extra)

	ev := e.Events.(*fakeEvents)
	require.Len(t, ev.warnings, 1)
}

func TestRunMigrationNoSuchEntry(t *testing.T) {
	e := &Engine{}
	ok, excuses, err := e.RunMigration(context.Background(), "unstable", "testing")
	require.False(t, ok)
	require.Nil(t, excuses)
	require.Error(t, err)
	var target *ErrNoSuchMigration
	require.ErrorAs(t, err, &target)
}

func TestRunMigrationInternalMissingConfigWarnsAndReturnsFalse(t *testing.T) {
	workspace := t.TempDir()
	ev := &fakeEvents{}
	e := &Engine{Workspace: workspace, Events: ev}
	entry := ConfigEntry{SourceSuites: []string{"unstable"}, TargetSuite: "testing"}

	ok, excuses, err := e.RunMigrationInternal(context.Background(), entry)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, excuses)
	require.NotEmpty(t, ev.warnings)
}
