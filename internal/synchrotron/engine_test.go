package synchrotron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkhq/laniakea/internal/archive"
)

// fakeSource is an in-memory Source backed by per-(suite,component[,arch])
// fixtures, avoiding the need to materialize real compressed tagfiles.
type fakeSource struct {
	srcPkgs map[string][]*archive.SourcePackage      // key: suite+"/"+component
	binPkgs map[string][]*archive.BinaryPackage      // key: suite+"/"+component+"/"+arch
	files   map[string]string                        // key: Filename -> local path
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		srcPkgs: make(map[string][]*archive.SourcePackage),
		binPkgs: make(map[string][]*archive.BinaryPackage),
		files:   make(map[string]string),
	}
}

func (f *fakeSource) GetSourcePackages(_ context.Context, suite, component string) ([]*archive.SourcePackage, error) {
	return f.srcPkgs[suite+"/"+component], nil
}

func (f *fakeSource) GetBinaryPackages(_ context.Context, suite, component, arch string) ([]*archive.BinaryPackage, error) {
	return f.binPkgs[suite+"/"+component+"/"+arch], nil
}

func (f *fakeSource) GetFile(_ context.Context, af archive.ArchiveFile, _ bool) (string, error) {
	if p, ok := f.files[af.Filename]; ok {
		return p, nil
	}
	return "/fake/" + af.Filename, nil
}

type fakeDak struct {
	imports       [][]string
	removable     map[string]bool
	removeErr     map[string]error
	importResult  bool
}

func (d *fakeDak) ImportPackageFiles(_ context.Context, _, _ string, files []string, _, _ bool) (bool, error) {
	d.imports = append(d.imports, files)
	return true, nil
}

func (d *fakeDak) PackageIsRemovable(_ context.Context, name, _ string) (bool, error) {
	if d.removable == nil {
		return true, nil
	}
	return d.removable[name], nil
}

func (d *fakeDak) RemovePackage(_ context.Context, name, _ string) error {
	if d.removeErr != nil {
		return d.removeErr[name]
	}
	return nil
}

type fakeStore struct {
	blacklist map[string]*BlacklistEntry
	issues    []*Issue
}

func newFakeStore() *fakeStore {
	return &fakeStore{blacklist: make(map[string]*BlacklistEntry)}
}

func (s *fakeStore) IsBlacklisted(_ context.Context, name string) (*BlacklistEntry, error) {
	return s.blacklist[name], nil
}

func (s *fakeStore) SaveIssue(_ context.Context, issue *Issue) error {
	s.issues = append(s.issues, issue)
	return nil
}

func (s *fakeStore) DeleteIssuesForSuitePair(_ context.Context, _, _ string) error {
	s.issues = nil
	return nil
}

type fakeEvents struct {
	infos    []string
	warnings []string
}

func (e *fakeEvents) Info(_ context.Context, title, _ string) error {
	e.infos = append(e.infos, title)
	return nil
}

func (e *fakeEvents) Warning(_ context.Context, title, _ string) error {
	e.warnings = append(e.warnings, title)
	return nil
}

func newTestEngine(source *fakeSource, target *fakeSource, dak *fakeDak, store *fakeStore, ev *fakeEvents) *Engine {
	return &Engine{
		Store:      store,
		SourceRepo: source,
		TargetRepo: target,
		Dak:        dak,
		Events:     ev,
		Config: Config{
			SourceName:  "debian",
			SourceSuite: "unstable",
			TargetSuite: archive.Suite{
				Name:          "main",
				Components:    []string{"main"},
				Architectures: []string{"amd64", "all"},
			},
			DistroTag: "tanglu",
		},
	}
}

// Scenario 1: blacklist honored.
func TestSyncPackagesBlacklistHonored(t *testing.T) {
	src := newFakeSource()
	src.srcPkgs["unstable/main"] = []*archive.SourcePackage{
		archive.NewSourcePackage("debian", "foo", "1.0"),
	}
	target := newFakeSource()
	dak := &fakeDak{}
	store := newFakeStore()
	store.blacklist["foo"] = &BlacklistEntry{PackageName: "foo", Reason: "reason"}
	ev := &fakeEvents{}

	e := newTestEngine(src, target, dak, store, ev)
	ok, err := e.SyncPackages(context.Background(), "main", []string{"foo"}, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, dak.imports)
	require.Contains(t, ev.infos, "Can not sync foo")
}

// Scenario 2: merge required.
func TestAutoSyncMergeRequired(t *testing.T) {
	src := newFakeSource()
	src.srcPkgs["unstable/main"] = []*archive.SourcePackage{
		archive.NewSourcePackage("debian", "bar", "2.0"),
	}
	target := newFakeSource()
	targetBar := archive.NewSourcePackage("debian", "bar", "1.9-0tanglu1")
	target.srcPkgs["main/main"] = []*archive.SourcePackage{targetBar}

	dak := &fakeDak{}
	store := newFakeStore()
	ev := &fakeEvents{}
	e := newTestEngine(src, target, dak, store, ev)

	_, issues, err := e.AutoSync(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, IssueMergeRequired, issues[0].Kind)
	require.Equal(t, "bar", issues[0].PackageName)
	require.Equal(t, "2.0", issues[0].SourceVersion)
	require.Equal(t, "1.9-0tanglu1", issues[0].TargetVersion)
	require.Empty(t, dak.imports)
}

// Scenario 3: binNMU rejection.
func TestImportBinariesRejectsBinNMU(t *testing.T) {
	src := newFakeSource()
	srcPkg := archive.NewSourcePackage("debian", "libx", "1.2-3")
	srcPkg.Binaries = []archive.PackageInfo{{Name: "libx", Version: "1.2-3"}}
	src.binPkgs["unstable/main/amd64"] = []*archive.BinaryPackage{
		mustBinary(t, "debian", "libx", "1.2-3", "amd64", "libx", "1.2-3"),
	}

	target := newFakeSource()
	target.binPkgs["main/main/amd64"] = []*archive.BinaryPackage{
		mustBinary(t, "debian", "libx", "1.2-3b1", "amd64", "libx", "1.2-3"),
	}

	dak := &fakeDak{}
	store := newFakeStore()
	ev := &fakeEvents{}
	e := newTestEngine(src, target, dak, store, ev)

	sources := map[string]*archive.SourcePackage{"libx": srcPkg}
	err := e.ImportBinariesForSources(context.Background(), sources, "main", false)
	require.NoError(t, err)
	require.Empty(t, dak.imports)
}

// Scenario 4: cruft detection.
func TestRemoveCruftPaths(t *testing.T) {
	src := newFakeSource() // empty: both target packages are absent from source

	target := newFakeSource()
	target.srcPkgs["main/main"] = []*archive.SourcePackage{
		archive.NewSourcePackage("debian", "oldpkg", "1.0-1"),
		archive.NewSourcePackage("debian", "stuckpkg", "2.0-1"),
	}

	dak := &fakeDak{removable: map[string]bool{"oldpkg": true, "stuckpkg": false}}
	store := newFakeStore()
	ev := &fakeEvents{}
	e := newTestEngine(src, target, dak, store, ev)

	issues, err := e.removeCruft(context.Background(), "main")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, IssueRemovalFailed, issues[0].Kind)
	require.Equal(t, "stuckpkg", issues[0].PackageName)
	require.Equal(t, "can not be removed without breaking other packages", issues[0].Details)
}

// SyncPackages must thread force into ImportBinariesForSources's
// ignoreTargetChanges the same way AutoSync does: a locally-modified
// target binary is only re-synced when force is set.
func TestSyncPackagesForceThreadsIntoBinaryImport(t *testing.T) {
	src := newFakeSource()
	srcPkg := archive.NewSourcePackage("debian", "foo", "2.0")
	srcPkg.Binaries = []archive.PackageInfo{{Name: "foo", Version: "2.0"}}
	src.srcPkgs["unstable/main"] = []*archive.SourcePackage{srcPkg}
	src.binPkgs["unstable/main/amd64"] = []*archive.BinaryPackage{
		mustBinary(t, "debian", "foo", "2.0", "amd64", "foo", "2.0"),
	}

	target := newFakeSource()
	target.binPkgs["main/main/amd64"] = []*archive.BinaryPackage{
		mustBinary(t, "debian", "foo", "1.9-1tanglu1", "amd64", "foo", "1.9-1tanglu1"),
	}

	dak := &fakeDak{}
	store := newFakeStore()
	ev := &fakeEvents{}
	e := newTestEngine(src, target, dak, store, ev)

	ok, err := e.SyncPackages(context.Background(), "main", []string{"foo"}, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, dak.imports, 1, "locally-modified target binary must not be re-synced without force")

	dak.imports = nil
	ok, err = e.SyncPackages(context.Background(), "main", []string{"foo"}, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, dak.imports, 2, "force must flow into ImportBinariesForSources's ignoreTargetChanges")
}

func mustBinary(t *testing.T, repo, name, version, arch, srcName, srcVersion string) *archive.BinaryPackage {
	t.Helper()
	bp, err := archive.NewBinaryPackage(repo, name, version, arch)
	require.NoError(t, err)
	bp.SourceName = srcName
	bp.SourceVersion = srcVersion
	bp.File = archive.ArchiveFile{Filename: name + "_" + version + "_" + arch + ".deb"}
	return bp
}
