package debcheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkhq/laniakea/internal/archive"
)

// Scenario 5: one missing-dependency entry.
func TestParseDoseReportMissingDependency(t *testing.T) {
	raw := `report:
- package: p
  version: "1"
  architecture: amd64
  reasons:
  - missing:
      pkg:
        package: q
        version: "2"
        architecture: amd64
        unsat-dependency: "q (>= 2)"
`
	issues, err := parseDoseReport(raw, KindSource, "unstable", "amd64")
	require.NoError(t, err)
	require.Len(t, issues, 1)

	iss := issues[0]
	require.Equal(t, "p", iss.PackageName)
	require.Equal(t, "unstable", iss.SuiteName)
	require.Len(t, iss.Missing, 1)
	require.Equal(t, "q", iss.Missing[0].PackageName)
	require.Equal(t, "2", iss.Missing[0].PackageVersion)
	require.Equal(t, "amd64", iss.Missing[0].Architecture)
	require.Equal(t, "q (>= 2)", iss.Missing[0].UnsatDependency)
}

func TestParseDoseReportSkipsAllArchUnlessProcessingAll(t *testing.T) {
	raw := `report:
- package: p
  version: "1"
  architecture: all
  reasons: []
`
	issues, err := parseDoseReport(raw, KindBinary, "unstable", "amd64")
	require.NoError(t, err)
	require.Empty(t, issues)

	issues, err = parseDoseReport(raw, KindBinary, "unstable", "all")
	require.NoError(t, err)
	require.Len(t, issues, 1)
}

type fakeDoseSource struct {
	dir   string
	files map[string]string
}

func (f *fakeDoseSource) GetIndexFile(_ context.Context, suite, relativePath string) (string, error) {
	key := suite + "/" + relativePath
	name, ok := f.files[key]
	if !ok {
		return "", os.ErrNotExist
	}
	return filepath.Join(f.dir, name), nil
}

type fakeDoseSuites struct {
	suite *archive.Suite
}

func (s *fakeDoseSuites) SuiteByName(_ context.Context, _, _ string) (*archive.Suite, error) {
	return s.suite, nil
}

type fakeDose struct {
	report string
}

func (d *fakeDose) RunBuildDebcheck(_ context.Context, _ string, _, _ []string) (string, error) {
	return d.report, nil
}
func (d *fakeDose) RunDebcheck(_ context.Context, _ string, _, _ []string) (string, error) {
	return d.report, nil
}

type fakeDebcheckStore struct {
	deleted []string
	saved   []*DebcheckIssue
}

func (s *fakeDebcheckStore) DeleteIssuesForSuiteKindArch(_ context.Context, suite string, kind PackageKind, arch string) error {
	s.deleted = append(s.deleted, suite+"/"+string(kind)+"/"+arch)
	return nil
}
func (s *fakeDebcheckStore) SaveIssue(_ context.Context, issue *DebcheckIssue) error {
	s.saved = append(s.saved, issue)
	return nil
}

func TestGetBuildDepCheckIssuesRunsPerArchitecture(t *testing.T) {
	suite := &archive.Suite{Name: "unstable", Components: []string{"main"}, Architectures: []string{"amd64", "all"}}
	store := &fakeDebcheckStore{}
	e := &Engine{
		Repo:     &fakeDoseSource{},
		Suites:   &fakeDoseSuites{suite: suite},
		Dose:     &fakeDose{report: "report: []\n"},
		Store:    store,
		RepoName: "main",
	}

	issues, err := e.GetBuildDepCheckIssues(context.Background(), "unstable")
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Len(t, store.deleted, 2) // amd64 + all
}
