package spears

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/tagfile"
)

// workspaceDir is workspace/spears/<migrationId>.
func (e *Engine) workspaceDir(migrationID string) string {
	return filepath.Join(e.Workspace, "spears", migrationID)
}

func (e *Engine) inputDir(migrationID string) string  { return filepath.Join(e.workspaceDir(migrationID), "input") }
func (e *Engine) outputDir(migrationID string) string { return filepath.Join(e.workspaceDir(migrationID), "output") }
func (e *Engine) stateDir(migrationID string) string  { return filepath.Join(e.workspaceDir(migrationID), "state") }
func (e *Engine) confPath(migrationID string) string  { return filepath.Join(e.workspaceDir(migrationID), "britney.conf") }
func (e *Engine) lockPath(migrationID string) string  { return filepath.Join(e.workspaceDir(migrationID), "lock") }

// fakeDistsName is the synthesized archive name used for a fused,
// multi-source input corpus (e.g. "experimental+unstable").
func fakeDistsName(sourceSuites []string) string {
	sorted := append([]string(nil), sourceSuites...)
	sort.Strings(sorted)
	return strings.Join(sorted, "+")
}

// lockWorkspace acquires the advisory per-migration lock: the workspace
// directory for a migration is exclusive to a single run at a time.
func (e *Engine) lockWorkspace(migrationID string) (func(), error) {
	if err := os.MkdirAll(e.workspaceDir(migrationID), 0755); err != nil {
		return nil, errors.Wrap(err, "spears: create workspace")
	}
	lock := flock.New(e.lockPath(migrationID))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "spears: acquire workspace lock")
	}
	if !locked {
		return nil, errors.Errorf("spears: migration %s is already running", migrationID)
	}
	return func() { _ = lock.Unlock() }, nil
}

// UpdateConfig regenerates entry's britney configuration and refreshes
// britney's own working tree.
func (e *Engine) UpdateConfig(ctx context.Context, entry ConfigEntry) error {
	migrationID := entry.MigrationID()
	if err := os.MkdirAll(e.workspaceDir(migrationID), 0755); err != nil {
		return errors.Wrap(err, "spears: create workspace")
	}

	target, err := e.Suites.SuiteByName(ctx, e.RepoName, entry.TargetSuite)
	if err != nil {
		return errors.Wrapf(err, "spears: resolve target suite %s", entry.TargetSuite)
	}

	var sourceArchivePath string
	if len(entry.SourceSuites) == 1 {
		sourceArchivePath = path.Join("dists", entry.SourceSuites[0])
	} else {
		sourceArchivePath = path.Join(e.inputDir(migrationID), "dists", fakeDistsName(entry.SourceSuites))
	}
	targetArchivePath := path.Join("dists", entry.TargetSuite)

	var buf strings.Builder
	fmt.Fprintf(&buf, "# generated by lk-spears for migration %s\n", migrationID)
	fmt.Fprintf(&buf, "SOURCE_ARCHIVE = %s\n", sourceArchivePath)
	fmt.Fprintf(&buf, "TARGET_ARCHIVE = %s\n", targetArchivePath)
	fmt.Fprintf(&buf, "COMPONENTS = %s\n", strings.Join(target.Components, " "))
	fmt.Fprintf(&buf, "ARCHITECTURES = %s\n", strings.Join(nonAllArchitectures(target.Architectures), " "))
	for prio, days := range entry.Delays {
		fmt.Fprintf(&buf, "DELAY_%s = %d\n", strings.ToUpper(string(prio)), days)
	}
	for _, h := range entry.Hints {
		fmt.Fprintf(&buf, "HINT = %s %s %s\n", h.Hint, h.Reason, h.User)
	}

	if err := writeFileAtomic(e.confPath(migrationID), []byte(buf.String())); err != nil {
		return errors.Wrap(err, "spears: write britney.conf")
	}
	return e.Britney.UpdateDist(ctx)
}

func nonAllArchitectures(arches []string) []string {
	out := make([]string, 0, len(arches))
	for _, a := range arches {
		if a != "all" {
			out = append(out, a)
		}
	}
	return out
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".spears-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CollectUrgencies concatenates every dak.UrgencyExportDir file whose
// basename starts with "install-urgencies" into state/age-policy-urgencies.
func (e *Engine) CollectUrgencies(ctx context.Context, migrationID string) error {
	dir, err := e.Dak.UrgencyExportDir(ctx)
	if err != nil {
		return errors.Wrap(err, "spears: urgency export dir")
	}
	if err := os.MkdirAll(e.stateDir(migrationID), 0755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(e.stateDir(migrationID), "age-policy-urgencies"))
	if err != nil {
		return err
	}
	defer out.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "spears: list urgency export dir")
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasPrefix(ent.Name(), "install-urgencies") {
			continue
		}
		if err := appendFile(out, filepath.Join(dir, ent.Name())); err != nil {
			return errors.Wrapf(err, "spears: appending %s", ent.Name())
		}
	}
	return nil
}

func appendFile(dst *os.File, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	_, err = r.WriteTo(dst)
	return err
}

// SetupDates creates state/age-policy-dates as empty if absent.
func (e *Engine) SetupDates(migrationID string) error {
	return touchIfAbsent(filepath.Join(e.stateDir(migrationID), "age-policy-dates"))
}

// SetupVarious touches the rc-bugs/piuparts-summary placeholder files
// britney refuses to start without, per source suite and for the target.
func (e *Engine) SetupVarious(migrationID string, entry ConfigEntry) error {
	if err := os.MkdirAll(e.stateDir(migrationID), 0755); err != nil {
		return err
	}
	suites := append(append([]string(nil), entry.SourceSuites...), entry.TargetSuite)
	for _, suite := range suites {
		if err := touchIfAbsent(filepath.Join(e.stateDir(migrationID), "rc-bugs-"+suite)); err != nil {
			return err
		}
		if err := touchIfAbsent(filepath.Join(e.stateDir(migrationID), "piuparts-summary-"+suite+".json")); err != nil {
			return err
		}
	}
	return nil
}

func touchIfAbsent(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// CreateFauxPackages emits a faux-packages file from each parent suite's
// Packages.xz, only when migrating a single source suite whose source and
// target suites both have a parent; skipped silently otherwise.
func (e *Engine) CreateFauxPackages(ctx context.Context, migrationID string, entry ConfigEntry) error {
	if len(entry.SourceSuites) != 1 {
		return nil // multi-source: skipped silently
	}
	source, err := e.Suites.SuiteByName(ctx, e.RepoName, entry.SourceSuites[0])
	if err != nil {
		return errors.Wrapf(err, "spears: resolve source suite %s", entry.SourceSuites[0])
	}
	target, err := e.Suites.SuiteByName(ctx, e.RepoName, entry.TargetSuite)
	if err != nil {
		return errors.Wrapf(err, "spears: resolve target suite %s", entry.TargetSuite)
	}
	if !source.HasParent() || !target.HasParent() {
		return nil
	}

	if err := os.MkdirAll(e.inputDir(migrationID), 0755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(e.inputDir(migrationID), "faux-packages"))
	if err != nil {
		return err
	}
	defer out.Close()

	for _, component := range target.Components {
		for _, arch := range nonAllArchitectures(target.Architectures) {
			if err := e.appendFauxPackagesFor(ctx, out, source.BaseSuiteName, component, arch); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) appendFauxPackagesFor(ctx context.Context, out *os.File, parentSuite, component, arch string) error {
	rel := path.Join(component, "binary-"+arch, "Packages.xz")
	local, err := e.Repo.GetIndexFile(ctx, parentSuite, rel)
	if err != nil {
		return nil // parent lacks this (component,arch): not fatal to faux-packages
	}
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()
	tr, err := tagfile.Open(local, f)
	if err != nil {
		return err
	}

	for tr.NextSection() {
		name := tr.ReadField("Package", "")
		version := tr.ReadField("Version", "")
		if name == "" || version == "" {
			continue
		}
		fmt.Fprintf(out, "Package: %s\nVersion: %s\nArchitecture: %s\n", name, version, arch)
		if p := tr.ReadField("Provides", ""); p != "" {
			fmt.Fprintf(out, "Provides: %s\n", p)
		}
		fmt.Fprintf(out, "Component: %s\n\n", component)
	}
	return tr.Err()
}
