package synchrotron

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/lkhq/laniakea/internal/archive"
	"github.com/lkhq/laniakea/internal/repository"
)

// newestTargetVersion returns the newest version of name across the target
// suite and, if present, its parent.
func (e *Engine) newestTargetVersion(ctx context.Context, component, name string) (string, error) {
	versions, err := e.targetVersionsOf(ctx, component, name)
	if err != nil {
		return "", err
	}
	return archive.NewestVersion(versions), nil
}

func (e *Engine) targetVersionsOf(ctx context.Context, component, name string) ([]string, error) {
	var versions []string
	pkgs, err := e.TargetRepo.GetSourcePackages(ctx, e.Config.TargetSuite.Name, component)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.Name == name {
			versions = append(versions, p.Version)
		}
	}
	if e.Config.TargetSuite.HasParent() {
		parentPkgs, err := e.TargetRepo.GetSourcePackages(ctx, e.Config.TargetSuite.BaseSuiteName, component)
		if err != nil {
			return nil, err
		}
		for _, p := range parentPkgs {
			if p.Name == name {
				versions = append(versions, p.Version)
			}
		}
	}
	return versions, nil
}

// SyncPackages imports a named subset of packages from the configured
// source into component, subject to blacklist and version-gating policy.
// Returns false only on an unrecoverable import failure.
func (e *Engine) SyncPackages(ctx context.Context, component string, names []string, force bool) (bool, error) {
	sourcePkgs, err := e.SourceRepo.GetSourcePackages(ctx, e.Config.SourceSuite, component)
	if err != nil {
		return false, err
	}
	sourceByName := repository.GetNewestSourcePackagesMap(sourcePkgs)
	synced := make(map[string]*archive.SourcePackage)

	for _, name := range names {
		src, ok := sourceByName[name]
		if !ok {
			continue // not in source: reject silently
		}
		if bl, err := e.Store.IsBlacklisted(ctx, name); err != nil {
			return false, err
		} else if bl != nil {
			e.Events.Info(ctx, "Can not sync "+name, "Can not sync "+name+": blacklisted")
			continue
		}

		targetVersion, err := e.newestTargetVersion(ctx, component, name)
		if err != nil {
			return false, err
		}
		if targetVersion != "" && archive.VersionCompare(targetVersion, src.Version) >= 0 {
			if force {
				e.Events.Warning(ctx, "Forcing sync of "+name, "target version "+targetVersion+" >= source version "+src.Version)
			} else {
				continue
			}
		}
		if !force && e.isLocallyModified(targetVersion) {
			e.Events.Warning(ctx, "Can not sync "+name, name+" has modifications")
			continue
		}

		if ok, err := e.importSource(ctx, component, src); err != nil || !ok {
			return false, err
		}
		synced[name] = src
	}

	active, err := e.activeSourceSet(ctx, component, synced)
	if err != nil {
		return false, err
	}
	if err := e.ImportBinariesForSources(ctx, active, component, force); err != nil {
		return false, err
	}
	return true, nil
}

// importSource fetches a source package's files from the source repo and
// hands them to dak import.
func (e *Engine) importSource(ctx context.Context, component string, src *archive.SourcePackage) (bool, error) {
	var files []string
	for _, f := range src.Files {
		local, err := e.SourceRepo.GetFile(ctx, f, true)
		if err != nil {
			return false, err
		}
		files = append(files, local)
	}
	ok, err := e.Dak.ImportPackageFiles(ctx, e.Config.TargetSuite.Name, component, files, true, false)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// activeSourceSet is (just-imported source packages) ∪ (target packages
// whose revision does not carry the distro tag).
func (e *Engine) activeSourceSet(ctx context.Context, component string, imported map[string]*archive.SourcePackage) (map[string]*archive.SourcePackage, error) {
	active := make(map[string]*archive.SourcePackage, len(imported))
	for name, p := range imported {
		active[name] = p
	}
	targetPkgs, err := e.TargetRepo.GetSourcePackages(ctx, e.Config.TargetSuite.Name, component)
	if err != nil {
		return nil, err
	}
	for _, p := range repository.GetNewestSourcePackagesMap(targetPkgs) {
		if !e.isLocallyModified(p.Version) {
			if _, already := active[p.Name]; !already {
				active[p.Name] = p
			}
		}
	}
	return active, nil
}

// AutoSync reconciles every component of the target suite against the
// source, optionally removing cruft.
func (e *Engine) AutoSync(ctx context.Context, removeCruft bool) (bool, []*Issue, error) {
	if err := e.Store.DeleteIssuesForSuitePair(ctx, e.Config.SourceSuite, e.Config.TargetSuite.Name); err != nil {
		return false, nil, err
	}
	var allIssues []*Issue
	ok := true

	for _, component := range e.Config.TargetSuite.Components {
		imported, issues, componentOK, err := e.autoSyncComponent(ctx, component)
		if err != nil {
			return false, allIssues, err
		}
		allIssues = append(allIssues, issues...)
		if !componentOK {
			ok = false
		}

		active, err := e.activeSourceSet(ctx, component, imported)
		if err != nil {
			return false, allIssues, err
		}
		if err := e.ImportBinariesForSources(ctx, active, component, false); err != nil {
			return false, allIssues, err
		}

		if removeCruft {
			cruftIssues, err := e.removeCruft(ctx, component)
			if err != nil {
				return false, allIssues, err
			}
			allIssues = append(allIssues, cruftIssues...)
		}
	}
	return ok, allIssues, nil
}

func (e *Engine) autoSyncComponent(ctx context.Context, component string) (map[string]*archive.SourcePackage, []*Issue, bool, error) {
	var sourcePkgs []*archive.SourcePackage
	var err error
	if e.Config.SyncBinaries {
		sourcePkgs, err = e.SourceRepo.GetSourcePackages(ctx, e.Config.SourceSuite, component)
	} else {
		all, gerr := e.SourceRepo.GetSourcePackages(ctx, e.Config.SourceSuite, component)
		err = gerr
		if gerr == nil {
			newest := repository.GetNewestSourcePackagesMap(all)
			for _, p := range newest {
				sourcePkgs = append(sourcePkgs, p)
			}
		}
	}
	if err != nil {
		return nil, nil, false, err
	}

	imported := make(map[string]*archive.SourcePackage)
	var issues []*Issue
	ok := true

	for _, src := range sourcePkgs {
		if bl, err := e.Store.IsBlacklisted(ctx, src.Name); err != nil {
			return nil, nil, false, err
		} else if bl != nil {
			continue
		}

		targetVersion, err := e.newestTargetVersion(ctx, component, src.Name)
		if err != nil {
			return nil, nil, false, err
		}
		if targetVersion != "" && archive.VersionCompare(targetVersion, src.Version) >= 0 {
			continue
		}
		if e.isLocallyModified(targetVersion) {
			issue, err := e.issue(ctx, IssueMergeRequired, src.Name, src.Version, targetVersion, "merge required")
			if err != nil {
				return nil, nil, false, err
			}
			issues = append(issues, issue)
			continue
		}

		imported[src.Name] = src
		if success, err := e.importSource(ctx, component, src); err != nil {
			return nil, nil, false, err
		} else if !success {
			ok = false
			if _, err := e.issue(ctx, IssueSyncFailed, src.Name, src.Version, targetVersion, "dak import failed"); err != nil {
				return nil, nil, false, err
			}
		}
	}
	return imported, issues, ok, nil
}

// ImportBinariesForSources performs the binary-binding pass for every
// architecture of the target suite.
func (e *Engine) ImportBinariesForSources(ctx context.Context, sources map[string]*archive.SourcePackage, component string, ignoreTargetChanges bool) error {
	for _, arch := range e.Config.TargetSuite.Architectures {
		if arch == "all" {
			continue
		}
		if err := e.importBinariesForArch(ctx, sources, component, arch, ignoreTargetChanges); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) mergedBinaryMap(ctx context.Context, repo Source, suite, component, arch string) (map[string]*archive.BinaryPackage, error) {
	specific, err := repo.GetBinaryPackages(ctx, suite, component, arch)
	if err != nil {
		return nil, err
	}
	all, err := repo.GetBinaryPackages(ctx, suite, component, "all")
	if err != nil {
		return nil, err
	}
	merged := make([]*archive.BinaryPackage, 0, len(specific)+len(all))
	merged = append(merged, specific...)
	merged = append(merged, all...)
	return repository.GetNewestPackagesMap(merged), nil
}

func (e *Engine) importBinariesForArch(ctx context.Context, sources map[string]*archive.SourcePackage, component, arch string, ignoreTargetChanges bool) error {
	sourceMap, err := e.mergedBinaryMap(ctx, e.SourceRepo, e.Config.SourceSuite, component, arch)
	if err != nil {
		return err
	}
	targetMap, err := e.mergedBinaryMap(ctx, e.TargetRepo, e.Config.TargetSuite.Name, component, arch)
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		batch []string
		wg   sync.WaitGroup
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, src := range sources {
		for _, info := range src.Binaries {
			wg.Add(1)
			go func(src *archive.SourcePackage, info archive.PackageInfo) {
				defer wg.Done()

				srcBin, ok := sourceMap[info.Name]
				if !ok {
					_, inTarget := targetMap[info.Name]
					if !inTarget {
						e.Events.Warning(ctx, "No packages synced", "binary "+info.Name+" not found in source or target")
					}
					return
				}
				if srcBin.SourceName != src.Name || srcBin.SourceVersion != info.Version {
					return
				}

				if targetBin, ok := targetMap[info.Name]; ok {
					if archive.VersionCompare(targetBin.Version, srcBin.Version) >= 0 {
						return // existing, up to date
					}
					if archive.VersionCompare(srcBin.Version, targetBin.Version) <= 0 &&
						archive.IsBinNMU(archive.DebianRevision(targetBin.Version, true)) {
						return // rebuild upload found
					}
					if !ignoreTargetChanges && e.isLocallyModified(targetBin.Version) {
						return
					}
				}

				local, err := e.SourceRepo.GetFile(ctx, srcBin.File, true)
				if err != nil {
					setErr(err)
					return
				}
				mu.Lock()
				batch = append(batch, local)
				mu.Unlock()
			}(src, info)
		}
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	if len(batch) == 0 {
		return nil
	}

	ok, err := e.Dak.ImportPackageFiles(ctx, e.Config.TargetSuite.Name, component, batch, true, false)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("synchrotron: dak binary import failed for " + arch)
	}
	return nil
}

// removeCruft deletes target source packages absent from the source,
// honoring the native/new-in-distro/distro-tag exceptions.
func (e *Engine) removeCruft(ctx context.Context, component string) ([]*Issue, error) {
	sourcePkgs, err := e.SourceRepo.GetSourcePackages(ctx, e.Config.SourceSuite, component)
	if err != nil {
		return nil, err
	}
	sourceNames := repository.GetNewestSourcePackagesMap(sourcePkgs)

	targetPkgs, err := e.TargetRepo.GetSourcePackages(ctx, e.Config.TargetSuite.Name, component)
	if err != nil {
		return nil, err
	}

	var issues []*Issue
	for _, p := range repository.GetNewestSourcePackagesMap(targetPkgs) {
		if _, inSource := sourceNames[p.Name]; inSource {
			continue
		}
		if archive.IsNative(p.Version) {
			continue
		}
		if e.isNewInDistro(p.Version) {
			continue
		}
		if e.isLocallyModified(p.Version) {
			issue, err := e.issue(ctx, IssueMaybeCruft, p.Name, "", p.Version, "locally modified, kept")
			if err != nil {
				return nil, err
			}
			issues = append(issues, issue)
			continue
		}

		removable, err := e.Dak.PackageIsRemovable(ctx, p.Name, e.Config.TargetSuite.Name)
		if err != nil {
			return nil, err
		}
		if !removable {
			issue, err := e.issue(ctx, IssueRemovalFailed, p.Name, "", p.Version, "can not be removed without breaking other packages")
			if err != nil {
				return nil, err
			}
			issues = append(issues, issue)
			continue
		}
		if err := e.Dak.RemovePackage(ctx, p.Name, e.Config.TargetSuite.Name); err != nil {
			issue, ierr := e.issue(ctx, IssueRemovalFailed, p.Name, "", p.Version, err.Error())
			if ierr != nil {
				return nil, ierr
			}
			issues = append(issues, issue)
		}
	}
	return issues, nil
}
