package spears

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

// ErrMigrationFailed wraps a non-zero britney/dak step during a migration
// run.
var ErrMigrationFailed = errors.New("spears: migration run failed")

// RunMigrationInternal runs the full migration pipeline for the given
// entry and returns whether britney produced a result and the excuses
// harvested from it. A missing britney.conf (UpdateConfig was never called
// for this migration) is not an error: it is warned and reported as
// ok=false with no excuses.
func (e *Engine) RunMigrationInternal(ctx context.Context, entry ConfigEntry) (bool, []*Excuse, error) {
	migrationID := entry.MigrationID()

	if _, err := os.Stat(e.confPath(migrationID)); err != nil {
		if e.Events != nil {
			_ = e.Events.Warning(ctx, "spears: britney.conf missing",
				"migration "+migrationID+" was never configured via UpdateConfig")
		}
		return false, nil, nil
	}

	unlock, err := e.lockWorkspace(migrationID)
	if err != nil {
		return false, nil, err
	}
	defer unlock()

	if err := e.PrepareSourceData(ctx, migrationID, entry); err != nil {
		return false, nil, err
	}
	if err := e.CreateFauxPackages(ctx, migrationID, entry); err != nil {
		return false, nil, err
	}
	if err := e.CollectUrgencies(ctx, migrationID); err != nil {
		return false, nil, err
	}
	if err := e.SetupDates(migrationID); err != nil {
		return false, nil, err
	}
	if err := e.SetupVarious(migrationID, entry); err != nil {
		return false, nil, err
	}

	if err := e.Britney.Run(ctx, e.confPath(migrationID)); err != nil {
		return false, nil, errors.Wrap(ErrMigrationFailed, err.Error())
	}

	processedHeidi, _, err := e.postprocessHeidiResult(ctx, migrationID)
	if err != nil {
		return false, nil, err
	}

	ok, err := e.Dak.SetSuiteToBritneyResult(ctx, entry.TargetSuite, processedHeidi)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, errors.Wrapf(ErrMigrationFailed, "dak rejected heidi result for %s", entry.TargetSuite)
	}

	sourceSuitesJoined := fakeDistsName(entry.SourceSuites)
	excuses, err := e.loadExcuses(migrationID, sourceSuitesJoined, entry.TargetSuite)
	if err != nil {
		return false, nil, err
	}
	if len(entry.SourceSuites) > 1 {
		if err := e.attributeSourceSuites(ctx, entry, excuses); err != nil {
			return false, nil, err
		}
	}

	if ordered, err := e.OrderMissingBuilds(ctx, entry, excuses); err != nil {
		if e.Events != nil {
			_ = e.Events.Warning(ctx, "spears: build ordering failed",
				"migration "+migrationID+": "+err.Error())
		}
	} else {
		for i, ex := range ordered {
			ex.BuildOrder = i + 1
		}
	}

	if e.Store != nil {
		if err := e.Store.ReplaceExcuses(ctx, migrationID, excuses); err != nil {
			return false, nil, err
		}
	}
	return true, excuses, nil
}

// attributeSourceSuites resolves each excuse's originating source suite for
// multi-source migrations, via a name/version lookup built from the source
// suites' own source-package indices.
func (e *Engine) attributeSourceSuites(ctx context.Context, entry ConfigEntry, excuses []*Excuse) error {
	target, err := e.Suites.SuiteByName(ctx, e.RepoName, entry.TargetSuite)
	if err != nil {
		return errors.Wrapf(err, "spears: resolve target suite %s", entry.TargetSuite)
	}

	pkgSourceSuiteMap := make(map[string]string)
	for _, suite := range entry.SourceSuites {
		for _, component := range target.Components {
			pkgs, err := e.Repo.GetSourcePackages(ctx, suite, component)
			if err != nil {
				continue
			}
			for _, p := range pkgs {
				pkgSourceSuiteMap[p.Name+"/"+p.Version] = suite
			}
		}
	}
	for _, ex := range excuses {
		if suite, ok := pkgSourceSuiteMap[ex.SourcePackage+"/"+ex.NewVersion]; ok {
			ex.SourceSuite = suite
		}
	}
	return nil
}

// RunMigration looks up the ConfigEntry whose joined source suites and
// target suite match, and runs it.
func (e *Engine) RunMigration(ctx context.Context, sourceSuitesJoined, targetSuiteName string) (bool, []*Excuse, error) {
	entry := e.entryFor(sourceSuitesJoined, targetSuiteName)
	if entry == nil {
		return false, nil, &ErrNoSuchMigration{SourceSuitesJoined: sourceSuitesJoined, TargetSuite: targetSuiteName}
	}
	return e.RunMigrationInternal(ctx, *entry)
}
