package spears

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lkhq/laniakea/internal/tagfile"
)

// ErrNoIndexFound is returned when a given (component, arch) tuple has no
// Packages.xz/Sources.xz across any configured source suite.
var ErrNoIndexFound = errors.New("spears: no index file found across source suites")

// PrepareSourceData fuses the per-source Packages.xz/Sources.xz index files
// of a multi-source migration into a single synthesized archive under the
// workspace's input directory. A no-op for single-source migrations, which
// read the real suite directly.
func (e *Engine) PrepareSourceData(ctx context.Context, migrationID string, entry ConfigEntry) error {
	if len(entry.SourceSuites) <= 1 {
		return nil
	}
	target, err := e.Suites.SuiteByName(ctx, e.RepoName, entry.TargetSuite)
	if err != nil {
		return errors.Wrapf(err, "spears: resolve target suite %s", entry.TargetSuite)
	}
	fakeRoot := filepath.Join(e.inputDir(migrationID), "dists", fakeDistsName(entry.SourceSuites))
	arches := nonAllArchitectures(target.Architectures)

	g, gCtx := errgroup.WithContext(ctx)
	for _, component := range target.Components {
		component := component
		g.Go(func() error {
			rel := path.Join(component, "source", "Sources.xz")
			return e.fuseIndex(gCtx, fakeRoot, entry.SourceSuites, rel)
		})
		for _, arch := range arches {
			component, arch := component, arch
			g.Go(func() error {
				rel := path.Join(component, "binary-"+arch, "Packages.xz")
				return e.fuseIndex(gCtx, fakeRoot, entry.SourceSuites, rel)
			})
			g.Go(func() error {
				rel := path.Join(component, "debian-installer", "binary-"+arch, "Packages.xz")
				return e.fuseIndexOptional(gCtx, fakeRoot, entry.SourceSuites, rel)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return e.copyReleaseFile(ctx, fakeRoot, entry.SourceSuites[0])
}

// fuseIndex gathers rel from every source suite that has it, decompresses
// and concatenates the byte streams, xz-recompresses, and writes the result
// under fakeRoot at the same relative path. Fails if no suite has rel.
func (e *Engine) fuseIndex(ctx context.Context, fakeRoot string, sourceSuites []string, rel string) error {
	var fused bytes.Buffer
	found := false
	for _, suite := range sourceSuites {
		local, err := e.Repo.GetIndexFile(ctx, suite, rel)
		if err != nil {
			continue // absent in this source suite
		}
		if err := decompressInto(&fused, local); err != nil {
			return errors.Wrapf(err, "spears: decompress %s from %s", rel, suite)
		}
		found = true
	}
	if !found {
		return errors.Wrapf(ErrNoIndexFound, "%s", rel)
	}
	return e.writeFusedIndex(ctx, fakeRoot, rel, fused.Bytes())
}

// fuseIndexOptional is fuseIndex for the debian-installer variant, which
// legitimately does not exist for every (component, arch) and is skipped
// silently rather than failing the migration when absent everywhere.
func (e *Engine) fuseIndexOptional(ctx context.Context, fakeRoot string, sourceSuites []string, rel string) error {
	err := e.fuseIndex(ctx, fakeRoot, sourceSuites, rel)
	if errors.Cause(err) == ErrNoIndexFound {
		return nil
	}
	return err
}

func decompressInto(dst io.Writer, local string) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()
	dr, err := tagfile.Decompress(local, f)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, dr)
	return err
}

func (e *Engine) writeFusedIndex(ctx context.Context, fakeRoot, rel string, decompressed []byte) error {
	compressed, err := e.XZ.Compress(ctx, decompressed)
	if err != nil {
		return errors.Wrapf(err, "spears: xz-compress %s", rel)
	}
	dest := filepath.Join(fakeRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, compressed, 0644)
}

// copyReleaseFile copies one source suite's Release verbatim into the fake
// dists directory; britney only reads component/architecture metadata from
// it, so synthesis is deliberately minimal.
func (e *Engine) copyReleaseFile(ctx context.Context, fakeRoot, anySourceSuite string) error {
	local, err := e.Repo.GetIndexFile(ctx, anySourceSuite, "Release")
	if err != nil {
		return errors.Wrap(err, "spears: fetch Release for fusion")
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(fakeRoot, "Release"), data, 0644)
}
