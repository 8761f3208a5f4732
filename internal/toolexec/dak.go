package toolexec

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrRemoval is returned by Dak.RemovePackage on failure.
var ErrRemoval = errors.New("toolexec: dak removal failed")

// Dak wraps the upstream dak CLI (import, rm, control-suite), invoked as a
// subprocess.
type Dak struct {
	Runner  *Runner
	DakPath string // defaults to "dak"
}

func (d *Dak) path() string {
	if d.DakPath != "" {
		return d.DakPath
	}
	return "dak"
}

// ImportPackageFiles imports files (a .dsc plus its referenced tarballs, or
// a set of .debs) into suite/component via `dak import`.
func (d *Dak) ImportPackageFiles(ctx context.Context, suite, component string, files []string, trusted, allowExisting bool) (bool, error) {
	args := []string{"import", suite, component}
	if trusted {
		args = append(args, "--trusted")
	}
	if allowExisting {
		args = append(args, "--allow-existing")
	}
	args = append(args, files...)
	res, err := d.Runner.Run(ctx, "", d.path(), args...)
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// PackageIsRemovable asks dak whether name in suite can be removed without
// breaking other packages.
func (d *Dak) PackageIsRemovable(ctx context.Context, name, suite string) (bool, error) {
	res, err := d.Runner.Run(ctx, "", d.path(), "rm", "-n", "-s", suite, name)
	if err != nil {
		return false, nil // non-zero exit: dak says not removable.
	}
	return res.Success, nil
}

// RemovePackage removes name from suite. Fails with ErrRemoval on error.
func (d *Dak) RemovePackage(ctx context.Context, name, suite string) error {
	res, err := d.Runner.Run(ctx, "", d.path(), "rm", "-s", suite, name)
	if err != nil || !res.Success {
		msg := ""
		if res != nil {
			msg = res.Combined
		}
		return errors.Wrapf(ErrRemoval, "%s/%s: %s", suite, name, strings.TrimSpace(msg))
	}
	return nil
}

// SetSuiteToBritneyResult applies a post-processed HeidiResult file to
// suite via `dak control-suite`.
func (d *Dak) SetSuiteToBritneyResult(ctx context.Context, suite, heidiFile string) (bool, error) {
	res, err := d.Runner.Run(ctx, "", d.path(), "control-suite", "--set", "--suite="+suite, heidiFile)
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// UrgencyExportDir returns dak's urgency log export directory.
func (d *Dak) UrgencyExportDir(ctx context.Context) (string, error) {
	res, err := d.Runner.Run(ctx, "", d.path(), "config", "--get", "Dir::UrgencyLog")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
