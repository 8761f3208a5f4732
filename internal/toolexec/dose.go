package toolexec

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnexpectedOutput is returned when dose's stdout does not begin with
// "output-version".
var ErrUnexpectedOutput = errors.New("toolexec: dose produced unexpected output")

// Dose wraps dose-builddebcheck (source/build-dependency analysis) and
// dose-debcheck (binary installability).
type Dose struct {
	Runner               *Runner
	BuildDebcheckPath     string // defaults to "dose-builddebcheck"
	DebcheckPath          string // defaults to "dose-debcheck"
}

func (d *Dose) buildDebcheckPath() string {
	if d.BuildDebcheckPath != "" {
		return d.BuildDebcheckPath
	}
	return "dose-builddebcheck"
}

func (d *Dose) debcheckPath() string {
	if d.DebcheckPath != "" {
		return d.DebcheckPath
	}
	return "dose-debcheck"
}

// RunBuildDebcheck runs `dose-builddebcheck --quiet --latest=1 -e -f
// --summary --deb-emulate-sbuild --deb-native-arch=<nativeArch> bg... fg...`
// and returns its stdout YAML report.
func (d *Dose) RunBuildDebcheck(ctx context.Context, nativeArch string, bg, fg []string) (string, error) {
	args := []string{"--quiet", "--latest=1", "-e", "-f", "--summary",
		"--deb-emulate-sbuild", "--deb-native-arch=" + nativeArch}
	args = append(args, bg...)
	args = append(args, fg...)
	res, err := d.Runner.Run(ctx, "", d.buildDebcheckPath(), args...)
	if err != nil {
		return "", err
	}
	return checkDoseOutput(res.Stdout)
}

// RunDebcheck runs `dose-debcheck --quiet --latest=1 -e -f --summary
// --deb-native-arch=<nativeArch> --bg=<file>... --fg=<file>...`.
func (d *Dose) RunDebcheck(ctx context.Context, nativeArch string, bg, fg []string) (string, error) {
	args := []string{"--quiet", "--latest=1", "-e", "-f", "--summary", "--deb-native-arch=" + nativeArch}
	for _, f := range bg {
		args = append(args, "--bg="+f)
	}
	for _, f := range fg {
		args = append(args, "--fg="+f)
	}
	res, err := d.Runner.Run(ctx, "", d.debcheckPath(), args...)
	if err != nil {
		return "", err
	}
	return checkDoseOutput(res.Stdout)
}

func checkDoseOutput(stdout string) (string, error) {
	if !strings.HasPrefix(strings.TrimSpace(stdout), "output-version") {
		return "", ErrUnexpectedOutput
	}
	return stdout, nil
}
