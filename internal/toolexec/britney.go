package toolexec

import "context"

// Britney wraps the britney migration tool. This package only knows its
// filesystem contract (config path, input dir layout, HeidiResult /
// excuses.yaml / output.txt outputs); the migration algorithm itself is
// out of scope and left entirely to the britney subprocess.
type Britney struct {
	Runner      *Runner
	BritneyDir  string // working tree britney runs from
	BritneyPath string // defaults to "britney.py" inside BritneyDir
}

func (b *Britney) path() string {
	if b.BritneyPath != "" {
		return b.BritneyPath
	}
	return "./britney.py"
}

// UpdateDist refreshes britney's working tree from git via its own
// update-dist helper.
func (b *Britney) UpdateDist(ctx context.Context) error {
	_, err := b.Runner.Run(ctx, b.BritneyDir, "./update_dists.sh")
	return err
}

// Run performs one migration pass with the given config file. A non-zero
// exit fails.
func (b *Britney) Run(ctx context.Context, configFile string) error {
	_, err := b.Runner.Run(ctx, b.BritneyDir, b.path(), "-c", configFile)
	return err
}
