package toolexec

import "context"

// Git wraps the git(1) subprocess for cloning/pulling britney's (and other
// tools') working trees.
type Git struct {
	Runner  *Runner
	GitPath string // defaults to "git"
}

func (g *Git) path() string {
	if g.GitPath != "" {
		return g.GitPath
	}
	return "git"
}

// Clone clones url into dir.
func (g *Git) Clone(ctx context.Context, url, dir string) error {
	_, err := g.Runner.Run(ctx, "", g.path(), "clone", url, dir)
	return err
}

// Pull runs `git pull [origin branch]` in dir.
func (g *Git) Pull(ctx context.Context, dir, origin, branch string) error {
	args := []string{"pull"}
	if origin != "" {
		args = append(args, origin)
		if branch != "" {
			args = append(args, branch)
		}
	}
	_, err := g.Runner.Run(ctx, dir, g.path(), args...)
	return err
}
