package spears

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"pault.ag/go/topsort"
)

// OrderSourcesForBuild topologically sorts sourceNames by their declared
// build-dependencies (deps[name] lists the other source package names that
// name depends on), so that a dependency is always returned before its
// dependents.
func OrderSourcesForBuild(sourceNames []string, deps map[string][]string) ([]string, error) {
	net := topsort.NewNetwork()
	for _, name := range sourceNames {
		net.AddNode(name)
	}
	for name, wants := range deps {
		for _, dep := range wants {
			if _, ok := deps[dep]; !ok && !contains(sourceNames, dep) {
				continue // dependency outside this build set, nothing to order against
			}
			if err := net.AddEdge(dep, name); err != nil {
				return nil, errors.Wrapf(err, "spears: add build-order edge %s -> %s", dep, name)
			}
		}
	}
	ordered, err := net.Sort()
	if err != nil {
		return nil, errors.Wrap(err, "spears: sort build order")
	}
	return ordered, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// buildDependencyNames extracts the first alternative's bare package name
// from each comma-separated Build-Depends relation, discarding version
// constraints, architecture qualifiers and build-profile annotations. It is
// a scheduling hint, not a dependency resolver: alternatives/profiles don't
// change which package migrates, only which one the ordering treats as the
// build requirement.
func buildDependencyNames(buildDepends string) []string {
	var names []string
	for _, field := range strings.Split(buildDepends, ",") {
		alt := strings.SplitN(field, "|", 2)[0]
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		name := strings.Fields(alt)[0]
		name = strings.SplitN(name, ":", 2)[0]
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// OrderMissingBuilds returns the excuses with an outstanding build on any
// architecture, ordered via OrderSourcesForBuild so a package never
// precedes one of its own build-dependencies. Excuses with no missing
// build are left out entirely; callers use the returned order to assign
// build-scheduling priority (e.g. PACKAGE_BUILD job priority) rather than
// enqueueing migration candidates in arbitrary order.
func (e *Engine) OrderMissingBuilds(ctx context.Context, entry ConfigEntry, excuses []*Excuse) ([]*Excuse, error) {
	byName := make(map[string]*Excuse)
	names := make([]string, 0)
	for _, ex := range excuses {
		if len(ex.MissingBuilds.PrimaryArchs) == 0 && len(ex.MissingBuilds.SecondaryArchs) == 0 {
			continue
		}
		if _, dup := byName[ex.SourcePackage]; dup {
			continue
		}
		byName[ex.SourcePackage] = ex
		names = append(names, ex.SourcePackage)
	}
	if len(names) == 0 {
		return nil, nil
	}

	target, err := e.Suites.SuiteByName(ctx, e.RepoName, entry.TargetSuite)
	if err != nil {
		return nil, errors.Wrapf(err, "spears: resolve target suite %s", entry.TargetSuite)
	}

	deps := make(map[string][]string, len(names))
	for _, suite := range entry.SourceSuites {
		for _, component := range target.Components {
			pkgs, err := e.Repo.GetSourcePackages(ctx, suite, component)
			if err != nil {
				continue
			}
			for _, p := range pkgs {
				if _, ok := byName[p.Name]; !ok {
					continue
				}
				if _, already := deps[p.Name]; already {
					continue
				}
				deps[p.Name] = buildDependencyNames(p.BuildDepends)
			}
		}
	}

	ordered, err := OrderSourcesForBuild(names, deps)
	if err != nil {
		return nil, err
	}
	result := make([]*Excuse, 0, len(ordered))
	for _, name := range ordered {
		if ex, ok := byName[name]; ok {
			result = append(result, ex)
		}
	}
	return result, nil
}
