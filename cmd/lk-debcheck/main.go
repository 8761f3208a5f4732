// Binary lk-debcheck runs dose-builddebcheck/dose-debcheck over one suite
// and persists the resulting installability issues.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lkhq/laniakea/internal/bootstrap"
	"github.com/lkhq/laniakea/internal/config"
	"github.com/lkhq/laniakea/internal/debcheck"
	"github.com/lkhq/laniakea/internal/logging"
	"github.com/lkhq/laniakea/internal/store"
	"github.com/lkhq/laniakea/internal/toolexec"
)

var (
	configPath string
	logLevel   string
	suiteName  string
	buildCheck bool
	binCheck   bool
)

func main() {
	root := &cobra.Command{
		Use:   "lk-debcheck",
		Short: "check a suite's build-dependency and installability satisfiability",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to base-config.json")
	root.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")
	root.Flags().StringVar(&suiteName, "suite", "", "suite to check (required)")
	root.Flags().BoolVar(&buildCheck, "build-dep-check", true, "run dose-builddebcheck")
	root.Flags().BoolVar(&binCheck, "dep-check", true, "run dose-debcheck")
	_ = root.MarkFlagRequired("suite")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log := logging.Setup("debcheck", logging.Options{Level: logLevel})
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, store.Config{DSN: cfg.Database.DSN()}, log)
	if err != nil {
		return err
	}
	defer st.Close()

	repo := bootstrap.NewLocalRepository(cfg.RepoName, cfg.Archive.Path, cfg.CacheLocation, cfg.TrustedGpgKeyringDir)
	engine := &debcheck.Engine{
		Repo:     repo,
		Suites:   st,
		Dose:     &toolexec.Dose{Runner: &toolexec.Runner{}},
		Store:    st,
		RepoName: cfg.RepoName,
	}

	var total int
	if buildCheck {
		issues, err := engine.GetBuildDepCheckIssues(ctx, suiteName)
		if err != nil {
			return err
		}
		total += len(issues)
		log.WithField("issues", len(issues)).Info("build-dep check complete")
	}
	if binCheck {
		issues, err := engine.GetDepCheckIssues(ctx, suiteName)
		if err != nil {
			return err
		}
		total += len(issues)
		log.WithField("issues", len(issues)).Info("dep check complete")
	}
	fmt.Printf("%d issue(s) recorded for %s\n", total, suiteName)
	return nil
}
