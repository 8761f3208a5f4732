// Binary lk-spears drives britney-based suite migrations: it
// refreshes a migration's britney.conf from the configured ConfigEntry
// list, and runs migrations on demand.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lkhq/laniakea/internal/bootstrap"
	"github.com/lkhq/laniakea/internal/config"
	"github.com/lkhq/laniakea/internal/events"
	"github.com/lkhq/laniakea/internal/logging"
	"github.com/lkhq/laniakea/internal/spears"
	"github.com/lkhq/laniakea/internal/store"
	"github.com/lkhq/laniakea/internal/toolexec"
)

var (
	configPath  string
	logLevel    string
	britneyDir  string
	britneyPath string
)

func main() {
	root := &cobra.Command{Use: "lk-spears", Short: "run britney-based suite migrations"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to base-config.json")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")
	root.PersistentFlags().StringVar(&britneyDir, "britney-dir", "/srv/britney", "britney working tree")
	root.PersistentFlags().StringVar(&britneyPath, "britney-path", "", "britney.py path inside britney-dir")

	root.AddCommand(updateConfigCmd(), runCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openEngine(ctx context.Context) (*spears.Engine, *store.Store, error) {
	log := logging.Setup("spears", logging.Options{Level: logLevel})

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, store.Config{DSN: cfg.Database.DSN()}, log)
	if err != nil {
		return nil, nil, err
	}

	var entries []spears.ConfigEntry
	if err := st.GetConfig(ctx, "spears", "migrations", &entries); err != nil && !errors.Is(err, store.ErrNotFound) {
		st.Close()
		return nil, nil, err
	}

	repo := bootstrap.NewLocalRepository(cfg.RepoName, cfg.Archive.Path, cfg.CacheLocation, cfg.TrustedGpgKeyringDir)
	runner := &toolexec.Runner{}

	engine := &spears.Engine{
		Store:     st,
		Repo:      repo,
		Suites:    st,
		Dak:       &toolexec.Dak{Runner: runner},
		Britney:   &toolexec.Britney{Runner: runner, BritneyDir: britneyDir, BritneyPath: britneyPath},
		Events:    events.NewEmitter(st, "spears"),
		Workspace: cfg.Workspace,
		XZ:        &toolexec.XZ{Runner: runner},
		Entries:   entries,
		RepoName:  cfg.RepoName,
	}
	return engine, st, nil
}

func updateConfigCmd() *cobra.Command {
	var sourceSuites []string
	var targetSuite string

	cmd := &cobra.Command{
		Use:   "update-config",
		Short: "write britney.conf for one migration from the configured entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			engine, st, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			entry := spears.ConfigEntry{SourceSuites: sourceSuites, TargetSuite: targetSuite}
			for _, e := range engine.Entries {
				if e.MigrationID() == spears.MigrationID(sourceSuites, targetSuite) {
					entry = e
					break
				}
			}
			return engine.UpdateConfig(ctx, entry)
		},
	}
	cmd.Flags().StringSliceVar(&sourceSuites, "source-suites", nil, "source suites, comma-separated (required)")
	cmd.Flags().StringVar(&targetSuite, "target-suite", "", "target suite (required)")
	_ = cmd.MarkFlagRequired("source-suites")
	_ = cmd.MarkFlagRequired("target-suite")
	return cmd
}

func runCmd() *cobra.Command {
	var sourceSuitesJoined string
	var targetSuite string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run one already-configured migration and report its excuses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			engine, st, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			ok, excuses, err := engine.RunMigration(ctx, sourceSuitesJoined, targetSuite)
			if err != nil {
				return err
			}
			fmt.Printf("migration ok=%v, %d excuses\n", ok, len(excuses))
			for _, ex := range excuses {
				fmt.Printf("  %s %s -> %s (candidate=%v)\n", ex.SourcePackage, ex.OldVersion, ex.NewVersion, ex.IsCandidate)
			}
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceSuitesJoined, "sources", "", "joined source suites, e.g. unstable or experimental+unstable (required)")
	cmd.Flags().StringVar(&targetSuite, "target-suite", "", "target suite (required)")
	_ = cmd.MarkFlagRequired("sources")
	_ = cmd.MarkFlagRequired("target-suite")
	return cmd
}
