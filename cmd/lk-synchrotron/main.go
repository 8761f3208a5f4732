// Binary lk-synchrotron runs the source-to-target package synchronization
// engine as a one-shot CLI, driven by cron or an operator.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lkhq/laniakea/internal/bootstrap"
	"github.com/lkhq/laniakea/internal/config"
	"github.com/lkhq/laniakea/internal/events"
	"github.com/lkhq/laniakea/internal/logging"
	"github.com/lkhq/laniakea/internal/repository"
	"github.com/lkhq/laniakea/internal/store"
	"github.com/lkhq/laniakea/internal/synchrotron"
	"github.com/lkhq/laniakea/internal/toolexec"
)

var (
	configPath   string
	sourceName   string
	sourceSuite  string
	targetSuite  string
	distroTag    string
	syncBinaries bool
	removeCruft  bool
	logLevel     string
)

func main() {
	root := &cobra.Command{
		Use:   "lk-synchrotron",
		Short: "synchronize a target suite from an upstream source suite",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to base-config.json (defaults to /etc/laniakea/base-config.json)")
	root.Flags().StringVar(&sourceName, "source-name", "debian", "upstream archive name")
	root.Flags().StringVar(&sourceSuite, "source-suite", "unstable", "upstream suite to sync from")
	root.Flags().StringVar(&targetSuite, "target-suite", "", "local suite to sync into (required)")
	root.Flags().StringVar(&distroTag, "distro-tag", "", "substring marking a downstream-modified version")
	root.Flags().BoolVar(&syncBinaries, "sync-binaries", true, "also import binary packages for synced sources")
	root.Flags().BoolVar(&removeCruft, "remove-cruft", false, "remove target packages no longer present upstream")
	root.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")
	_ = root.MarkFlagRequired("target-suite")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log := logging.Setup("synchrotron", logging.Options{Level: logLevel})
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

	target, err := st.SuiteByName(ctx, cfg.RepoName, targetSuite)
	if err != nil {
		return fmt.Errorf("resolve target suite %s: %w", targetSuite, err)
	}

	keyrings := bootstrap.KeyringsFromDir(cfg.TrustedGpgKeyringDir)
	sourceRepo := repository.NewRepository(sourceName, cfg.Archive.URL, cfg.CacheLocation, keyrings)
	targetRepo := bootstrap.NewLocalRepository(cfg.RepoName, cfg.Archive.Path, cfg.CacheLocation, cfg.TrustedGpgKeyringDir)
	dak := &toolexec.Dak{Runner: &toolexec.Runner{}}
	emitter := events.NewEmitter(st, "synchrotron")

	engine := &synchrotron.Engine{
		Store:      st,
		SourceRepo: sourceRepo,
		TargetRepo: targetRepo,
		Dak:        dak,
		Events:     emitter,
		Config: synchrotron.Config{
			SourceName:   sourceName,
			SourceSuite:  sourceSuite,
			TargetSuite:  *target,
			SyncBinaries: syncBinaries,
			DistroTag:    distroTag,
		},
	}

	ok, issues, err := engine.AutoSync(ctx, removeCruft)
	if err != nil {
		return err
	}
	log.WithField("ok", ok).WithField("issues", len(issues)).Info("sync complete")
	for _, iss := range issues {
		log.WithField("package", iss.PackageName).WithField("kind", iss.Kind).Warn(iss.Details)
	}
	if !ok {
		os.Exit(1)
	}
	return nil
}
