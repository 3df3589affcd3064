package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/fleet"
	"github.com/cameronsjo/stevedore/internal/gitsync"
	"github.com/cameronsjo/stevedore/internal/hydrate"
	"github.com/cameronsjo/stevedore/internal/kustomize"
	"github.com/cameronsjo/stevedore/internal/lock"
	"github.com/cameronsjo/stevedore/internal/notify"
	"github.com/cameronsjo/stevedore/internal/secrets"
	"github.com/cameronsjo/stevedore/internal/snapshot"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var (
	hydrateCluster  string
	hydrateTags     []string
	hydrateGroup    string
	hydrateBase     string
	hydrateOverlays string
	hydrateOutput   string
	hydrateWorkdir  string
	hydrateLayout   string
	hydrateSecrets  []string
	hydrateRepo     string
	hydrateBranch   string
	hydrateVerify   bool
	hydrateSnapshot bool
	hydrateDryRun   bool
	hydrateTimeout  int
)

// hydrateCmd represents the hydrate command.
var hydrateCmd = &cobra.Command{
	Use:   "hydrate [fleet-file] [-- build-cmd...]",
	Short: "Hydrate per-cluster manifests from the fleet inventory",
	Long: `Hydrate manifests for every selected cluster.

For each cluster the base library and its group's overlay are merged
into a fresh workspace, templates (*.tmpl) are rendered with the
cluster's attributes, and the build tool produces one manifest per
cluster under the output directory.

Clusters with recoverable problems (missing overlay, template errors,
build tool failures) are skipped and the batch continues; anything else
stops the batch.

Everything after -- replaces the build command verbatim:

  stevedore hydrate -- kustomize build --enable-helm .
  stevedore hydrate fleet.csv -g prod
  stevedore hydrate -c web-01 --dry-run`,
	Args: cobra.ArbitraryArgs,
	RunE: runHydrate,
}

func runHydrate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Everything after -- is the build command override.
	fleetArg := ""
	buildCmd := cfg.Build.Command
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		if at > 1 {
			return fmt.Errorf("at most one fleet file argument, got %d", at)
		}
		if at == 1 {
			fleetArg = args[0]
		}
		if len(args) > at {
			buildCmd = args[at:]
		}
	} else {
		if len(args) > 1 {
			return fmt.Errorf("at most one fleet file argument, got %d", len(args))
		}
		if len(args) == 1 {
			fleetArg = args[0]
		}
	}

	if err := syncRepoIfConfigured(cmd.Context(), cfg, logger); err != nil {
		return err
	}

	baseDir := cfg.BaseDir()
	overlaysDir := cfg.OverlaysDir()
	outputDir := cfg.OutputDir()
	workdir := cfg.WorkDir()
	if cmd.Flags().Changed("base") {
		baseDir = hydrateBase
	}
	if cmd.Flags().Changed("overlays") {
		overlaysDir = hydrateOverlays
	}
	if cmd.Flags().Changed("output") {
		outputDir = hydrateOutput
	}
	if cmd.Flags().Changed("workdir") {
		workdir = hydrateWorkdir
	}

	layoutName := cfg.Output.Layout
	if cmd.Flags().Changed("layout") {
		layoutName = hydrateLayout
	}
	layout, err := hydrate.ParseLayout(layoutName)
	if err != nil {
		return err
	}

	verify := cfg.Build.Verify || hydrateVerify
	timeout := time.Duration(cfg.Build.TimeoutSeconds) * time.Second
	if cmd.Flags().Changed("timeout") {
		timeout = time.Duration(hydrateTimeout) * time.Second
	}

	return lock.WithLock(cfg.LocksDir(), "hydrate", func() error {
		store, err := loadFleet(cfg, fleetArg, logger)
		if err != nil {
			return err
		}

		selector := fleet.Selector{Name: hydrateCluster, Tags: hydrateTags, Group: hydrateGroup}
		records, err := selector.Select(store, logger)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			ui.Warning("No clusters matched the selection.")
			return nil
		}

		if err := applySecrets(cfg, records, logger); err != nil {
			return err
		}

		if (hydrateSnapshot || cfg.Snapshot.Enabled) && !hydrateDryRun {
			mgr := snapshot.NewManager(outputDir, cfg.SnapshotsDir(), cfg.Snapshot.Keep, logger)
			name, err := mgr.Create()
			if err != nil {
				return fmt.Errorf("snapshot output: %w", err)
			}
			if name != "" {
				ui.Snapshot("Snapshot %s", name)
			}
		}

		workspaces, err := hydrate.NewWorkspaceFactory(workdir, logger)
		if err != nil {
			return err
		}

		builder := kustomize.NewRunner(buildCmd, timeout, logger)
		processor := hydrate.NewProcessor(baseDir, overlaysDir, outputDir, layout, builder, logger)
		processor.DryRun = hydrateDryRun
		processor.Verify = verify

		runner := hydrate.NewRunner(processor, workspaces, logger)
		summary, runErr := runner.Run(cmd.Context(), records)

		reportSummary(summary, runErr != nil)
		notifyBatch(cmd.Context(), cfg, summary, runErr != nil, logger)

		return runErr
	})
}

// syncRepoIfConfigured fast-forwards the manifest repository when a URL
// is given, either by flag or in the project file.
func syncRepoIfConfigured(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	url := cfg.Repo.URL
	if hydrateRepo != "" {
		url = hydrateRepo
	}
	if url == "" {
		return nil
	}

	branch := cfg.Repo.Branch
	if hydrateBranch != "" {
		branch = hydrateBranch
	}

	changed, _, after, err := gitsync.New(url, branch, cfg.RepoDir(), logger).Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync manifest repo: %w", err)
	}
	if changed {
		ui.Anchor("Manifest repo at %s", shortHash(after))
	}
	return nil
}

// applySecrets decrypts the configured secret files and lays their
// attributes over every record.
func applySecrets(cfg *config.Config, records []*fleet.Record, logger *slog.Logger) error {
	files := cfg.SecretsFiles()
	files = append(files, hydrateSecrets...)
	if len(files) == 0 {
		return nil
	}

	loaded, err := secrets.NewLoader(logger).Load(files)
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}
	for _, rec := range records {
		rec.Attrs = secrets.Merge(rec.Attrs, loaded)
	}
	return nil
}

// reportSummary prints per-cluster results and the batch totals.
func reportSummary(summary *hydrate.Summary, aborted bool) {
	for _, res := range summary.Results {
		switch res.Status {
		case hydrate.StatusHydrated:
			ui.Success("%s → %s", res.Cluster, res.Output)
		case hydrate.StatusSkipped:
			ui.Warning("%s skipped: %v", res.Cluster, res.Err)
		case hydrate.StatusAborted:
			ui.Error("%s failed: %v", res.Cluster, res.Err)
		}
	}

	if aborted {
		ui.Mayday("Batch aborted: %d hydrated, %d skipped", summary.Hydrated(), summary.Skipped())
		return
	}
	ui.Package("%d cluster(s) hydrated, %d skipped", summary.Hydrated(), summary.Skipped())
}

// notifyBatch reports the result to any configured notification channel.
func notifyBatch(ctx context.Context, cfg *config.Config, summary *hydrate.Summary, aborted bool, logger *slog.Logger) {
	mgr := notify.NewManager()
	mgr.AddProvider(notify.NewWebhookProvider(cfg.Notify.WebhookURL))
	mgr.AddProvider(notify.NewDiscordProvider(""))
	if !mgr.HasProviders() {
		return
	}

	detail := ""
	for _, res := range summary.Results {
		if res.Err != nil {
			detail += fmt.Sprintf("%s: %v\n", res.Cluster, res.Err)
		}
	}

	if err := mgr.SendBatchResult(ctx, summary.Hydrated(), summary.Skipped(), aborted, detail); err != nil {
		logger.Warn("notification failed", "error", err)
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func init() {
	hydrateCmd.Flags().StringVarP(&hydrateCluster, "cluster", "c", "", "Hydrate a single cluster by name")
	hydrateCmd.Flags().StringArrayVarP(&hydrateTags, "tag", "t", nil, "Hydrate clusters matching any of these tags")
	hydrateCmd.Flags().StringVarP(&hydrateGroup, "group", "g", "", "Hydrate clusters in this group")
	hydrateCmd.MarkFlagsMutuallyExclusive("cluster", "tag", "group")

	hydrateCmd.Flags().StringVarP(&hydrateBase, "base", "b", "", "Base library directory")
	hydrateCmd.Flags().StringVarP(&hydrateOverlays, "overlays", "o", "", "Overlay root directory")
	hydrateCmd.Flags().StringVarP(&hydrateOutput, "output", "O", "", "Output directory")
	hydrateCmd.Flags().StringVarP(&hydrateWorkdir, "workdir", "w", "", "Explicit workspace directory (must not exist)")
	hydrateCmd.Flags().StringVar(&hydrateLayout, "layout", "", "Output layout: none, group, or cluster")
	hydrateCmd.Flags().StringArrayVar(&hydrateSecrets, "secrets", nil, "SOPS-encrypted attribute file (repeatable)")
	hydrateCmd.Flags().StringVar(&hydrateRepo, "repo", "", "Manifest repository URL to sync before hydrating")
	hydrateCmd.Flags().StringVar(&hydrateBranch, "branch", "", "Manifest repository branch")
	hydrateCmd.Flags().BoolVar(&hydrateVerify, "verify", false, "Parse built manifests for YAML well-formedness")
	hydrateCmd.Flags().BoolVar(&hydrateSnapshot, "snapshot", false, "Snapshot the output directory before the batch")
	hydrateCmd.Flags().BoolVarP(&hydrateDryRun, "dry-run", "n", false, "Merge and render only, skip build and output")
	hydrateCmd.Flags().IntVar(&hydrateTimeout, "timeout", 0, "Per-cluster build timeout in seconds")

	rootCmd.AddCommand(hydrateCmd)
}
