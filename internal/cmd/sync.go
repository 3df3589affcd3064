package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/gitsync"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var (
	syncRepo   string
	syncBranch string
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or fast-forward the manifest repository",
	Long: `Sync the manifest repository into the project's local clone.

The repository URL and branch come from [repo] in stevedore.toml, or
from the --repo and --branch flags.

Examples:
  stevedore sync
  stevedore sync --repo https://example.com/fleet.git --branch release`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := cfg.Repo.URL
	if syncRepo != "" {
		url = syncRepo
	}
	if url == "" {
		return fmt.Errorf("no repository configured: set [repo] url in %s or pass --repo", "stevedore.toml")
	}

	branch := cfg.Repo.Branch
	if syncBranch != "" {
		branch = syncBranch
	}

	changed, before, after, err := gitsync.New(url, branch, cfg.RepoDir(), logger).Sync(cmd.Context())
	if err != nil {
		return err
	}

	switch {
	case before == "":
		ui.Success("Cloned %s at %s", url, shortHash(after))
	case changed:
		ui.Success("Updated %s → %s", shortHash(before), shortHash(after))
	default:
		ui.Info("Already up to date at %s", shortHash(after))
	}
	return nil
}

func init() {
	syncCmd.Flags().StringVar(&syncRepo, "repo", "", "Manifest repository URL")
	syncCmd.Flags().StringVar(&syncBranch, "branch", "", "Manifest repository branch")
	rootCmd.AddCommand(syncCmd)
}
