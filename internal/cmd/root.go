// Package cmd provides the CLI commands for stevedore.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var (
	rootVerbosity int
	rootQuiet     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "Fleet manifest hydration for Kubernetes",
	Long: `stevedore - fleet manifest hydration

Builds per-cluster Kubernetes manifests from a CSV fleet inventory, a
shared base library, and per-group overlays, rendered through templates
and built with kustomize.

HYDRATION
  hydrate [fleet.csv]   Hydrate manifests for the whole fleet
    --cluster, -c       One cluster by name
    --tag, -t           Clusters matching any tag (repeatable)
    --group, -g         Clusters in one group
    --dry-run, -n       Merge and render only, skip the build
    -- CMD...           Replace the build command entirely

VALIDATION
  validate [fleet.csv]  Check the fleet file and manifest trees
  doctor                Pre-flight checks for binaries and layout

PROJECT
  init [dir]            Scaffold a new stevedore project
  sync                  Clone or fast-forward the manifest repository
  snapshot              List, prune, or roll back output snapshots
  update                Self-update from GitHub releases`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the logger every component receives, with the level
// derived from the persistent verbosity flags.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case rootQuiet:
		level = slog.LevelError
	case rootVerbosity > 0:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&rootVerbosity, "verbose", "v", "Increase log verbosity (debug)")
	rootCmd.PersistentFlags().BoolVarP(&rootQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.SetVersionTemplate("stevedore version {{.Version}}\n")
}
