package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/snapshot"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var (
	snapshotList     bool
	snapshotRollback string
	snapshotPrune    bool
)

// snapshotCmd represents the snapshot command.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "List, prune, or roll back output snapshots",
	Long: `Manage snapshots of the hydrated output directory.

Without flags a new snapshot is taken. Rollback restores the output
directory from a named snapshot, backing up the current output first.

Examples:
  stevedore snapshot
  stevedore snapshot --list
  stevedore snapshot --rollback snapshot-20260829-120000.000000000
  stevedore snapshot --prune`,
	RunE: runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr := snapshot.NewManager(cfg.OutputDir(), cfg.SnapshotsDir(), cfg.Snapshot.Keep, logger)

	switch {
	case snapshotList:
		snapshots, err := mgr.List()
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			ui.Info("No snapshots.")
			return nil
		}
		for _, snap := range snapshots {
			fmt.Printf("%s  %s  %d file(s)\n", snap.Name, snap.Created.Format("2006-01-02 15:04:05"), snap.FileCount)
		}
		return nil

	case snapshotRollback != "":
		if err := mgr.Restore(snapshotRollback); err != nil {
			return err
		}
		ui.Success("Restored output from %s", snapshotRollback)
		return nil

	case snapshotPrune:
		if err := mgr.Prune(); err != nil {
			return err
		}
		ui.Success("Pruned snapshots beyond the newest %d", mgr.Keep)
		return nil

	default:
		name, err := mgr.Create()
		if err != nil {
			return err
		}
		if name == "" {
			ui.Warning("Output directory is empty, nothing to snapshot.")
			return nil
		}
		ui.Snapshot("Snapshot %s", name)
		return nil
	}
}

func init() {
	snapshotCmd.Flags().BoolVarP(&snapshotList, "list", "l", false, "List available snapshots")
	snapshotCmd.Flags().StringVarP(&snapshotRollback, "rollback", "r", "", "Restore the output directory from a snapshot")
	snapshotCmd.Flags().BoolVar(&snapshotPrune, "prune", false, "Remove snapshots beyond the retention limit")
	snapshotCmd.MarkFlagsMutuallyExclusive("list", "rollback", "prune")

	rootCmd.AddCommand(snapshotCmd)
}
