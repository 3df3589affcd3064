package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/fleet"
	"github.com/cameronsjo/stevedore/internal/snapshot"
)

// completeClusterNames completes --cluster values from the fleet file.
func completeClusterNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := completionFleet()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, rec := range store.All() {
		if strings.HasPrefix(rec.Name, toComplete) {
			names = append(names, rec.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeGroupNames completes --group values from the fleet file.
func completeGroupNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := completionFleet()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	seen := map[string]bool{}
	var names []string
	for _, rec := range store.All() {
		if rec.Group == "" || seen[rec.Group] || !strings.HasPrefix(rec.Group, toComplete) {
			continue
		}
		seen[rec.Group] = true
		names = append(names, rec.Group)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeTagNames completes --tag values from the fleet file.
func completeTagNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := completionFleet()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	seen := map[string]bool{}
	var names []string
	for _, rec := range store.All() {
		for _, tag := range rec.Tags {
			if seen[tag] || !strings.HasPrefix(tag, toComplete) {
				continue
			}
			seen[tag] = true
			names = append(names, tag)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeSnapshotNames completes --rollback values from the snapshot list.
func completeSnapshotNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	mgr := snapshot.NewManager(cfg.OutputDir(), cfg.SnapshotsDir(), cfg.Snapshot.Keep, discardLogger())
	snapshots, err := mgr.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, snap := range snapshots {
		if strings.HasPrefix(snap.Name, toComplete) {
			names = append(names, snap.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completionFleet loads the fleet silently for completion lookups.
func completionFleet() (*fleet.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return loadFleet(cfg, "", discardLogger())
}

// registerCompletions registers all dynamic completions for commands.
// This is called from init() to set up completions after all commands are defined.
func registerCompletions() {
	for flag, fn := range map[string]func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective){
		"cluster": completeClusterNames,
		"group":   completeGroupNames,
		"tag":     completeTagNames,
	} {
		if err := hydrateCmd.RegisterFlagCompletionFunc(flag, fn); err != nil {
			// Completions are optional.
			_ = err
		}
	}

	if err := snapshotCmd.RegisterFlagCompletionFunc("rollback", completeSnapshotNames); err != nil {
		_ = err
	}
}

func init() {
	// Use a deferred registration via cobra.OnInitialize to ensure
	// all commands are registered before we add completions
	cobra.OnInitialize(registerCompletions)
}
