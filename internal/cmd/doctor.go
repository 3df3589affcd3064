package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/preflight"
	"github.com/cameronsjo/stevedore/internal/ui"
)

// doctorCmd represents the doctor command.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Pre-flight checks for binaries and project layout",
	Long: `Check that stevedore can actually run here.

Checks performed:
  1. Required and optional binaries on PATH
  2. Project layout (base library, overlays, fleet file)
  3. Fleet file parses
  4. Lock directory is writable

Exits non-zero when a required check fails.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	var failures, warnings int

	ui.Header("Binaries")
	binWarnings, binErrors := preflight.CheckAll()
	for _, e := range binErrors {
		ui.Error("%s", e)
		failures++
	}
	for _, w := range binWarnings {
		ui.Warning("%s", w)
		warnings++
	}
	if len(binErrors) == 0 && len(binWarnings) == 0 {
		ui.Success("All binaries present")
	}
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		ui.Error("Project config: %v", err)
		return fmt.Errorf("doctor found %d problem(s)", failures+1)
	}

	ui.Header("Project layout")
	for _, check := range []struct {
		label string
		path  string
	}{
		{"Base library", cfg.BaseDir()},
		{"Overlays", cfg.OverlaysDir()},
	} {
		if info, err := os.Stat(check.path); err != nil || !info.IsDir() {
			ui.Error("%s missing: %s", check.label, check.path)
			failures++
			continue
		}
		ui.Success("%s: %s", check.label, check.path)
	}

	if _, err := os.Stat(cfg.FleetFile()); err != nil {
		ui.Error("Fleet file missing: %s", cfg.FleetFile())
		failures++
	} else if store, err := loadFleet(cfg, "", logger); err != nil {
		ui.Error("Fleet file: %v", err)
		failures++
	} else {
		ui.Success("Fleet file: %d cluster(s)", store.Len())
	}
	fmt.Println()

	ui.Header("Lock directory")
	if err := checkWritable(cfg.LocksDir()); err != nil {
		ui.Error("Lock directory: %v", err)
		failures++
	} else {
		ui.Success("Lock directory writable")
	}
	fmt.Println()

	if failures > 0 {
		return fmt.Errorf("doctor found %d problem(s)", failures)
	}
	if warnings > 0 {
		ui.Warning("Seaworthy, with %d warning(s)", warnings)
		return nil
	}
	ui.Anchor("All checks passed")
	return nil
}

// checkWritable creates the directory if needed and probes a write.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
