package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/manifest"
	"github.com/cameronsjo/stevedore/internal/ui"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate [fleet-file]",
	Short: "Validate the fleet file and manifest trees",
	Long: `Validate the project without hydrating anything.

Checks performed:
  1. Fleet file parses and every record has a usable group
  2. Base library YAML files are well-formed
  3. Overlay YAML files are well-formed

Template files (*.tmpl) are not parsed as YAML since they only become
YAML after rendering.

Examples:
  stevedore validate
  stevedore validate clusters.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fleetArg := ""
	if len(args) == 1 {
		fleetArg = args[0]
	}

	errors := 0

	ui.Header("Fleet")
	store, err := loadFleet(cfg, fleetArg, logger)
	if err != nil {
		ui.Error("Fleet file: %v", err)
		errors++
	}
	if store != nil {
		for _, rec := range store.All() {
			if vErr := rec.Validate(); vErr != nil {
				ui.Warning("%s: %v", rec.Name, vErr)
				continue
			}
			ui.Success("%s (group %s)", rec.Name, rec.Group)
		}
		fmt.Printf("%d cluster(s)\n", store.Len())
	}
	fmt.Println()

	errors += validateTree("Base library", cfg.BaseDir())
	errors += validateTree("Overlays", cfg.OverlaysDir())

	if errors > 0 {
		return fmt.Errorf("validation failed with %d error(s)", errors)
	}
	ui.Success("Project is valid")
	return nil
}

// validateTree YAML-checks one manifest tree, printing per-file issues.
func validateTree(label, dir string) int {
	ui.Header(label)
	defer fmt.Println()

	if _, err := os.Stat(dir); err != nil {
		ui.Error("%s: %v", dir, err)
		return 1
	}

	issues, err := manifest.CheckTree(dir)
	if err != nil {
		ui.Error("%s: %v", dir, err)
		return 1
	}
	for _, issue := range issues {
		ui.Error("%s: %v", issue.Path, issue.Err)
	}
	if len(issues) == 0 {
		ui.Success("%s is well-formed", dir)
	}
	return len(issues)
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
