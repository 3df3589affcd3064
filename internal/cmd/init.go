package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/ui"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Scaffold a new stevedore project",
	Long: `Initialize a new stevedore project with the required directory
structure and starter files.

This creates:
  - stevedore.toml     Project configuration
  - fleet.csv          Starter fleet inventory
  - base_library/      Shared manifest base
  - overlays/prod/     Example group overlay
  - .gitignore         Git ignore file

If no directory is specified, the current directory is used.

Use --yes to skip all interactive prompts (useful for non-TTY environments).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initYes bool

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absDir, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	targetDir = absDir

	ui.Anchor("Setting up the dock...")
	fmt.Println()

	// Check if already initialized
	projectFile := filepath.Join(targetDir, config.FileName)
	if _, err := os.Stat(projectFile); err == nil {
		ui.Warning("This directory already has a stevedore project.")
		if !initYes {
			response, err := promptYesNo("Reinitialize? This won't overwrite existing files.")
			if err != nil {
				return err
			}
			if !response {
				fmt.Println("Aborted.")
				return nil
			}
		}
	}

	ui.Info("Creating project structure...")
	dirs := []string{
		filepath.Join(targetDir, "base_library"),
		filepath.Join(targetDir, "overlays", "prod"),
		filepath.Join(targetDir, "output"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	ui.Success("Created directories")

	ui.Info("Creating starter files...")
	starters := []struct {
		path    string
		content string
	}{
		{projectFile, starterProjectTOML},
		{filepath.Join(targetDir, "fleet.csv"), starterFleetCSV},
		{filepath.Join(targetDir, "base_library", "namespace.yaml.tmpl"), starterNamespaceTmpl},
		{filepath.Join(targetDir, "base_library", "kustomization.yaml"), starterBaseKustomization},
		{filepath.Join(targetDir, "overlays", "prod", "kustomization.yaml"), starterOverlayKustomization},
		{filepath.Join(targetDir, ".gitignore"), starterGitignore},
	}
	for _, s := range starters {
		if err := createFileIfNotExists(s.path, s.content); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Base(s.path), err)
		}
	}

	// Initialize git if needed
	ui.Info("Setting up version control...")
	gitDir := filepath.Join(targetDir, ".git")
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		if _, err := exec.LookPath("git"); err == nil {
			gitInit := exec.Command("git", "init", targetDir)
			gitInit.Stdout = os.Stdout
			gitInit.Stderr = os.Stderr
			if err := gitInit.Run(); err != nil {
				ui.Warning("Git init failed: %v", err)
			} else {
				ui.Success("Initialized git repository")
			}
		} else {
			ui.Warning("Git not found, skipping")
		}
	} else {
		ui.Success("Git repository exists")
	}

	fmt.Println()
	ui.Anchor("Dock ready! Here's your checklist:")
	fmt.Println()
	fmt.Println("  1. Add your clusters to fleet.csv")
	fmt.Println("  2. Put shared manifests in base_library/")
	fmt.Println("  3. Add one overlay directory per cluster group")
	fmt.Println("  4. Run 'stevedore doctor' to verify your setup")
	fmt.Println("  5. Run 'stevedore hydrate' to build manifests")
	fmt.Println()
	ui.Info("Run 'stevedore --help' for all commands.")

	return nil
}

// isTerminal checks if stdin is a TTY.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptYesNo asks the user a yes/no question.
// Returns error if stdin is not a TTY and cannot read input.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, fmt.Errorf("cannot prompt for input: stdin is not a TTY. Use --yes flag to skip interactive prompts")
	}

	fmt.Printf("%s [y/N] ", question)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read user input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// createFileIfNotExists creates a file with the given content if it doesn't exist.
func createFileIfNotExists(filename, content string) error {
	if _, err := os.Stat(filename); err == nil {
		ui.Warning("%s already exists, skipping", filepath.Base(filename))
		return nil
	}

	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return err
	}

	ui.Success("Created %s", filepath.Base(filename))
	return nil
}

// Starter file templates

const starterProjectTOML = `# stevedore project configuration
# Flags override these values; everything here has a sensible default.

[paths]
base = "base_library"
overlays = "overlays"
output = "output"

[fleet]
file = "fleet.csv"

[build]
# command = ["kustomize", "build", "--enable-helm", "."]
# timeout_seconds = 600
# verify = true

[output]
layout = "group"

[snapshot]
enabled = false
keep = 20
`

const starterFleetCSV = `cluster_name,cluster_group,cluster_tags,region
example-01,prod,edge,us-east-1
`

const starterNamespaceTmpl = `apiVersion: v1
kind: Namespace
metadata:
  name: {{ .cluster_name }}
  labels:
    group: {{ .cluster_group }}
`

const starterBaseKustomization = `resources:
  - namespace.yaml
`

const starterOverlayKustomization = `resources: []
`

const starterGitignore = `# Hydrated manifests
output/

# Stevedore state
.stevedore/

# OS
.DS_Store
Thumbs.db

# IDE
.idea/
.vscode/
`

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Skip all interactive prompts (assume yes for all questions)")
}
