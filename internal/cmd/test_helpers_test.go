package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// executeCmd executes the root command with the given args and returns the output.
// This handles proper state reset between test executions.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	// Important: Set args BEFORE setting output buffers
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetHydrateFlags clears the package-level flag state the hydrate
// command accumulates across executions.
func resetHydrateFlags(t *testing.T) {
	t.Helper()
	hydrateCluster = ""
	hydrateTags = nil
	hydrateGroup = ""
	hydrateBase = ""
	hydrateOverlays = ""
	hydrateOutput = ""
	hydrateWorkdir = ""
	hydrateLayout = ""
	hydrateSecrets = nil
	hydrateRepo = ""
	hydrateBranch = ""
	hydrateVerify = false
	hydrateSnapshot = false
	hydrateDryRun = false
	hydrateTimeout = 0
	for _, name := range []string{"cluster", "tag", "group", "base", "overlays", "output", "workdir", "layout", "secrets", "repo", "branch", "verify", "snapshot", "dry-run", "timeout"} {
		if f := hydrateCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
	// pflag never resets argsLenAtDash between Parse calls, so a "--" from
	// an earlier execution leaks into the next one; Init clears it without
	// touching the registered flags.
	hydrateCmd.Flags().Init(hydrateCmd.Name(), pflag.ContinueOnError)
}

// projectDir scaffolds a minimal hydration project and chdirs into it.
func projectDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeProjectFile(t, root, "fleet.csv", "cluster_name,cluster_group,cluster_tags\nweb-01,prod,edge\nweb-02,prod,\ndb-01,dev,storage\n")
	writeProjectFile(t, root, "stevedore.toml", "")
	writeProjectFile(t, root, filepath.Join("base_library", "namespace.yaml.tmpl"),
		"apiVersion: v1\nkind: Namespace\nmetadata:\n  name: {{ .cluster_name }}\n")
	writeProjectFile(t, root, filepath.Join("overlays", "prod", "kustomization.yaml"), "resources:\n  - namespace.yaml\n")
	writeProjectFile(t, root, filepath.Join("overlays", "dev", "kustomization.yaml"), "resources:\n  - namespace.yaml\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { os.Chdir(wd) })
	return root
}

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
