package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "base_library", cfg.Paths.Base)
	assert.Equal(t, "overlays", cfg.Paths.Overlays)
	assert.Equal(t, "output", cfg.Paths.Output)
	assert.Equal(t, "fleet.csv", cfg.Fleet.File)
	assert.Equal(t, "group", cfg.Output.Layout)
	assert.Equal(t, 20, cfg.Snapshot.Keep)
	assert.Equal(t, "main", cfg.Repo.Branch)
}

func TestFindRoot(t *testing.T) {
	t.Run("finds the marker from a nested directory", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, "")
		nested := filepath.Join(root, "overlays", "prod")
		require.NoError(t, os.MkdirAll(nested, 0755))

		found, err := FindRoot(nested)
		require.NoError(t, err)
		assert.Equal(t, root, found)
	})

	t.Run("no marker anywhere", func(t *testing.T) {
		_, err := FindRoot(t.TempDir())
		assert.ErrorIs(t, err, ErrNoProject)
	})
}

func TestLoadFrom(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, `
[paths]
base = "shared"
workdir = "scratch"

[fleet]
file = "clusters.csv"
tag_delimiter = ";"

[build]
command = ["kustomize", "build", "--enable-helm", "."]
timeout_seconds = 120
verify = true

[output]
layout = "cluster"

[snapshot]
enabled = true
keep = 5

[repo]
url = "https://example.com/fleet.git"
branch = "release"

[secrets]
files = ["secrets/common.sops.yaml"]

[notify]
webhook_url = "https://hooks.example.com/x"
`)

		cfg, err := LoadFrom(root)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(root, "shared"), cfg.BaseDir())
		assert.Equal(t, filepath.Join(root, "overlays"), cfg.OverlaysDir())
		assert.Equal(t, filepath.Join(root, "scratch"), cfg.WorkDir())
		assert.Equal(t, filepath.Join(root, "clusters.csv"), cfg.FleetFile())
		assert.Equal(t, ";", cfg.Fleet.TagDelimiter)
		assert.Equal(t, []string{"kustomize", "build", "--enable-helm", "."}, cfg.Build.Command)
		assert.Equal(t, 120, cfg.Build.TimeoutSeconds)
		assert.True(t, cfg.Build.Verify)
		assert.Equal(t, "cluster", cfg.Output.Layout)
		assert.True(t, cfg.Snapshot.Enabled)
		assert.Equal(t, 5, cfg.Snapshot.Keep)
		assert.Equal(t, "release", cfg.Repo.Branch)
		assert.Equal(t, []string{filepath.Join(root, "secrets", "common.sops.yaml")}, cfg.SecretsFiles())
		assert.Equal(t, "https://hooks.example.com/x", cfg.Notify.WebhookURL)
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, "")

		cfg, err := LoadFrom(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "base_library"), cfg.BaseDir())
		assert.Equal(t, "", cfg.WorkDir())
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, "[paths]\nbasedir = \"typo\"\n")

		_, err := LoadFrom(root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "basedir")
	})

	t.Run("malformed TOML", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, "[paths\n")
		_, err := LoadFrom(root)
		assert.Error(t, err)
	})

	t.Run("absolute paths pass through", func(t *testing.T) {
		root := t.TempDir()
		writeProject(t, root, "[paths]\noutput = \"/var/lib/manifests\"\n")

		cfg, err := LoadFrom(root)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/manifests", cfg.OutputDir())
	})
}

func TestProjectSubdirs(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "")
	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".stevedore", "snapshots"), cfg.SnapshotsDir())
	assert.Equal(t, filepath.Join(root, ".stevedore", "locks"), cfg.LocksDir())
	assert.Equal(t, filepath.Join(root, ".stevedore", "repo"), cfg.RepoDir())
}
