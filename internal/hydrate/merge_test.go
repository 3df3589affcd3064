package hydrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestMerge(t *testing.T) {
	newDest := func(t *testing.T) string {
		return filepath.Join(t.TempDir(), "work")
	}

	t.Run("unions base and overlay", func(t *testing.T) {
		base, overlay := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(base, "namespace.yaml"), "kind: Namespace\n")
		writeFile(t, filepath.Join(base, "apps", "web.yaml"), "kind: Deployment\n")
		writeFile(t, filepath.Join(overlay, "kustomization.yaml"), "resources: []\n")

		dest := newDest(t)
		err := NewMerger(nil, testLogger()).Merge(base, overlay, dest, nil)
		require.NoError(t, err)

		assert.FileExists(t, filepath.Join(dest, "namespace.yaml"))
		assert.FileExists(t, filepath.Join(dest, "apps", "web.yaml"))
		assert.FileExists(t, filepath.Join(dest, "kustomization.yaml"))
	})

	t.Run("overlay wins on the same relative path", func(t *testing.T) {
		base, overlay := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(base, "config.yaml"), "X")
		writeFile(t, filepath.Join(overlay, "config.yaml"), "Y")

		dest := newDest(t)
		require.NoError(t, NewMerger(nil, testLogger()).Merge(base, overlay, dest, nil))
		assert.Equal(t, "Y", readFile(t, filepath.Join(dest, "config.yaml")))
	})

	t.Run("renders templates and drops the marker file", func(t *testing.T) {
		base, overlay := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(base, "deployment.yaml.tmpl"), "cluster: {{.cluster_name}}\n")
		writeFile(t, filepath.Join(overlay, "plain.yaml"), "kind: Service\n")

		dest := newDest(t)
		m := NewMerger(NewRenderer(), testLogger())
		require.NoError(t, m.Merge(base, overlay, dest, map[string]string{"cluster_name": "c1"}))

		assert.Equal(t, "cluster: c1\n", readFile(t, filepath.Join(dest, "deployment.yaml")))
		assert.NoFileExists(t, filepath.Join(dest, "deployment.yaml.tmpl"))
		assert.Equal(t, "kind: Service\n", readFile(t, filepath.Join(dest, "plain.yaml")))
	})

	t.Run("overlay template overrides base rendered output", func(t *testing.T) {
		base, overlay := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(base, "cm.yaml.tmpl"), "from: base {{.cluster_name}}\n")
		writeFile(t, filepath.Join(overlay, "cm.yaml.tmpl"), "from: overlay {{.cluster_name}}\n")

		dest := newDest(t)
		m := NewMerger(NewRenderer(), testLogger())
		require.NoError(t, m.Merge(base, overlay, dest, map[string]string{"cluster_name": "c1"}))

		assert.Equal(t, "from: overlay c1\n", readFile(t, filepath.Join(dest, "cm.yaml")))
		assert.NoFileExists(t, filepath.Join(dest, "cm.yaml.tmpl"))
	})

	t.Run("nil renderer copies templates verbatim", func(t *testing.T) {
		base, overlay := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(base, "raw.yaml.tmpl"), "cluster: {{.cluster_name}}\n")
		writeFile(t, filepath.Join(overlay, "keep"), "")

		dest := newDest(t)
		require.NoError(t, NewMerger(nil, testLogger()).Merge(base, overlay, dest, nil))
		assert.Equal(t, "cluster: {{.cluster_name}}\n", readFile(t, filepath.Join(dest, "raw.yaml.tmpl")))
	})

	t.Run("missing base tree", func(t *testing.T) {
		err := NewMerger(nil, testLogger()).Merge(filepath.Join(t.TempDir(), "absent"), t.TempDir(), newDest(t), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceTree)
	})

	t.Run("missing overlay tree", func(t *testing.T) {
		err := NewMerger(nil, testLogger()).Merge(t.TempDir(), filepath.Join(t.TempDir(), "absent"), newDest(t), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceTree)
	})

	t.Run("file as source tree", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "base")
		writeFile(t, f, "not a dir")
		err := NewMerger(nil, testLogger()).Merge(f, t.TempDir(), newDest(t), nil)
		assert.ErrorIs(t, err, ErrSourceTree)
	})

	t.Run("render failure propagates", func(t *testing.T) {
		base, overlay := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(base, "bad.yaml.tmpl"), "zone: {{.absent_attr}}\n")

		err := NewMerger(NewRenderer(), testLogger()).Merge(base, overlay, newDest(t), map[string]string{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTemplateRender)
	})

	t.Run("preserves file mode", func(t *testing.T) {
		base, overlay := t.TempDir(), t.TempDir()
		script := filepath.Join(base, "hook.sh")
		writeFile(t, script, "#!/bin/sh\n")
		require.NoError(t, os.Chmod(script, 0755))

		dest := newDest(t)
		require.NoError(t, NewMerger(nil, testLogger()).Merge(base, overlay, dest, nil))

		info, err := os.Stat(filepath.Join(dest, "hook.sh"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	})
}
