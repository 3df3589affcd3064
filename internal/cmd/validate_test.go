package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	t.Run("clean project passes", func(t *testing.T) {
		projectDir(t)
		_, err := executeCmd(t, "validate")
		assert.NoError(t, err)
	})

	t.Run("broken overlay YAML fails", func(t *testing.T) {
		root := projectDir(t)
		writeProjectFile(t, root, filepath.Join("overlays", "prod", "broken.yaml"), "a: [unclosed\n")

		_, err := executeCmd(t, "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("templates are not parsed as YAML", func(t *testing.T) {
		root := projectDir(t)
		writeProjectFile(t, root, filepath.Join("base_library", "config.yaml.tmpl"), "values: {{ .cluster_name }}: {{\n")

		_, err := executeCmd(t, "validate")
		assert.NoError(t, err)
	})

	t.Run("missing fleet file fails", func(t *testing.T) {
		root := projectDir(t)
		require.NoError(t, os.Remove(filepath.Join(root, "fleet.csv")))

		_, err := executeCmd(t, "validate")
		assert.Error(t, err)
	})

	t.Run("explicit fleet file argument", func(t *testing.T) {
		root := projectDir(t)
		alt := filepath.Join(root, "alt.csv")
		require.NoError(t, os.WriteFile(alt, []byte("cluster_name,cluster_group\nalt-01,prod\n"), 0644))

		_, err := executeCmd(t, "validate", alt)
		assert.NoError(t, err)
	})
}
