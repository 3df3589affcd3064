package fleet

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseSource(t *testing.T) {
	t.Run("parses rows into records", func(t *testing.T) {
		src := strings.Join([]string{
			"cluster_name,cluster_group,cluster_tags,region",
			"prod-us,prod,\"critical,pci\",us-east-1",
			"staging-eu,staging,,eu-west-1",
		}, "\n")

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.NoError(t, err)
		require.Equal(t, 2, store.Len())

		rec, ok := store.Get("prod-us")
		require.True(t, ok)
		assert.Equal(t, "prod", rec.Group)
		assert.Equal(t, []string{"critical", "pci"}, rec.Tags)
		assert.Equal(t, "us-east-1", rec.Attrs["region"])
		assert.Equal(t, "prod-us", rec.Attrs["cluster_name"])
	})

	t.Run("trims keys and values", func(t *testing.T) {
		src := " cluster_name , cluster_group \n  edge-1  ,  edge  \n"

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.NoError(t, err)

		rec, ok := store.Get("edge-1")
		require.True(t, ok)
		assert.Equal(t, "edge", rec.Group)
		assert.Equal(t, []string{"cluster_name", "cluster_group"}, store.Header())
	})

	t.Run("skips rows with all cells empty", func(t *testing.T) {
		src := "cluster_name,cluster_group\nalpha,prod\n,\nbeta,staging\n"

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.NoError(t, err)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("duplicate name keeps last row at first position", func(t *testing.T) {
		src := strings.Join([]string{
			"cluster_name,cluster_group",
			"alpha,prod",
			"beta,staging",
			"alpha,edge",
		}, "\n")

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.NoError(t, err)
		require.Equal(t, 2, store.Len())

		all := store.All()
		assert.Equal(t, "alpha", all[0].Name)
		assert.Equal(t, "edge", all[0].Group)
		assert.Equal(t, "beta", all[1].Name)
	})

	t.Run("missing identity column fails and keeps earlier rows", func(t *testing.T) {
		src := strings.Join([]string{
			"cluster_name,cluster_group",
			"alpha,prod",
			",staging",
			"gamma,edge",
		}, "\n")

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingName)
		assert.Contains(t, err.Error(), "row 3")

		// Rows before the bad one survive.
		require.NotNil(t, store)
		assert.Equal(t, 1, store.Len())
		_, ok := store.Get("alpha")
		assert.True(t, ok)
	})

	t.Run("header without identity column fails on first data row", func(t *testing.T) {
		src := "hostname,cluster_group\nalpha,prod\n"

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingName)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("empty input parses to an empty store", func(t *testing.T) {
		store, err := ParseSource(strings.NewReader(""), DefaultColumns(), testLogger())
		require.NoError(t, err)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("short rows lack trailing columns", func(t *testing.T) {
		src := "cluster_name,cluster_group,cluster_tags\nalpha,prod\n"

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.NoError(t, err)

		rec, ok := store.Get("alpha")
		require.True(t, ok)
		// The tags column never made it into the row.
		assert.Nil(t, rec.Tags)
		_, present := rec.Attrs["cluster_tags"]
		assert.False(t, present)
	})

	t.Run("blank tags cell parses to empty tag set", func(t *testing.T) {
		src := "cluster_name,cluster_group,cluster_tags\nalpha,prod,\n"

		store, err := ParseSource(strings.NewReader(src), DefaultColumns(), testLogger())
		require.NoError(t, err)

		rec, ok := store.Get("alpha")
		require.True(t, ok)
		require.NotNil(t, rec.Tags)
		assert.Empty(t, rec.Tags)
	})

	t.Run("custom column names", func(t *testing.T) {
		cols := Columns{Name: "host", Group: "site", Tags: "labels", TagDelimiter: ";"}
		src := "host,site,labels\nnode-1,dc1,gpu; storage\n"

		store, err := ParseSource(strings.NewReader(src), cols, testLogger())
		require.NoError(t, err)

		rec, ok := store.Get("node-1")
		require.True(t, ok)
		assert.Equal(t, "dc1", rec.Group)
		assert.Equal(t, []string{"gpu", "storage"}, rec.Tags)
	})
}

func TestParseSourceFile(t *testing.T) {
	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fleet.csv")
		require.NoError(t, os.WriteFile(path, []byte("cluster_name,cluster_group\nalpha,prod\n"), 0644))

		store, err := ParseSourceFile(path, DefaultColumns(), testLogger())
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := ParseSourceFile(filepath.Join(t.TempDir(), "absent.csv"), DefaultColumns(), testLogger())
		assert.Error(t, err)
	})
}
