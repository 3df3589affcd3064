package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	t.Run("acquire writes a pid file", func(t *testing.T) {
		dir := t.TempDir()
		l := New(dir, "hydrate")
		require.NoError(t, l.Acquire())
		defer l.Release()

		data, err := os.ReadFile(filepath.Join(dir, "hydrate.lock"))
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("release removes the file", func(t *testing.T) {
		dir := t.TempDir()
		l := New(dir, "hydrate")
		require.NoError(t, l.Acquire())
		require.NoError(t, l.Release())
		assert.NoFileExists(t, filepath.Join(dir, "hydrate.lock"))
	})

	t.Run("release without acquire is a no-op", func(t *testing.T) {
		assert.NoError(t, New(t.TempDir(), "hydrate").Release())
	})

	t.Run("second holder is refused", func(t *testing.T) {
		dir := t.TempDir()
		first := New(dir, "hydrate")
		require.NoError(t, first.Acquire())
		defer first.Release()

		second := New(dir, "hydrate")
		err := second.Acquire()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrHeld)
	})

	t.Run("different operations do not contend", func(t *testing.T) {
		dir := t.TempDir()
		a := New(dir, "hydrate")
		b := New(dir, "sync")
		require.NoError(t, a.Acquire())
		defer a.Release()
		require.NoError(t, b.Acquire())
		defer b.Release()
	})

	t.Run("missing lock directory is created", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "locks")
		l := New(dir, "hydrate")
		require.NoError(t, l.Acquire())
		defer l.Release()
	})
}

func TestWithLock(t *testing.T) {
	t.Run("runs the function and releases", func(t *testing.T) {
		dir := t.TempDir()
		ran := false
		require.NoError(t, WithLock(dir, "hydrate", func() error {
			ran = true
			return nil
		}))
		assert.True(t, ran)
		assert.NoFileExists(t, filepath.Join(dir, "hydrate.lock"))
	})

	t.Run("function error passes through", func(t *testing.T) {
		wantErr := errors.New("boom")
		err := WithLock(t.TempDir(), "hydrate", func() error { return wantErr })
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("lock is released after a panic-free failure", func(t *testing.T) {
		dir := t.TempDir()
		_ = WithLock(dir, "hydrate", func() error { return errors.New("boom") })

		l := New(dir, "hydrate")
		require.NoError(t, l.Acquire())
		defer l.Release()
	})
}
