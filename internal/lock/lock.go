// Package lock serializes stevedore operations with file locks so two
// hydrations cannot write the same output tree at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrHeld indicates another process holds the lock.
var ErrHeld = errors.New("lock already held")

// Lock is a per-operation file lock.
type Lock struct {
	operation string
	path      string
	file      *os.File
}

// New returns an unacquired lock for the named operation.
func New(locksDir, operation string) *Lock {
	return &Lock{
		operation: operation,
		path:      filepath.Join(locksDir, operation+".lock"),
	}
}

// Acquire takes the lock without blocking. A held lock yields ErrHeld.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := flock(f); err != nil {
		f.Close()
		l.file = nil
		if errors.Is(err, errWouldBlock) {
			return fmt.Errorf("%w: another %s operation is running", ErrHeld, l.operation)
		}
		return fmt.Errorf("acquire lock: %w", err)
	}

	// PID in the file helps figure out who holds a stale-looking lock.
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	l.file = f
	return nil
}

// Release drops the lock. Safe to call on an unacquired lock.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := funlock(l.file); err != nil {
		l.file.Close()
		return fmt.Errorf("release lock: %w", err)
	}

	l.file.Close()
	os.Remove(l.path)
	l.file = nil
	return nil
}

// WithLock runs fn while holding the named lock.
func WithLock(locksDir, operation string, fn func() error) error {
	lock := New(locksDir, operation)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}
