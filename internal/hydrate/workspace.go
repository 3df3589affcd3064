package hydrate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	// ErrWorkspaceExists indicates an explicit workspace path that already
	// exists; refusing it guards against recursively deleting a real tree.
	ErrWorkspaceExists = errors.New("workspace directory already exists")
	// ErrWorkspaceLive indicates an Acquire while the previous workspace
	// has not been released.
	ErrWorkspaceLive = errors.New("previous workspace not released")
)

// WorkspaceFactory mints ephemeral workspace directories, one live at a
// time. With an empty path every Acquire creates a fresh system temp dir;
// with an explicit path the same directory is recreated per Acquire.
type WorkspaceFactory struct {
	path   string
	logger *slog.Logger
	live   bool
}

// NewWorkspaceFactory returns a factory rooted at path, or at fresh temp
// dirs when path is empty. An explicit path must not already exist.
func NewWorkspaceFactory(path string, logger *slog.Logger) (*WorkspaceFactory, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%s: %w", path, ErrWorkspaceExists)
		}
	}
	return &WorkspaceFactory{path: path, logger: logger}, nil
}

// Acquire creates a fresh workspace. The caller owns it until Release.
func (f *WorkspaceFactory) Acquire() (*Workspace, error) {
	if f.live {
		return nil, ErrWorkspaceLive
	}

	dir := f.path
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "stevedore-*")
		if err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	}

	f.live = true
	f.logger.Debug("workspace acquired", "dir", dir)
	return &Workspace{dir: dir, factory: f}, nil
}

// Workspace is one ephemeral directory, owned by a single cluster's
// hydration. Release destroys it; nothing survives into the next cluster.
type Workspace struct {
	dir      string
	factory  *WorkspaceFactory
	released bool
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Release recursively removes the workspace. Safe to call more than once.
func (w *Workspace) Release() error {
	if w.released {
		return nil
	}
	w.released = true
	w.factory.live = false
	w.factory.logger.Debug("workspace released", "dir", w.dir)

	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}
