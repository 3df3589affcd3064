// Package gitsync keeps a local clone of the manifest repository fresh.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repo describes the manifest repository to sync.
type Repo struct {
	// URL is the clone URL; any transport go-git speaks, including
	// local paths.
	URL string
	// Branch to track; empty means the remote default.
	Branch string
	// Dir is the local clone location.
	Dir string

	logger *slog.Logger
}

// New returns a Repo.
func New(url, branch, dir string, logger *slog.Logger) *Repo {
	return &Repo{URL: url, Branch: branch, Dir: dir, logger: logger}
}

// Sync clones the repository if Dir holds no clone yet, otherwise pulls.
// Returns whether HEAD moved, plus the before and after commit hashes
// (before is empty on a fresh clone, which always counts as changed).
func (r *Repo) Sync(ctx context.Context) (changed bool, before, after string, err error) {
	repo, err := git.PlainOpen(r.Dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return r.clone(ctx)
	}
	if err != nil {
		return false, "", "", fmt.Errorf("open %s: %w", r.Dir, err)
	}
	return r.pull(ctx, repo)
}

func (r *Repo) clone(ctx context.Context) (bool, string, string, error) {
	r.logger.Info("cloning manifest repo", "url", r.URL, "dir", r.Dir)

	opts := &git.CloneOptions{URL: r.URL, SingleBranch: true}
	if r.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(r.Branch)
	}

	repo, err := git.PlainCloneContext(ctx, r.Dir, false, opts)
	if err != nil {
		return false, "", "", fmt.Errorf("clone %s: %w", r.URL, err)
	}

	after, err := head(repo)
	if err != nil {
		return false, "", "", err
	}
	return true, "", after, nil
}

func (r *Repo) pull(ctx context.Context, repo *git.Repository) (bool, string, string, error) {
	before, err := head(repo)
	if err != nil {
		return false, "", "", err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, "", "", fmt.Errorf("worktree: %w", err)
	}

	opts := &git.PullOptions{RemoteName: "origin", SingleBranch: true}
	if r.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(r.Branch)
	}

	err = wt.PullContext(ctx, opts)
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		r.logger.Debug("manifest repo already up to date", "commit", before)
		return false, before, before, nil
	case err != nil:
		return false, "", "", fmt.Errorf("pull %s: %w", r.Dir, err)
	}

	after, err := head(repo)
	if err != nil {
		return false, "", "", err
	}

	r.logger.Info("manifest repo updated", "before", short(before), "after", short(after))
	return before != after, before, after, nil
}

// head returns the current HEAD commit hash.
func head(repo *git.Repository) (string, error) {
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// short abbreviates a commit hash for log lines.
func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
