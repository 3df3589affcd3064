// Package kustomize invokes the external manifest-build tool.
//
// The tool is an opaque subprocess: it gets a working directory and a
// command line, and it hands back an exit code and a log stream. By
// default that is `kustomize build . -o <outFile>`, but the whole command
// line can be overridden.
package kustomize

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const (
	// DefaultTool is the build tool invoked when no override is given.
	DefaultTool = "kustomize"
	// DefaultBuildTimeout bounds a single build when the caller's context
	// carries no deadline. A hung tool must not stall the whole batch.
	DefaultBuildTimeout = 10 * time.Minute
)

var (
	// ErrToolNotFound indicates the build tool binary could not be
	// resolved on the search path.
	ErrToolNotFound = errors.New("build tool not found in PATH")
	// ErrBuildFailed indicates the build tool exited non-zero.
	ErrBuildFailed = errors.New("build tool failed")
)

// Runner runs the build tool for one merged tree at a time.
type Runner struct {
	// Override replaces the entire default command line when non-empty.
	// The output file is then the override's business; nothing is appended.
	Override []string
	// Timeout bounds a build without a caller deadline. Zero means
	// DefaultBuildTimeout.
	Timeout time.Duration

	logger *slog.Logger
}

// NewRunner returns a Runner. override may be nil for the default command.
func NewRunner(override []string, timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{Override: override, Timeout: timeout, logger: logger}
}

// Build runs the tool with cwd = dir, writing the manifest to outFile.
// Stdout and stderr share one stream and are logged line by line as they
// arrive, so the child never blocks on a full pipe.
func (r *Runner) Build(ctx context.Context, dir, outFile string) error {
	argv := r.Override
	if len(argv) == 0 {
		argv = []string{DefaultTool, "build", ".", "-o", outFile}
	}

	tool, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%s: %w", argv[0], ErrToolNotFound)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := r.Timeout
		if timeout == 0 {
			timeout = DefaultBuildTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, tool, argv[1:]...)
	cmd.Dir = dir

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	r.logger.Debug("running build tool", "cmd", argv, "dir", dir)
	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return fmt.Errorf("start %s: %w", tool, err)
	}

	// The child holds its own copies of the write end; closing ours lets
	// the scanner see EOF when the child exits.
	pw.Close()

	scanner := bufio.NewScanner(pr)
	for scanner.Scan() {
		r.logger.Info(argv[0], "output", scanner.Text())
	}
	pr.Close()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out: %w", argv[0], ErrBuildFailed)
		}
		return fmt.Errorf("%s: %v: %w", argv[0], err, ErrBuildFailed)
	}

	r.logger.Debug("build tool completed", "tool", tool)
	return nil
}
