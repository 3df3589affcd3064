package hydrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cameronsjo/stevedore/internal/fleet"
	"github.com/cameronsjo/stevedore/internal/kustomize"
	"github.com/cameronsjo/stevedore/internal/manifest"
)

// ErrOverlayNotFound indicates a cluster whose group has no overlay
// subtree. Recoverable: there is simply nothing to hydrate.
var ErrOverlayNotFound = errors.New("no overlay for cluster group")

// Status classifies how one cluster's hydration ended.
type Status int

const (
	// StatusHydrated means the cluster's manifest was built.
	StatusHydrated Status = iota
	// StatusSkipped means a recoverable problem; the batch continues.
	StatusSkipped
	// StatusAborted means a problem fatal to the remaining batch.
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusHydrated:
		return "hydrated"
	case StatusSkipped:
		return "skipped"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result of processing one cluster.
type Outcome struct {
	Cluster string
	Status  Status
	// Output is the built manifest path; empty unless hydrated.
	Output string
	// Err carries the skip reason or the fatal error.
	Err error
}

// Layout selects where a cluster's manifest lands under the output root.
type Layout string

const (
	// LayoutNone writes every manifest directly into the output root.
	LayoutNone Layout = "none"
	// LayoutGroup writes into a per-group subdirectory.
	LayoutGroup Layout = "group"
	// LayoutCluster writes into a per-cluster subdirectory.
	LayoutCluster Layout = "cluster"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case LayoutNone, LayoutGroup, LayoutCluster:
		return Layout(s), nil
	default:
		return "", fmt.Errorf("unknown output layout %q (want none, group, or cluster)", s)
	}
}

// Builder runs the external manifest-build tool on a merged tree.
type Builder interface {
	Build(ctx context.Context, dir, outFile string) error
}

// Processor hydrates a single cluster: merge base and overlay into the
// workspace, then build the merged tree into the output location.
type Processor struct {
	// BaseDir is the shared manifest base tree.
	BaseDir string
	// OverlayRoot holds one overlay subtree per cluster group.
	OverlayRoot string
	// OutputRoot is where built manifests land, per Layout.
	OutputRoot string
	// Layout picks the output subdirectory mode.
	Layout Layout
	// DryRun merges and renders but skips the build and output steps.
	DryRun bool
	// Verify parses the built manifest for YAML well-formedness.
	Verify bool

	merger  *Merger
	builder Builder
	logger  *slog.Logger
}

// NewProcessor wires a Processor with its merger and build tool.
func NewProcessor(baseDir, overlayRoot, outputRoot string, layout Layout, builder Builder, logger *slog.Logger) *Processor {
	return &Processor{
		BaseDir:     baseDir,
		OverlayRoot: overlayRoot,
		OutputRoot:  outputRoot,
		Layout:      layout,
		merger:      NewMerger(NewRenderer(), logger),
		builder:     builder,
		logger:      logger,
	}
}

// Process hydrates one cluster into the given workspace and classifies
// whatever happens. Low-level errors never escape unclassified: the
// Runner only looks at Outcome.Status.
func (p *Processor) Process(ctx context.Context, rec *fleet.Record, ws *Workspace) Outcome {
	err := p.process(ctx, rec, ws)
	switch {
	case err == nil:
		return Outcome{Cluster: rec.Name, Status: StatusHydrated, Output: p.outputFile(rec)}
	case recoverable(err):
		p.logger.Warn("skipping cluster", "cluster", rec.Name, "reason", err)
		return Outcome{Cluster: rec.Name, Status: StatusSkipped, Err: err}
	default:
		p.logger.Error("cluster processing failed", "cluster", rec.Name, "error", err)
		return Outcome{Cluster: rec.Name, Status: StatusAborted, Err: err}
	}
}

func (p *Processor) process(ctx context.Context, rec *fleet.Record, ws *Workspace) error {
	overlay := filepath.Join(p.OverlayRoot, rec.Group)
	if info, err := os.Stat(overlay); err != nil || !info.IsDir() {
		return fmt.Errorf("cluster %q, group %q: %w", rec.Name, rec.Group, ErrOverlayNotFound)
	}

	p.logger.Info("hydrating", "cluster", rec.Name, "group", rec.Group)
	if err := p.merger.Merge(p.BaseDir, overlay, ws.Dir(), rec.Attrs); err != nil {
		return err
	}

	if p.DryRun {
		p.logger.Info("dry run, skipping build", "cluster", rec.Name)
		return nil
	}

	outFile := p.outputFile(rec)
	if err := os.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := p.builder.Build(ctx, ws.Dir(), outFile); err != nil {
		return err
	}

	if p.Verify {
		if err := manifest.CheckFile(outFile); err != nil {
			return fmt.Errorf("built manifest failed verification: %v: %w", err, kustomize.ErrBuildFailed)
		}
		p.logger.Debug("manifest verified", "file", outFile)
	}

	p.logger.Info("hydrated", "cluster", rec.Name, "output", outFile)
	return nil
}

// outputFile resolves <output>/<layout>/<cluster>.yaml.
func (p *Processor) outputFile(rec *fleet.Record) string {
	dest := p.OutputRoot
	switch p.Layout {
	case LayoutGroup:
		dest = filepath.Join(dest, rec.Group)
	case LayoutCluster:
		dest = filepath.Join(dest, rec.Name)
	}
	return filepath.Join(dest, rec.Name+".yaml")
}

// recoverable reports whether an error should skip just this cluster.
// Missing overlays, template trouble, and build tool exits are isolated to
// one cluster's config; anything else stops the batch.
func recoverable(err error) bool {
	return errors.Is(err, ErrOverlayNotFound) ||
		errors.Is(err, ErrTemplateLoad) ||
		errors.Is(err, ErrTemplateRender) ||
		errors.Is(err, kustomize.ErrBuildFailed)
}
