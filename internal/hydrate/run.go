package hydrate

import (
	"context"
	"log/slog"

	"github.com/cameronsjo/stevedore/internal/fleet"
)

// Summary accumulates the outcome of a batch run in processing order.
type Summary struct {
	Results []Outcome
}

// Hydrated counts successfully built clusters.
func (s *Summary) Hydrated() int { return s.count(StatusHydrated) }

// Skipped counts clusters dropped for recoverable reasons.
func (s *Summary) Skipped() int { return s.count(StatusSkipped) }

// Failed counts fatal outcomes; at most one, since the batch stops there.
func (s *Summary) Failed() int { return s.count(StatusAborted) }

func (s *Summary) count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Runner drives the hydration pipeline across a selection of clusters,
// strictly sequentially. Every cluster gets a fresh workspace that is
// destroyed before the next one begins, on every exit path.
type Runner struct {
	processor  *Processor
	workspaces *WorkspaceFactory
	logger     *slog.Logger
}

// NewRunner wires a Runner.
func NewRunner(processor *Processor, workspaces *WorkspaceFactory, logger *slog.Logger) *Runner {
	return &Runner{processor: processor, workspaces: workspaces, logger: logger}
}

// Run processes records in order. Recoverable problems skip the cluster
// and continue; a fatal outcome stops the batch and is returned alongside
// the summary of everything attempted up to that point.
func (r *Runner) Run(ctx context.Context, records []*fleet.Record) (*Summary, error) {
	summary := &Summary{}

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			r.logger.Warn("skipping cluster", "cluster", rec.Name, "reason", err)
			summary.Results = append(summary.Results, Outcome{
				Cluster: rec.Name,
				Status:  StatusSkipped,
				Err:     err,
			})
			continue
		}

		outcome, err := r.runOne(ctx, rec)
		summary.Results = append(summary.Results, outcome)
		if err != nil {
			r.logger.Error("stopping batch", "cluster", rec.Name, "error", err)
			return summary, err
		}
	}

	r.logger.Info("batch complete",
		"hydrated", summary.Hydrated(),
		"skipped", summary.Skipped(),
	)
	return summary, nil
}

// runOne hydrates a single cluster inside its own workspace. The deferred
// release is the isolation guarantee: success, skip, and abort all tear
// the workspace down before the next cluster can see it.
func (r *Runner) runOne(ctx context.Context, rec *fleet.Record) (Outcome, error) {
	ws, err := r.workspaces.Acquire()
	if err != nil {
		return Outcome{Cluster: rec.Name, Status: StatusAborted, Err: err}, err
	}
	defer func() {
		if err := ws.Release(); err != nil {
			r.logger.Warn("workspace cleanup failed", "cluster", rec.Name, "error", err)
		}
	}()

	outcome := r.processor.Process(ctx, rec, ws)
	if outcome.Status == StatusAborted {
		return outcome, outcome.Err
	}
	return outcome, nil
}
