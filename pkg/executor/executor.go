// Package executor drives guarded batch deletion: preview, confirmation,
// sequential execution with per-item failure isolation, and an outcome
// summary. Deletions are irreversible and the remote store has no
// transactions, so the gate is the safety mechanism, not rollback.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/go-graphkeeper/pkg/graph"
)

// State is the batch lifecycle state.
type State string

const (
	StatePlanned   State = "PLANNED"
	StateConfirmed State = "CONFIRMED"
	StateExecuting State = "EXECUTING"
	StateCompleted State = "COMPLETED"
	StatePartial   State = "PARTIAL"
	StateAborted   State = "ABORTED"
)

// Kind selects which delete operation a batch performs.
type Kind string

const (
	KindNode Kind = "node"
	KindEdge Kind = "edge"
)

// maxExamples caps how many candidates the confirmation prompt shows.
const maxExamples = 5

// Candidate is one item slated for deletion.
type Candidate struct {
	UUID  string
	Label string
}

// Failure records a per-item deletion failure.
type Failure struct {
	UUID   string `json:"uuid"`
	Reason string `json:"reason"`
}

// Summary is the full result of a batch, returned regardless of terminal
// state. Already-succeeded deletions are never rolled back.
type Summary struct {
	State     State     `json:"state"`
	Kind      Kind      `json:"kind"`
	Requested int       `json:"requested"`
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Deleter is the slice of the graph client adapter the executor needs.
type Deleter interface {
	DeleteNode(ctx context.Context, graphID, uuid string) graph.Outcome
	DeleteEdge(ctx context.Context, uuid string) graph.Outcome
	HealthCheck(ctx context.Context) error
}

// Confirmer asks the user whether to proceed with a batch. examples holds at
// most five candidates; omitted is how many more the batch contains.
type Confirmer interface {
	Confirm(kind Kind, total int, examples []Candidate, omitted int) (bool, error)
}

// Executor runs guarded deletion batches.
type Executor struct {
	deleter   Deleter
	confirmer Confirmer
	logger    *slog.Logger
}

// New creates an executor.
func New(deleter Deleter, confirmer Confirmer, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{deleter: deleter, confirmer: confirmer, logger: logger}
}

// Run executes one batch over the candidate set. The state machine is
// PLANNED -> CONFIRMED -> EXECUTING -> {COMPLETED | PARTIAL | ABORTED}.
// Declining the confirmation aborts with zero mutations. Execution is
// sequential and continues past individual failures; cancellation is
// checked between items only, an in-flight delete finishes and its outcome
// is recorded.
func (e *Executor) Run(ctx context.Context, graphID string, kind Kind, candidates []Candidate, skipConfirm bool) (*Summary, error) {
	summary := &Summary{
		State:     StatePlanned,
		Kind:      kind,
		Requested: len(candidates),
		Succeeded: []string{},
		Failed:    []Failure{},
	}

	if len(candidates) == 0 {
		summary.State = StateCompleted
		return summary, nil
	}

	if err := e.deleter.HealthCheck(ctx); err != nil {
		summary.State = StateAborted
		return summary, fmt.Errorf("health check failed, aborting before any mutation: %w", err)
	}

	if !skipConfirm {
		examples := candidates
		if len(examples) > maxExamples {
			examples = examples[:maxExamples]
		}
		ok, err := e.confirmer.Confirm(kind, len(candidates), examples, len(candidates)-len(examples))
		if err != nil {
			summary.State = StateAborted
			return summary, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			e.logger.Info("deletion declined by user", "kind", kind, "candidates", len(candidates))
			summary.State = StateAborted
			return summary, nil
		}
	}
	summary.State = StateConfirmed

	summary.State = StateExecuting
	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("batch cancelled", "kind", kind, "done", i, "remaining", len(candidates)-i)
			summary.State = terminalState(summary, true)
			return summary, err
		}

		var outcome graph.Outcome
		switch kind {
		case KindNode:
			outcome = e.deleter.DeleteNode(ctx, graphID, cand.UUID)
		case KindEdge:
			outcome = e.deleter.DeleteEdge(ctx, cand.UUID)
		default:
			summary.State = StateAborted
			return summary, fmt.Errorf("unknown candidate kind %q", kind)
		}

		if outcome.Succeeded() {
			summary.Succeeded = append(summary.Succeeded, cand.UUID)
			e.logger.Info("deleted item",
				"kind", kind, "uuid", cand.UUID, "progress", fmt.Sprintf("%d/%d", i+1, len(candidates)))
		} else {
			summary.Failed = append(summary.Failed, Failure{UUID: cand.UUID, Reason: outcome.Reason})
			e.logger.Error("failed to delete item",
				"kind", kind, "uuid", cand.UUID, "reason", outcome.Reason)
		}
	}

	summary.State = terminalState(summary, false)
	return summary, nil
}

// terminalState picks the final state. A cancelled batch that mutated
// nothing is ABORTED; once anything succeeded or failed the result is
// PARTIAL unless every item went through.
func terminalState(s *Summary, cancelled bool) State {
	done := len(s.Succeeded) + len(s.Failed)
	switch {
	case cancelled && done == 0:
		return StateAborted
	case len(s.Failed) == 0 && done == s.Requested:
		return StateCompleted
	default:
		return StatePartial
	}
}
