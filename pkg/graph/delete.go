package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/soundprediction/go-graphkeeper/pkg/driver"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// Status classifies the result of a delete operation.
type Status string

const (
	// StatusSuccess means the item was deleted.
	StatusSuccess Status = "SUCCESS"
	// StatusNotFound means the item was already gone. Deletes are
	// idempotent, so this counts as success.
	StatusNotFound Status = "NOT_FOUND"
	// StatusFailed means the item could not be deleted.
	StatusFailed Status = "FAILED"
)

// Outcome is the result of a single delete operation. EdgesRemoved counts
// incident edges removed during the node-delete fallback, so callers can
// report partial progress even when the node itself survived.
type Outcome struct {
	Status       Status
	Reason       string
	EdgesRemoved int
}

// Succeeded reports whether the item is gone, by this call or an earlier one.
func (o Outcome) Succeeded() bool {
	return o.Status != StatusFailed
}

// DeleteEdge deletes an edge by UUID. A 404 from the backend maps to
// StatusNotFound.
func (c *Client) DeleteEdge(ctx context.Context, uuid string) Outcome {
	err := c.retry(ctx, func(callCtx context.Context) error {
		return c.api.DeleteEdge(callCtx, uuid)
	})
	return outcomeFor(err)
}

// DeleteNode deletes a node by UUID. If the backend rejects direct node
// deletion as unsupported, it falls back to deleting the node's incident
// edges one by one and retrying the node delete. The fallback is a sequence
// of independent compensating steps, not a transaction: a Failed outcome
// still reports how many edges were removed along the way.
func (c *Client) DeleteNode(ctx context.Context, graphID, uuid string) Outcome {
	err := c.retry(ctx, func(callCtx context.Context) error {
		return c.api.DeleteNode(callCtx, uuid)
	})
	if !errors.Is(err, driver.ErrUnsupported) {
		return outcomeFor(err)
	}

	c.logger.Warn("direct node deletion unsupported, removing incident edges first",
		"node_uuid", uuid)

	removed, sweepErr := c.deleteIncidentEdges(ctx, graphID, uuid)
	if sweepErr != nil {
		return Outcome{
			Status:       StatusFailed,
			Reason:       fmt.Sprintf("incident edge sweep failed: %v", sweepErr),
			EdgesRemoved: removed,
		}
	}

	err = c.retry(ctx, func(callCtx context.Context) error {
		return c.api.DeleteNode(callCtx, uuid)
	})
	out := outcomeFor(err)
	out.EdgesRemoved = removed
	if out.Status == StatusFailed {
		out.Reason = fmt.Sprintf("node deletion failed after removing %d incident edges: %s", removed, out.Reason)
	}
	return out
}

// deleteIncidentEdges lists the graph's edges and deletes the ones touching
// uuid. Returns the number successfully removed; stops at the first listing
// failure, since an incomplete sweep cannot unblock the node delete anyway.
func (c *Client) deleteIncidentEdges(ctx context.Context, graphID, uuid string) (int, error) {
	var incident []*types.Edge
	if err := c.EachEdge(ctx, graphID, func(e *types.Edge) error {
		if e.SourceUUID == uuid || e.TargetUUID == uuid {
			incident = append(incident, e)
		}
		return nil
	}); err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range incident {
		out := c.DeleteEdge(ctx, e.UUID)
		if !out.Succeeded() {
			return removed, fmt.Errorf("failed to delete incident edge %s: %s", e.UUID, out.Reason)
		}
		removed++
	}
	return removed, nil
}

func outcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Status: StatusSuccess}
	case driver.IsNotFound(err):
		return Outcome{Status: StatusNotFound}
	default:
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
}
