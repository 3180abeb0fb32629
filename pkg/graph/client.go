// Package graph wraps a driver.GraphAPI backend with the policies a
// maintenance run needs: transparent pagination into snapshots, bounded
// retry with exponential backoff, idempotent deletes, and the incident-edge
// fallback for backends that refuse direct node deletion.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/soundprediction/go-graphkeeper/pkg/driver"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// Options holds the adapter's tunables. They are threaded in explicitly so
// the adapter stays testable with fakes; nothing is read from ambient state.
type Options struct {
	// PageSize is the page size for list operations.
	PageSize int
	// MaxAttempts caps retries for a single remote call, first try included.
	MaxAttempts int
	// InitialBackoff is the starting delay between retries.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration
	// CallTimeout bounds each individual remote call, retries included.
	CallTimeout time.Duration
}

// DefaultOptions returns the adapter defaults.
func DefaultOptions() Options {
	return Options{
		PageSize:       100,
		MaxAttempts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		CallTimeout:    30 * time.Second,
	}
}

// Client is the graph client adapter.
type Client struct {
	api    driver.GraphAPI
	opts   Options
	logger *slog.Logger
}

// NewClient creates an adapter over the given backend.
func NewClient(api driver.GraphAPI, opts Options, logger *slog.Logger) *Client {
	def := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = def.InitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = def.MaxBackoff
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = def.CallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, opts: opts, logger: logger}
}

// FetchError reports how far a paginated read got before failing. A snapshot
// must be complete to be trusted, so read failures are fatal for the overall
// operation; the counts let the caller report partial progress.
type FetchError struct {
	NodesFetched int
	EdgesFetched int
	Err          error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("snapshot fetch failed after %d nodes and %d edges: %v",
		e.NodesFetched, e.EdgesFetched, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EachNode streams all nodes of the graph page by page, retrying each page
// read. Pagination stops at the first empty or short page.
func (c *Client) EachNode(ctx context.Context, graphID string, fn func(*types.Node) error) error {
	pageToken := ""
	for {
		var (
			page []*types.Node
			next string
		)
		err := c.retry(ctx, func(callCtx context.Context) error {
			var err error
			page, next, err = c.api.ListNodes(callCtx, graphID, pageToken, c.opts.PageSize)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}
		for _, n := range page {
			if err := fn(n); err != nil {
				return err
			}
		}
		if next == "" || len(page) < c.opts.PageSize {
			return nil
		}
		pageToken = next
	}
}

// EachEdge streams all edges of the graph, same contract as EachNode.
func (c *Client) EachEdge(ctx context.Context, graphID string, fn func(*types.Edge) error) error {
	pageToken := ""
	for {
		var (
			page []*types.Edge
			next string
		)
		err := c.retry(ctx, func(callCtx context.Context) error {
			var err error
			page, next, err = c.api.ListEdges(callCtx, graphID, pageToken, c.opts.PageSize)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to list edges: %w", err)
		}
		for _, e := range page {
			if err := fn(e); err != nil {
				return err
			}
		}
		if next == "" || len(page) < c.opts.PageSize {
			return nil
		}
		pageToken = next
	}
}

// Snapshot performs a full paginated read of the graph. On failure the
// returned error is a *FetchError and the returned snapshot holds whatever
// was collected before the failure, for callers that explicitly want the
// partial view; it must not drive classification.
func (c *Client) Snapshot(ctx context.Context, graphID string) (*types.Snapshot, error) {
	snap := &types.Snapshot{GraphID: graphID, FetchedAt: time.Now().UTC()}

	if err := c.EachNode(ctx, graphID, func(n *types.Node) error {
		snap.Nodes = append(snap.Nodes, n)
		return nil
	}); err != nil {
		return snap, &FetchError{NodesFetched: len(snap.Nodes), Err: err}
	}

	if err := c.EachEdge(ctx, graphID, func(e *types.Edge) error {
		snap.Edges = append(snap.Edges, e)
		return nil
	}); err != nil {
		return snap, &FetchError{NodesFetched: len(snap.Nodes), EdgesFetched: len(snap.Edges), Err: err}
	}

	c.logger.Info("fetched graph snapshot",
		"graph_id", graphID, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return snap, nil
}

// HealthCheck probes the backend before a batch operation.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.retry(ctx, func(callCtx context.Context) error {
		return c.api.HealthCheck(callCtx)
	})
}

// Close releases the backend.
func (c *Client) Close(ctx context.Context) error {
	return c.api.Close(ctx)
}

// retry runs op with a per-call timeout and bounded exponential backoff.
// Only transient failures are retried; fatal and permanent errors surface
// immediately.
func (c *Client) retry(ctx context.Context, op func(context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InitialBackoff
	policy.MaxInterval = c.opts.MaxBackoff

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()

		err := op(callCtx)
		if err == nil {
			return nil
		}
		if !driver.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		if attempt < c.opts.MaxAttempts {
			c.logger.Warn("transient remote failure, retrying",
				"attempt", attempt, "error", err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.opts.MaxAttempts-1)), ctx))
}
