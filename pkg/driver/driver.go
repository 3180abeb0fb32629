package driver

import (
	"context"

	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// GraphAPI is the page-level surface of a remote knowledge graph. It maps
// one call to one remote operation: implementations do not paginate, retry
// or interpret outcomes beyond classifying errors. The adapter in pkg/graph
// layers those policies on top.
type GraphAPI interface {
	// ListNodes returns one page of nodes for the graph plus the token for
	// the next page. An empty token means the listing is exhausted. Tokens
	// are opaque and owned by the backend.
	ListNodes(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Node, string, error)

	// ListEdges returns one page of edges, same contract as ListNodes.
	ListEdges(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Edge, string, error)

	// DeleteNode deletes a node by UUID. Returns ErrNotFound if the node is
	// already gone and ErrUnsupported if the backend rejects direct node
	// deletion.
	DeleteNode(ctx context.Context, uuid string) error

	// DeleteEdge deletes an edge by UUID. Returns ErrNotFound if the edge is
	// already gone.
	DeleteEdge(ctx context.Context, uuid string) error

	// HealthCheck probes the backend. A non-nil error means the backend is
	// unfit for a batch operation.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
