package graph_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-graphkeeper/pkg/driver"
	"github.com/soundprediction/go-graphkeeper/pkg/graph"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// fakeAPI is an in-memory driver.GraphAPI with scriptable failures.
type fakeAPI struct {
	nodes []*types.Node
	edges []*types.Edge

	// listNodeErrs/listEdgeErrs are consumed one per call before the
	// listing succeeds.
	listNodeErrs []error
	listEdgeErrs []error

	// nodeDeleteUnsupported makes DeleteNode fail with ErrUnsupported while
	// the node still has incident edges.
	nodeDeleteUnsupported bool
	// nodeDeleteAlwaysFails keeps node deletion failing even after the
	// incident edge sweep.
	nodeDeleteAlwaysFails bool

	healthErr error

	listNodeCalls int
	listEdgeCalls int
	deletedNodes  []string
	deletedEdges  []string
}

func (f *fakeAPI) ListNodes(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Node, string, error) {
	f.listNodeCalls++
	if len(f.listNodeErrs) > 0 {
		err := f.listNodeErrs[0]
		f.listNodeErrs = f.listNodeErrs[1:]
		return nil, "", err
	}
	return pageOf(f.nodes, pageToken, limit)
}

func (f *fakeAPI) ListEdges(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Edge, string, error) {
	f.listEdgeCalls++
	if len(f.listEdgeErrs) > 0 {
		err := f.listEdgeErrs[0]
		f.listEdgeErrs = f.listEdgeErrs[1:]
		return nil, "", err
	}
	return pageOf(f.edges, pageToken, limit)
}

func pageOf[T any](items []T, pageToken string, limit int) ([]T, string, error) {
	offset := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "%d", &offset)
	}
	if offset >= len(items) {
		return nil, "", nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	next := ""
	if end < len(items) {
		next = fmt.Sprintf("%d", end)
	}
	return items[offset:end], next, nil
}

func (f *fakeAPI) DeleteNode(ctx context.Context, uuid string) error {
	if f.nodeDeleteUnsupported && f.hasIncidentEdges(uuid) {
		return driver.ErrUnsupported
	}
	if f.nodeDeleteAlwaysFails {
		return &driver.APIError{Status: 422, Message: "node is pinned"}
	}
	for i, n := range f.nodes {
		if n.UUID == uuid {
			f.nodes = append(f.nodes[:i], f.nodes[i+1:]...)
			f.deletedNodes = append(f.deletedNodes, uuid)
			return nil
		}
	}
	return driver.ErrNotFound
}

func (f *fakeAPI) DeleteEdge(ctx context.Context, uuid string) error {
	for i, e := range f.edges {
		if e.UUID == uuid {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			f.deletedEdges = append(f.deletedEdges, uuid)
			return nil
		}
	}
	return driver.ErrNotFound
}

func (f *fakeAPI) hasIncidentEdges(uuid string) bool {
	for _, e := range f.edges {
		if e.SourceUUID == uuid || e.TargetUUID == uuid {
			return true
		}
	}
	return false
}

func (f *fakeAPI) HealthCheck(ctx context.Context) error { return f.healthErr }
func (f *fakeAPI) Close(ctx context.Context) error       { return nil }

func testOptions() graph.Options {
	return graph.Options{
		PageSize:       100,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		CallTimeout:    time.Second,
	}
}

func makeNodes(n int) []*types.Node {
	nodes := make([]*types.Node, n)
	for i := range nodes {
		nodes[i] = &types.Node{UUID: fmt.Sprintf("node-%03d", i)}
	}
	return nodes
}

func TestSnapshotPaginatesUntilShortPage(t *testing.T) {
	api := &fakeAPI{nodes: makeNodes(250)}
	client := graph.NewClient(api, testOptions(), nil)

	snap, err := client.Snapshot(context.Background(), "g1")
	require.NoError(t, err)

	assert.Len(t, snap.Nodes, 250)
	assert.Equal(t, 3, api.listNodeCalls, "250 items at page size 100 is three pages")
	assert.Equal(t, "g1", snap.GraphID)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestSnapshotPreservesRemoteOrder(t *testing.T) {
	api := &fakeAPI{nodes: []*types.Node{
		{UUID: "zz"}, {UUID: "aa"}, {UUID: "mm"},
	}}
	client := graph.NewClient(api, testOptions(), nil)

	snap, err := client.Snapshot(context.Background(), "g1")
	require.NoError(t, err)

	got := []string{snap.Nodes[0].UUID, snap.Nodes[1].UUID, snap.Nodes[2].UUID}
	assert.Equal(t, []string{"zz", "aa", "mm"}, got)
}

func TestSnapshotRetriesTransientListFailures(t *testing.T) {
	api := &fakeAPI{
		nodes: makeNodes(5),
		listNodeErrs: []error{
			&driver.APIError{Status: 503},
			&driver.APIError{Status: 500},
		},
	}
	client := graph.NewClient(api, testOptions(), nil)

	snap, err := client.Snapshot(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 5)
	assert.Equal(t, 3, api.listNodeCalls, "two transient failures then success")
}

func TestSnapshotDoesNotRetryClientErrors(t *testing.T) {
	api := &fakeAPI{
		nodes:        makeNodes(5),
		listNodeErrs: []error{&driver.APIError{Status: 400, Message: "bad cursor"}},
	}
	client := graph.NewClient(api, testOptions(), nil)

	_, err := client.Snapshot(context.Background(), "g1")
	require.Error(t, err)
	assert.Equal(t, 1, api.listNodeCalls, "4xx is permanent, no retry")
}

func TestSnapshotAuthFailureIsFatal(t *testing.T) {
	api := &fakeAPI{
		nodes:        makeNodes(5),
		listNodeErrs: []error{&driver.APIError{Status: 401}},
	}
	client := graph.NewClient(api, testOptions(), nil)

	_, err := client.Snapshot(context.Background(), "g1")
	require.Error(t, err)
	assert.Equal(t, 1, api.listNodeCalls)
}

func TestSnapshotReportsPartialProgressOnFailure(t *testing.T) {
	api := &fakeAPI{
		nodes:        makeNodes(7),
		edges:        []*types.Edge{{UUID: "e1", SourceUUID: "a", TargetUUID: "b"}},
		listEdgeErrs: []error{&driver.APIError{Status: 400}},
	}
	client := graph.NewClient(api, testOptions(), nil)

	snap, err := client.Snapshot(context.Background(), "g1")
	require.Error(t, err)

	var fetchErr *graph.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 7, fetchErr.NodesFetched)
	assert.Equal(t, 0, fetchErr.EdgesFetched)

	// The partial snapshot is still returned for callers that explicitly
	// want it (export --keep-partial).
	require.NotNil(t, snap)
	assert.Len(t, snap.Nodes, 7)
}

func TestDeleteEdgeOutcomes(t *testing.T) {
	api := &fakeAPI{edges: []*types.Edge{{UUID: "e1", SourceUUID: "a", TargetUUID: "b"}}}
	client := graph.NewClient(api, testOptions(), nil)
	ctx := context.Background()

	first := client.DeleteEdge(ctx, "e1")
	assert.Equal(t, graph.StatusSuccess, first.Status)
	assert.True(t, first.Succeeded())

	// Deleting again finds nothing; idempotent deletes count as success.
	second := client.DeleteEdge(ctx, "e1")
	assert.Equal(t, graph.StatusNotFound, second.Status)
	assert.True(t, second.Succeeded())
}

func TestDeleteNodeIdempotent(t *testing.T) {
	api := &fakeAPI{nodes: makeNodes(1)}
	client := graph.NewClient(api, testOptions(), nil)
	ctx := context.Background()

	first := client.DeleteNode(ctx, "g1", "node-000")
	require.Equal(t, graph.StatusSuccess, first.Status)

	second := client.DeleteNode(ctx, "g1", "node-000")
	assert.Equal(t, graph.StatusNotFound, second.Status)
	assert.True(t, second.Succeeded())
}

func TestDeleteNodeFallbackSweepsIncidentEdges(t *testing.T) {
	api := &fakeAPI{
		nodes: []*types.Node{{UUID: "n1"}, {UUID: "n2"}},
		edges: []*types.Edge{
			{UUID: "e1", SourceUUID: "n1", TargetUUID: "n2"},
			{UUID: "e2", SourceUUID: "n2", TargetUUID: "n1"},
			{UUID: "e3", SourceUUID: "n2", TargetUUID: "n2"},
		},
		nodeDeleteUnsupported: true,
	}
	client := graph.NewClient(api, testOptions(), nil)

	out := client.DeleteNode(context.Background(), "g1", "n1")

	assert.Equal(t, graph.StatusSuccess, out.Status)
	assert.Equal(t, 2, out.EdgesRemoved)
	assert.ElementsMatch(t, []string{"e1", "e2"}, api.deletedEdges, "only incident edges are swept")
	assert.Equal(t, []string{"n1"}, api.deletedNodes)
}

func TestDeleteNodeFallbackReportsPartialProgress(t *testing.T) {
	api := &fakeAPI{
		nodes: []*types.Node{{UUID: "n1"}},
		edges: []*types.Edge{
			{UUID: "e1", SourceUUID: "n1", TargetUUID: "x"},
		},
		nodeDeleteUnsupported: true,
		nodeDeleteAlwaysFails: true,
	}
	client := graph.NewClient(api, testOptions(), nil)

	out := client.DeleteNode(context.Background(), "g1", "n1")

	assert.Equal(t, graph.StatusFailed, out.Status)
	assert.Equal(t, 1, out.EdgesRemoved, "the swept edge is reported even though the node survived")
	assert.Contains(t, out.Reason, "node is pinned")
	assert.Contains(t, out.Reason, "1 incident edges")
	assert.Empty(t, api.deletedNodes)
}

func TestHealthCheck(t *testing.T) {
	healthy := graph.NewClient(&fakeAPI{}, testOptions(), nil)
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	sick := graph.NewClient(&fakeAPI{healthErr: &driver.APIError{Status: 400}}, testOptions(), nil)
	assert.Error(t, sick.HealthCheck(context.Background()))
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	api := &fakeAPI{
		nodes:        makeNodes(1),
		listNodeErrs: []error{&driver.APIError{Status: 500}, &driver.APIError{Status: 500}, &driver.APIError{Status: 500}},
	}
	client := graph.NewClient(api, testOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Snapshot(ctx, "g1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || api.listNodeCalls <= 3)
}
