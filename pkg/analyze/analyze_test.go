package analyze_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-graphkeeper/pkg/analyze"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

func node(id string) *types.Node {
	return &types.Node{UUID: id, Name: "node " + id}
}

func edge(id, source, target string) *types.Edge {
	return &types.Edge{UUID: id, SourceUUID: source, TargetUUID: target}
}

func snapshot(nodes []*types.Node, edges []*types.Edge) *types.Snapshot {
	return &types.Snapshot{
		GraphID:   "test-graph",
		Nodes:     nodes,
		Edges:     edges,
		FetchedAt: time.Now(),
	}
}

func uuids(items interface{}) []string {
	switch v := items.(type) {
	case []*types.Node:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = n.UUID
		}
		return out
	case []*types.Edge:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = e.UUID
		}
		return out
	}
	return nil
}

func TestAnalyzeReferencedNodesWithDanglingSource(t *testing.T) {
	// Nodes {A,B,C}, edges {(A->B), (X->C)} with X undefined: nobody is
	// isolated (A referenced as source, B and C as targets), and (X->C)
	// dangles because X is missing.
	snap := snapshot(
		[]*types.Node{node("A"), node("B"), node("C")},
		[]*types.Edge{edge("e1", "A", "B"), edge("e2", "X", "C")},
	)

	report := analyze.Analyze(snap)

	assert.Empty(t, report.IsolatedNodes)
	assert.Equal(t, []string{"e2"}, uuids(report.DanglingEdges))
	assert.False(t, report.HasNode("X"))
	assert.True(t, report.HasNode("C"))
}

func TestAnalyzeAllNodesIsolatedWhenNoEdges(t *testing.T) {
	snap := snapshot([]*types.Node{node("A"), node("B")}, nil)

	report := analyze.Analyze(snap)

	assert.Equal(t, []string{"A", "B"}, uuids(report.IsolatedNodes))
	assert.Empty(t, report.DanglingEdges)
}

func TestAnalyzeSelfLoopIsNotIsolated(t *testing.T) {
	snap := snapshot(
		[]*types.Node{node("X"), node("Y")},
		[]*types.Edge{edge("loop", "X", "X")},
	)

	report := analyze.Analyze(snap)

	assert.Equal(t, []string{"Y"}, uuids(report.IsolatedNodes), "self-loop references X, only Y is isolated")
	assert.Empty(t, report.DanglingEdges)
}

func TestAnalyzeBothEndpointsMissing(t *testing.T) {
	snap := snapshot(
		[]*types.Node{node("A")},
		[]*types.Edge{edge("e1", "gone-1", "gone-2")},
	)

	report := analyze.Analyze(snap)

	assert.Equal(t, []string{"e1"}, uuids(report.DanglingEdges))
	assert.Equal(t, []string{"A"}, uuids(report.IsolatedNodes))
}

func TestAnalyzeEmptySnapshot(t *testing.T) {
	report := analyze.Analyze(snapshot(nil, nil))

	assert.NotNil(t, report.IsolatedNodes)
	assert.NotNil(t, report.DanglingEdges)
	assert.Empty(t, report.IsolatedNodes)
	assert.Empty(t, report.DanglingEdges)
}

func TestAnalyzeOutputOrderMatchesSnapshotOrder(t *testing.T) {
	// Deliberately unsorted input; output must preserve it, not sort it.
	snap := snapshot(
		[]*types.Node{node("zz"), node("mm"), node("aa")},
		[]*types.Edge{edge("e3", "q1", "q2"), edge("e1", "q3", "q4")},
	)

	report := analyze.Analyze(snap)

	assert.Equal(t, []string{"zz", "mm", "aa"}, uuids(report.IsolatedNodes))
	assert.Equal(t, []string{"e3", "e1"}, uuids(report.DanglingEdges))
}

// naiveAnalyze is the O(N*E) reference implementation used to cross-check
// the single-pass classifier on random graphs.
func naiveAnalyze(snap *types.Snapshot) (isolated []string, dangling []string) {
	for _, n := range snap.Nodes {
		referenced := false
		for _, e := range snap.Edges {
			if e.SourceUUID == n.UUID || e.TargetUUID == n.UUID {
				referenced = true
				break
			}
		}
		if !referenced {
			isolated = append(isolated, n.UUID)
		}
	}
	for _, e := range snap.Edges {
		sourceExists, targetExists := false, false
		for _, n := range snap.Nodes {
			if n.UUID == e.SourceUUID {
				sourceExists = true
			}
			if n.UUID == e.TargetUUID {
				targetExists = true
			}
		}
		if !sourceExists || !targetExists {
			dangling = append(dangling, e.UUID)
		}
	}
	return isolated, dangling
}

func TestAnalyzeMatchesNaiveReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		t.Run(fmt.Sprintf("trial_%d", trial), func(t *testing.T) {
			nodeCount := 1 + rng.Intn(200)
			nodes := make([]*types.Node, nodeCount)
			nodeIDs := make([]string, nodeCount)
			for i := range nodes {
				nodeIDs[i] = uuid.NewString()
				nodes[i] = node(nodeIDs[i])
			}

			edgeCount := rng.Intn(400)
			edges := make([]*types.Edge, edgeCount)
			for i := range edges {
				// Roughly one in five endpoints references a missing node.
				pickEndpoint := func() string {
					if rng.Intn(5) == 0 {
						return uuid.NewString()
					}
					return nodeIDs[rng.Intn(nodeCount)]
				}
				edges[i] = edge(uuid.NewString(), pickEndpoint(), pickEndpoint())
			}

			snap := snapshot(nodes, edges)
			report := analyze.Analyze(snap)
			wantIsolated, wantDangling := naiveAnalyze(snap)

			require.ElementsMatch(t, wantIsolated, uuids(report.IsolatedNodes))
			require.ElementsMatch(t, wantDangling, uuids(report.DanglingEdges))
		})
	}
}
