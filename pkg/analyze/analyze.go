// Package analyze classifies structural anomalies in a graph snapshot:
// isolated nodes (referenced by no edge) and dangling edges (referencing at
// least one missing node). The computation is pure and works only on the
// snapshot it is given; after any deletion the classification is stale and
// must be recomputed from a fresh fetch.
package analyze

import (
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// Report holds the anomalies found in one snapshot. Slice order matches
// snapshot order.
type Report struct {
	GraphID       string        `json:"graph_id"`
	NodeCount     int           `json:"node_count"`
	EdgeCount     int           `json:"edge_count"`
	IsolatedNodes []*types.Node `json:"isolated_nodes"`
	DanglingEdges []*types.Edge `json:"dangling_edges"`

	nodeUUIDs map[string]struct{}
}

// HasNode reports whether the snapshot contained a node with the given UUID.
// Used to show per-endpoint existence for dangling edges.
func (r *Report) HasNode(uuid string) bool {
	_, ok := r.nodeUUIDs[uuid]
	return ok
}

// Analyze scans the snapshot once: O(N) to build the node UUID set, O(E) to
// record edge endpoints, then one pass over nodes to pick the unreferenced
// ones. A self-loop references its node, so that node is not isolated. An
// edge is dangling when either endpoint (or both) is absent from the node
// set.
func Analyze(snap *types.Snapshot) *Report {
	report := &Report{
		GraphID:       snap.GraphID,
		NodeCount:     len(snap.Nodes),
		EdgeCount:     len(snap.Edges),
		IsolatedNodes: []*types.Node{},
		DanglingEdges: []*types.Edge{},
		nodeUUIDs:     snap.NodeUUIDs(),
	}

	referenced := make(map[string]struct{}, len(snap.Edges)*2)
	for _, e := range snap.Edges {
		if e.SourceUUID != "" {
			referenced[e.SourceUUID] = struct{}{}
		}
		if e.TargetUUID != "" {
			referenced[e.TargetUUID] = struct{}{}
		}

		_, sourceOK := report.nodeUUIDs[e.SourceUUID]
		_, targetOK := report.nodeUUIDs[e.TargetUUID]
		if !sourceOK || !targetOK {
			report.DanglingEdges = append(report.DanglingEdges, e)
		}
	}

	for _, n := range snap.Nodes {
		if n.UUID == "" {
			continue
		}
		if _, ok := referenced[n.UUID]; !ok {
			report.IsolatedNodes = append(report.IsolatedNodes, n)
		}
	}

	return report
}
