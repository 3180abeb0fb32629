package types

import (
	"time"
)

// Node represents a node observed in a remote knowledge graph. Nodes are
// created and owned by the remote store; this tool only reads or deletes them.
type Node struct {
	UUID       string                 `json:"uuid"`
	Name       string                 `json:"name"`
	Labels     []string               `json:"labels,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt  time.Time              `json:"created_at,omitempty"`
}

// Edge represents a directed relation between two node UUIDs. The endpoints
// may or may not resolve to live nodes at observation time.
type Edge struct {
	UUID       string                 `json:"uuid"`
	SourceUUID string                 `json:"source_uuid"`
	TargetUUID string                 `json:"target_uuid"`
	Fact       string                 `json:"fact,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt  time.Time              `json:"created_at,omitempty"`
}

// Snapshot is an immutable point-in-time view of a graph, built by a full
// paginated read. Node and edge order matches the order the remote returned
// them in. After any deletion a snapshot is stale; classifications derived
// from it must be recomputed from a fresh fetch.
type Snapshot struct {
	GraphID   string    `json:"graph_id"`
	Nodes     []*Node   `json:"nodes"`
	Edges     []*Edge   `json:"edges"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NodeUUIDs returns the set of node UUIDs present in the snapshot.
func (s *Snapshot) NodeUUIDs() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.UUID != "" {
			set[n.UUID] = struct{}{}
		}
	}
	return set
}

// Label returns a short human-readable identifier for the node, used when
// listing deletion candidates.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.UUID
}

// Label returns a short human-readable identifier for the edge.
func (e *Edge) Label() string {
	if e.Fact != "" {
		return e.Fact
	}
	return e.SourceUUID + " -> " + e.TargetUUID
}
