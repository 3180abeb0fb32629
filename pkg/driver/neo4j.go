package driver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/soundprediction/go-graphkeeper/pkg/normalize"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// Neo4jConfig holds connection settings for a Neo4j backend.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jDriver implements GraphAPI directly against a Neo4j database. Graphs
// are scoped by a group_id property on nodes and relationships. Page tokens
// are stringified SKIP offsets; listings are ordered by uuid so offsets stay
// stable across pages of the same read.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j backend.
func NewNeo4jDriver(cfg Neo4jConfig) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	return &Neo4jDriver{client: client, database: cfg.Database}, nil
}

// ListNodes returns one page of nodes for the graph.
func (n *Neo4jDriver) ListNodes(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Node, string, error) {
	offset, err := parseOffset(pageToken)
	if err != nil {
		return nil, "", err
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (n {group_id: $graph_id})
			RETURN n
			ORDER BY n.uuid
			SKIP $skip LIMIT $limit
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"graph_id": graphID,
			"skip":     offset,
			"limit":    limit,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list nodes: %w", err)
	}

	records := result.([]*neo4j.Record)
	nodes := make([]*types.Node, 0, len(records))
	for _, record := range records {
		value, found := record.Get("n")
		if !found {
			continue
		}
		dbNode, ok := value.(dbtype.Node)
		if !ok {
			continue
		}
		nodes = append(nodes, &types.Node{
			UUID:       normalize.String(dbNode.Props, "uuid", ""),
			Name:       normalize.String(dbNode.Props, "name", ""),
			Labels:     dbNode.Labels,
			Attributes: nodeAttributes(dbNode.Props),
			CreatedAt:  propTime(dbNode.Props, "created_at"),
		})
	}
	return nodes, nextOffset(offset, len(nodes), limit), nil
}

// ListEdges returns one page of relationships for the graph.
func (n *Neo4jDriver) ListEdges(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Edge, string, error) {
	offset, err := parseOffset(pageToken)
	if err != nil {
		return nil, "", err
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a)-[e {group_id: $graph_id}]->(b)
			RETURN e, a.uuid AS source_uuid, b.uuid AS target_uuid
			ORDER BY e.uuid
			SKIP $skip LIMIT $limit
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"graph_id": graphID,
			"skip":     offset,
			"limit":    limit,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list edges: %w", err)
	}

	records := result.([]*neo4j.Record)
	edges := make([]*types.Edge, 0, len(records))
	for _, record := range records {
		value, found := record.Get("e")
		if !found {
			continue
		}
		rel, ok := value.(dbtype.Relationship)
		if !ok {
			continue
		}
		source, _ := record.Get("source_uuid")
		target, _ := record.Get("target_uuid")
		edge := &types.Edge{
			UUID:       normalize.String(rel.Props, "uuid", ""),
			Fact:       normalize.String(rel.Props, "fact", rel.Type),
			Attributes: nodeAttributes(rel.Props),
			CreatedAt:  propTime(rel.Props, "created_at"),
		}
		if s, ok := source.(string); ok {
			edge.SourceUUID = s
		} else {
			edge.SourceUUID = normalize.String(rel.Props, "source_uuid", "")
		}
		if t, ok := target.(string); ok {
			edge.TargetUUID = t
		} else {
			edge.TargetUUID = normalize.String(rel.Props, "target_uuid", "")
		}
		edges = append(edges, edge)
	}
	return edges, nextOffset(offset, len(edges), limit), nil
}

// DeleteNode removes a node and its incident relationships. DETACH DELETE
// makes the incident-edge fallback unnecessary on this backend.
func (n *Neo4jDriver) DeleteNode(ctx context.Context, uuid string) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n {uuid: $uuid})
			DETACH DELETE n
		`, map[string]any{"uuid": uuid})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted(), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", uuid, err)
	}
	if result.(int) == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEdge removes a relationship by uuid.
func (n *Neo4jDriver) DeleteEdge(ctx context.Context, uuid string) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH ()-[e {uuid: $uuid}]->()
			DELETE e
		`, map[string]any{"uuid": uuid})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().RelationshipsDeleted(), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete edge %s: %w", uuid, err)
	}
	if result.(int) == 0 {
		return ErrNotFound
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (n *Neo4jDriver) HealthCheck(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

// Close shuts down the underlying driver.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// nodeAttributes copies properties that are not already first-class fields.
func nodeAttributes(props map[string]any) map[string]interface{} {
	attrs := make(map[string]interface{})
	for k, v := range props {
		switch k {
		case "uuid", "name", "fact", "group_id", "created_at", "source_uuid", "target_uuid":
		default:
			attrs[k] = v
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func propTime(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case time.Time:
		return v
	case string:
		return parseTime(v)
	default:
		return time.Time{}
	}
}

func parseOffset(pageToken string) (int, error) {
	if pageToken == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(pageToken)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid page token %q", pageToken)
	}
	return offset, nil
}

// nextOffset returns the token for the following page, or "" on a short page.
func nextOffset(offset, got, limit int) string {
	if limit <= 0 || got < limit {
		return ""
	}
	return strconv.Itoa(offset + got)
}
