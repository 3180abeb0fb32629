package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// ToDuckDB exports the graph into a DuckDB database at dbPath: a nodes and
// an edges table plus a manifest row in exports. Rows for one export are
// written in a single transaction keyed by export id, so repeated exports
// into the same file accumulate auditable generations.
func (e *Exporter) ToDuckDB(ctx context.Context, graphID, dbPath string, keepPartial bool) error {
	snap, fetchErr := e.fetch(ctx, graphID, keepPartial)
	if snap == nil {
		return fetchErr
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()

	if err := createExportTables(ctx, db); err != nil {
		return err
	}

	exportID := uuid.NewString()
	if err := writeSnapshot(ctx, db, exportID, snap); err != nil {
		return err
	}

	e.logger.Info("exported graph snapshot to duckdb",
		"graph_id", graphID, "path", dbPath, "export_id", exportID,
		"nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return fetchErr
}

func createExportTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exports (
			id VARCHAR PRIMARY KEY,
			graph_id VARCHAR,
			exported_at TIMESTAMP,
			node_count INTEGER,
			edge_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			export_id VARCHAR,
			uuid VARCHAR,
			name VARCHAR,
			labels JSON,
			attributes JSON,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			export_id VARCHAR,
			uuid VARCHAR,
			source_uuid VARCHAR,
			target_uuid VARCHAR,
			fact VARCHAR,
			attributes JSON,
			created_at TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create export tables: %w", err)
		}
	}
	return nil
}

func writeSnapshot(ctx context.Context, db *sql.DB, exportID string, snap *types.Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin export transaction: %w", err)
	}
	defer tx.Rollback()

	for _, n := range snap.Nodes {
		labels, err := json.Marshal(n.Labels)
		if err != nil {
			return fmt.Errorf("failed to marshal labels for node %s: %w", n.UUID, err)
		}
		attrs, err := json.Marshal(n.Attributes)
		if err != nil {
			return fmt.Errorf("failed to marshal attributes for node %s: %w", n.UUID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO nodes (export_id, uuid, name, labels, attributes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			exportID, n.UUID, n.Name, string(labels), string(attrs), nullableTime(n.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.UUID, err)
		}
	}

	for _, edge := range snap.Edges {
		attrs, err := json.Marshal(edge.Attributes)
		if err != nil {
			return fmt.Errorf("failed to marshal attributes for edge %s: %w", edge.UUID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO edges (export_id, uuid, source_uuid, target_uuid, fact, attributes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			exportID, edge.UUID, edge.SourceUUID, edge.TargetUUID, edge.Fact, string(attrs), nullableTime(edge.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert edge %s: %w", edge.UUID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO exports (id, graph_id, exported_at, node_count, edge_count)
		 VALUES (?, ?, ?, ?, ?)`,
		exportID, snap.GraphID, snap.FetchedAt, len(snap.Nodes), len(snap.Edges))
	if err != nil {
		return fmt.Errorf("failed to insert export manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
