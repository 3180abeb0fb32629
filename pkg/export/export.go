// Package export serializes full graph snapshots for backup and audit. It
// performs no mutation. Files are written atomically (temp file then rename)
// so a failed export never leaves a partially written file at the target
// path.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/soundprediction/go-graphkeeper/pkg/graph"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// Export is the persisted snapshot structure.
type Export struct {
	GraphID    string        `json:"graph_id"`
	ExportedAt time.Time     `json:"exported_at"`
	Nodes      []*types.Node `json:"nodes"`
	Edges      []*types.Edge `json:"edges"`
}

// Fetcher is the slice of the graph client adapter the exporter needs.
type Fetcher interface {
	Snapshot(ctx context.Context, graphID string) (*types.Snapshot, error)
}

// Exporter fetches snapshots and writes them to a sink.
type Exporter struct {
	client Fetcher
	logger *slog.Logger
}

// New creates an exporter.
func New(client Fetcher, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{client: client, logger: logger}
}

// fetch retrieves the snapshot. On a mid-fetch failure it reports how much
// was collected and propagates the failure; the truncated snapshot is
// returned only when the caller explicitly asked to keep partial output.
func (e *Exporter) fetch(ctx context.Context, graphID string, keepPartial bool) (*types.Snapshot, error) {
	snap, err := e.client.Snapshot(ctx, graphID)
	if err == nil {
		return snap, nil
	}

	var fetchErr *graph.FetchError
	if errors.As(err, &fetchErr) {
		e.logger.Error("snapshot fetch failed mid-read",
			"graph_id", graphID,
			"nodes_collected", fetchErr.NodesFetched,
			"edges_collected", fetchErr.EdgesFetched)
	}
	if keepPartial && snap != nil {
		return snap, err
	}
	return nil, err
}

// ToJSON exports the graph to a JSON file at path. With keepPartial set, a
// mid-fetch failure still writes whatever was collected and then returns the
// fetch error.
func (e *Exporter) ToJSON(ctx context.Context, graphID, path string, keepPartial bool) error {
	snap, fetchErr := e.fetch(ctx, graphID, keepPartial)
	if snap == nil {
		return fetchErr
	}

	out := &Export{
		GraphID:    snap.GraphID,
		ExportedAt: snap.FetchedAt,
		Nodes:      snap.Nodes,
		Edges:      snap.Edges,
	}
	if out.Nodes == nil {
		out.Nodes = []*types.Node{}
	}
	if out.Edges == nil {
		out.Edges = []*types.Edge{}
	}

	if err := writeJSONAtomic(path, out); err != nil {
		return err
	}

	e.logger.Info("exported graph snapshot",
		"graph_id", graphID, "path", path, "nodes", len(out.Nodes), "edges", len(out.Edges))
	return fetchErr
}

// writeJSONAtomic writes v as JSON via a temp file in the target directory
// followed by a rename. The temp file lives next to the target so the rename
// stays on one filesystem.
func writeJSONAtomic(path string, v interface{}) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".export-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp export file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}

// ReadJSON parses an export file back into memory, for verification and
// round-trip tests.
func ReadJSON(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	var out Export
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}
	return &out, nil
}
