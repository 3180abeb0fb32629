package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/go-graphkeeper/pkg/analyze"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// SnapshotFetcher is the read-only slice of the graph client adapter the
// report endpoints need.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context, graphID string) (*types.Snapshot, error)
}

// ReportHandler serves anomaly reports and graph stats.
type ReportHandler struct {
	client SnapshotFetcher
	logger *slog.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(client SnapshotFetcher, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{client: client, logger: logger}
}

// Anomalies handles GET /graphs/:graph_id/anomalies. Every request performs
// a fresh full read; reports are never served from a cached snapshot.
func (h *ReportHandler) Anomalies(c *gin.Context) {
	graphID := c.Param("graph_id")

	snap, err := h.client.Snapshot(c.Request.Context(), graphID)
	if err != nil {
		h.logger.Error("anomaly report fetch failed", "graph_id", graphID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analyze.Analyze(snap))
}

// Stats handles GET /graphs/:graph_id/stats.
func (h *ReportHandler) Stats(c *gin.Context) {
	graphID := c.Param("graph_id")

	snap, err := h.client.Snapshot(c.Request.Context(), graphID)
	if err != nil {
		h.logger.Error("stats fetch failed", "graph_id", graphID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"graph_id":   graphID,
		"node_count": len(snap.Nodes),
		"edge_count": len(snap.Edges),
		"fetched_at": snap.FetchedAt,
	})
}
