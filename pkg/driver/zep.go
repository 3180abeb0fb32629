package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sony/gobreaker"

	"github.com/soundprediction/go-graphkeeper/pkg/normalize"
	"github.com/soundprediction/go-graphkeeper/pkg/types"
)

// ZepConfig holds connection settings for a Zep-style graph API.
type ZepConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ZepDriver implements GraphAPI against a Zep-style HTTP REST API. All calls
// pass through a circuit breaker so a flapping remote trips fast instead of
// hammering every item in a batch.
type ZepDriver struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewZepDriver creates a driver for the given endpoint.
func NewZepDriver(cfg ZepConfig, logger *slog.Logger) (*ZepDriver, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("zep base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("zep api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "zep",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &ZepDriver{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}, nil
}

// ListNodes returns one page of nodes for the graph.
func (d *ZepDriver) ListNodes(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Node, string, error) {
	env, err := d.listPage(ctx, fmt.Sprintf("/api/v2/graph/%s/nodes", url.PathEscape(graphID)), pageToken, limit)
	if err != nil {
		return nil, "", err
	}

	items := rawItems(env, "nodes")
	nodes := make([]*types.Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, decodeNode(item))
	}
	return nodes, normalize.String(env, "next_cursor", ""), nil
}

// ListEdges returns one page of edges for the graph.
func (d *ZepDriver) ListEdges(ctx context.Context, graphID, pageToken string, limit int) ([]*types.Edge, string, error) {
	env, err := d.listPage(ctx, fmt.Sprintf("/api/v2/graph/%s/edges", url.PathEscape(graphID)), pageToken, limit)
	if err != nil {
		return nil, "", err
	}

	items := rawItems(env, "edges")
	edges := make([]*types.Edge, 0, len(items))
	for _, item := range items {
		edges = append(edges, decodeEdge(item))
	}
	return edges, normalize.String(env, "next_cursor", ""), nil
}

// DeleteNode deletes a node by UUID. A 404 maps to ErrNotFound; 405 and 501
// map to ErrUnsupported so the adapter can run its incident-edge fallback.
func (d *ZepDriver) DeleteNode(ctx context.Context, uuid string) error {
	_, err := d.do(ctx, http.MethodDelete, "/api/v2/graph/node/"+url.PathEscape(uuid), nil)
	return err
}

// DeleteEdge deletes an edge by UUID.
func (d *ZepDriver) DeleteEdge(ctx context.Context, uuid string) error {
	_, err := d.do(ctx, http.MethodDelete, "/api/v2/graph/edge/"+url.PathEscape(uuid), nil)
	return err
}

// HealthCheck probes the API health endpoint.
func (d *ZepDriver) HealthCheck(ctx context.Context) error {
	_, err := d.do(ctx, http.MethodGet, "/api/v2/healthz", nil)
	return err
}

// Close is a no-op for the HTTP backend.
func (d *ZepDriver) Close(ctx context.Context) error {
	d.client.CloseIdleConnections()
	return nil
}

func (d *ZepDriver) listPage(ctx context.Context, path, pageToken string, limit int) (map[string]interface{}, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if pageToken != "" {
		q.Set("cursor", pageToken)
	}
	body, err := d.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return d.decodeEnvelope(body)
}

// decodeEnvelope parses a response body, attempting one repair pass when the
// remote hands back malformed JSON. Shape anomalies are recoverable; the
// normalizer supplies defaults downstream, but the repair itself is logged
// for diagnosis.
func (d *ZepDriver) decodeEnvelope(body []byte) (map[string]interface{}, error) {
	var env map[string]interface{}
	if err := json.Unmarshal(body, &env); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(body))
		if repairErr != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &env); err != nil {
			return nil, fmt.Errorf("failed to decode repaired response: %w", err)
		}
		d.logger.Warn("repaired malformed api response", "bytes", len(body))
	}
	return env, nil
}

func (d *ZepDriver) do(ctx context.Context, method, path string, reqBody io.Reader) ([]byte, error) {
	result, err := d.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Api-Key "+d.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if err := classifyStatus(resp.StatusCode, body); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, (&APIError{Status: status, Message: apiMessage(body)}).Error())
	case status == http.StatusMethodNotAllowed, status == http.StatusNotImplemented:
		return fmt.Errorf("%w: status %d", ErrUnsupported, status)
	default:
		return &APIError{Status: status, Message: apiMessage(body)}
	}
}

func apiMessage(body []byte) string {
	var env map[string]interface{}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return normalize.String(env, "message", normalize.String(env, "error", ""))
}

// rawItems pulls the item list out of a response envelope, tolerating both
// the wrapped ({"nodes": [...]}) and bare-list shapes older API versions
// return under the generic "items" key.
func rawItems(env map[string]interface{}, key string) []interface{} {
	if items, ok := normalize.Field(env, key, nil).([]interface{}); ok {
		return items
	}
	if items, ok := normalize.Field(env, "items", nil).([]interface{}); ok {
		return items
	}
	return nil
}

func decodeNode(item interface{}) *types.Node {
	return &types.Node{
		UUID:       normalize.String(item, "uuid", ""),
		Name:       normalize.String(item, "name", ""),
		Labels:     normalize.Strings(item, "labels"),
		Attributes: normalize.Map(item, "attributes"),
		CreatedAt:  parseTime(normalize.String(item, "created_at", "")),
	}
}

func decodeEdge(item interface{}) *types.Edge {
	source := normalize.String(item, "source_node_uuid", "")
	if source == "" {
		source = normalize.String(item, "source_uuid", "")
	}
	target := normalize.String(item, "target_node_uuid", "")
	if target == "" {
		target = normalize.String(item, "target_uuid", "")
	}
	return &types.Edge{
		UUID:       normalize.String(item, "uuid", ""),
		SourceUUID: source,
		TargetUUID: target,
		Fact:       normalize.String(item, "fact", normalize.String(item, "name", "")),
		Attributes: normalize.Map(item, "attributes"),
		CreatedAt:  parseTime(normalize.String(item, "created_at", "")),
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
