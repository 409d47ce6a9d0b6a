// Package opensearch provides the distributed vector index backend.
// It is a minimal REST client speaking the OpenSearch API: documents
// carry both a knn_vector field and the raw chunk text, and queries
// run a hybrid of lexical BM25 and approximate kNN so literal statute
// citations ("art. 312") rank alongside semantic matches.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.VectorIndex = (*Client)(nil)

// Config holds connection settings for the backend cluster.
type Config struct {
	URL       string
	IndexName string
	Username  string
	Password  string
	Dimension int
	Timeout   time.Duration
}

// Client is a REST client to an OpenSearch cluster.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates the client and ensures the index exists with the kNN
// mapping. The cluster must be reachable at startup; a backend that
// cannot be provisioned is a configuration error, not a runtime one.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("opensearch: URL cannot be empty")
	}
	if cfg.IndexName == "" {
		return nil, errors.New("opensearch: index name cannot be empty")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("opensearch: dimension must be positive")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	if err := c.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("opensearch: provision index: %w", err)
	}
	return c, nil
}

// ensureIndex creates the index with the kNN mapping if it is missing.
func (c *Client) ensureIndex(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodHead, "/"+c.cfg.IndexName, nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	mapping := map[string]any{
		"settings": map[string]any{
			"index": map[string]any{"knn": true},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"embedding": map[string]any{
					"type":      "knn_vector",
					"dimension": c.cfg.Dimension,
					"method": map[string]any{
						"name":       "hnsw",
						"space_type": "innerproduct",
						"engine":     "lucene",
					},
				},
				"text": map[string]any{"type": "text"},
			},
		},
	}
	status, err = c.do(ctx, http.MethodPut, "/"+c.cfg.IndexName, mapping, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("create index returned status %d", status)
	}
	logger.Info("Provisioned index %q (%d dimensions)", c.cfg.IndexName, c.cfg.Dimension)
	return nil
}

// Index bulk-upserts the entries. Document IDs are the decimal handle,
// so re-indexing the same handle overwrites in place.
func (c *Client) Index(ctx context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return errors.New("opensearch: empty entry batch")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range entries {
		if len(entries[i].Vector) != c.cfg.Dimension {
			return fmt.Errorf("opensearch: entry %d has %d dimensions, index has %d: %w",
				i, len(entries[i].Vector), c.cfg.Dimension, domain.ErrDimensionMismatch)
		}
		action := map[string]any{
			"index": map[string]any{
				"_index": c.cfg.IndexName,
				"_id":    strconv.FormatUint(uint64(entries[i].Handle), 10),
			},
		}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("opensearch: encode bulk action: %w", err)
		}
		doc := map[string]any{
			"embedding": entries[i].Vector,
			"text":      entries[i].Text,
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("opensearch: encode bulk document: %w", err)
		}
	}

	var resp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int    `json:"status"`
			Error  any    `json:"error"`
			ID     string `json:"_id"`
		} `json:"items"`
	}
	status, err := c.doRaw(ctx, http.MethodPost, "/_bulk?refresh=true", &buf, "application/x-ndjson", &resp)
	if err != nil {
		return fmt.Errorf("opensearch: bulk index: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("opensearch: bulk index returned status %d", status)
	}
	if resp.Errors {
		for _, item := range resp.Items {
			for _, r := range item {
				if r.Status >= 300 {
					return fmt.Errorf("opensearch: bulk item %s failed with status %d", r.ID, r.Status)
				}
			}
		}
		return errors.New("opensearch: bulk index reported errors")
	}
	logger.Debug("Bulk indexed %d entries", len(entries))
	return nil
}

// Search runs a hybrid query: a BM25 match on the chunk text and an
// approximate kNN search on the embedding, combined by the cluster.
func (c *Client) Search(ctx context.Context, q driven.VectorQuery) ([]driven.VectorHit, error) {
	if len(q.Vector) != c.cfg.Dimension {
		return nil, fmt.Errorf("opensearch: query has %d dimensions, index has %d: %w",
			len(q.Vector), c.cfg.Dimension, domain.ErrDimensionMismatch)
	}
	if q.K <= 0 {
		return nil, nil
	}

	knn := map[string]any{
		"knn": map[string]any{
			"embedding": map[string]any{
				"vector": q.Vector,
				"k":      q.K,
			},
		},
	}
	clauses := []any{knn}
	if q.Text != "" {
		clauses = append(clauses, map[string]any{
			"match": map[string]any{
				"text": map[string]any{"query": q.Text},
			},
		})
	}
	body := map[string]any{
		"size": q.K,
		"query": map[string]any{
			"bool": map[string]any{"should": clauses},
		},
		"_source": false,
	}

	var resp struct {
		Hits struct {
			Hits []struct {
				ID    string  `json:"_id"`
				Score float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	status, err := c.do(ctx, http.MethodPost, "/"+c.cfg.IndexName+"/_search", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("opensearch: search: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status >= 300 {
		return nil, fmt.Errorf("opensearch: search returned status %d", status)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		handle, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			logger.Warn("Backend returned non-handle document ID %q, skipping", h.ID)
			continue
		}
		hits = append(hits, driven.VectorHit{
			Handle: domain.Handle(handle),
			Score:  h.Score,
		})
	}
	return hits, nil
}

// Count returns the number of documents in the backend index.
func (c *Client) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	status, err := c.do(ctx, http.MethodGet, "/"+c.cfg.IndexName+"/_count", nil, &resp)
	if err != nil {
		return 0, fmt.Errorf("opensearch: count: %w", err)
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status >= 300 {
		return 0, fmt.Errorf("opensearch: count returned status %d", status)
	}
	return resp.Count, nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	return c.doRaw(ctx, method, path, reader, "application/json", out)
}

func (c *Client) doRaw(
	ctx context.Context, method, path string, body io.Reader, contentType string, out any,
) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
