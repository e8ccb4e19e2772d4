// Package client is the HTTP client side of the engine: it submits document
// batches produced by the corpus readers and runs structured queries against
// a running server. Used by the indexing and query CLIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/model"
	"github.com/pombredanne/annographix/services"
)

const (
	defaultTimeout        = 60 * time.Second
	defaultMaxInFlight    = 4
	defaultBatchesPerSec  = 8
	maxErrorBodyDiagBytes = 512
)

// Client talks to one annographix server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// CreateIndex creates an index with the given settings.
func (c *Client) CreateIndex(ctx context.Context, settings config.IndexSettings) error {
	return c.do(ctx, http.MethodPost, "/indexes", settings, nil)
}

// FetchSettings retrieves the settings of an index; the indexing CLI
// validates the schema attributes against them before submitting anything.
func (c *Client) FetchSettings(ctx context.Context, indexName string) (config.IndexSettings, error) {
	var settings config.IndexSettings
	err := c.do(ctx, http.MethodGet, "/indexes/"+indexName, nil, &settings)
	return settings, err
}

// AddDocuments submits one batch of documents.
func (c *Client) AddDocuments(ctx context.Context, indexName string, docs []model.AnnotatedDocument) error {
	return c.do(ctx, http.MethodPut, "/indexes/"+indexName+"/documents", docs, nil)
}

// Persist asks the server to flush the index to disk.
func (c *Client) Persist(ctx context.Context, indexName string) error {
	return c.do(ctx, http.MethodPost, "/indexes/"+indexName+"/_persist", nil, nil)
}

// Search runs one structured query.
func (c *Client) Search(ctx context.Context, indexName string, query services.SearchQuery) (services.SearchResult, error) {
	var result services.SearchResult
	err := c.do(ctx, http.MethodPost, "/indexes/"+indexName+"/_search", query, &result)
	return result, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyDiagBytes))
		return fmt.Errorf("%s %s: server returned %s: %s", method, path, resp.Status, strings.TrimSpace(string(diag)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
		}
	}
	return nil
}

// BatchIndexer accumulates documents and ships them to the server in
// batches. Batches are submitted concurrently through an errgroup, with a
// rate limiter smoothing the request stream so that a fast reader does not
// overwhelm the server. It implements reader.DocumentConsumer.
type BatchIndexer struct {
	client    *Client
	indexName string

	group   *errgroup.Group
	groupCtx context.Context
	limiter *rate.Limiter

	mu      sync.Mutex
	pending []model.AnnotatedDocument
	sent    int
}

// NewBatchIndexer creates a batch indexer for one index. maxInFlight bounds
// the number of concurrent batch submissions (<= 0 picks the default).
func NewBatchIndexer(ctx context.Context, client *Client, indexName string, maxInFlight int) *BatchIndexer {
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxInFlight)
	return &BatchIndexer{
		client:    client,
		indexName: indexName,
		group:     group,
		groupCtx:  groupCtx,
		limiter:   rate.NewLimiter(rate.Limit(defaultBatchesPerSec), 1),
	}
}

// ConsumeDocument buffers one document for the next batch.
func (b *BatchIndexer) ConsumeDocument(doc model.AnnotatedDocument) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, doc)
	return nil
}

// SendBatch submits the buffered documents asynchronously. A failed batch
// fails the whole run at Close.
func (b *BatchIndexer) SendBatch() error {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.sent += len(batch)
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	b.group.Go(func() error {
		if err := b.limiter.Wait(b.groupCtx); err != nil {
			return err
		}
		return b.client.AddDocuments(b.groupCtx, b.indexName, batch)
	})
	return nil
}

// Close flushes any remaining documents, waits for in-flight batches and
// asks the server to persist the index.
func (b *BatchIndexer) Close() error {
	if err := b.SendBatch(); err != nil {
		return err
	}
	if err := b.group.Wait(); err != nil {
		return err
	}
	return b.client.Persist(context.Background(), b.indexName)
}

// DocsSent reports the number of documents handed to the server so far.
func (b *BatchIndexer) DocsSent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}
