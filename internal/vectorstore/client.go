// Package vectorstore is a thin client for the hosted similarity index. The
// service stores (id, vector, metadata) tuples and answers nearest-neighbor
// queries; records upserted with Data instead of Vector are indexed for
// lexical lookup as well, which the quota ledger and the keyword fallback
// path rely on.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

type UpsertRequest struct {
	ID       string                 `json:"id"`
	Vector   []float32              `json:"vector,omitempty"`
	Data     string                 `json:"data,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type QueryRequest struct {
	Vector          []float32 `json:"vector,omitempty"`
	Data            string    `json:"data,omitempty"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	// Filter is a single equality predicate, e.g. `model = "450K"`.
	Filter string `json:"filter,omitempty"`
}

type Match struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type queryResponse struct {
	Result []Match `json:"result"`
}

// Store is the surface the pipeline, retriever and ledger depend on.
type Store interface {
	Upsert(ctx context.Context, req UpsertRequest) error
	Query(ctx context.Context, req QueryRequest) ([]Match, error)
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func New(baseURL, token string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (c *Client) Upsert(ctx context.Context, req UpsertRequest) error {
	if req.ID == "" {
		return fmt.Errorf("upsert id is required")
	}
	if len(req.Vector) == 0 && req.Data == "" {
		return fmt.Errorf("upsert requires a vector or lexical data")
	}
	return c.post(ctx, "/upsert", req, nil)
}

func (c *Client) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	if len(req.Vector) == 0 && req.Data == "" {
		return nil, fmt.Errorf("query requires a vector or lexical data")
	}
	if req.TopK <= 0 {
		req.TopK = 1
	}
	var out queryResponse
	if err := c.post(ctx, "/query", req, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return appErr.NewStatusError(resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
