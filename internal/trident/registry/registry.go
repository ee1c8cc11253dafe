// Package registry is a client for the Trident package registry's
// HTTP/1.1 API: publishing and looking up compiled definitions by
// content hash, name, or free-text search.
//
// Go's standard net/http.Client already handles Content-Length and
// chunked transfer-encoding transparently, which is exactly what §6.6
// asks for; a third-party HTTP client would add a dependency with no
// behavioral benefit here, in an ecosystem where even large production
// Go services typically reach for net/http directly.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout is the read timeout §6.6 mandates for registry calls.
const DefaultTimeout = 30 * time.Second

// Client talks to one registry base URL over plain HTTP/1.1. HTTPS is
// explicitly out of scope (§6.6); callers that pass an "https://" base
// URL get what net/http gives them, but nothing here requires it.
type Client struct {
	BaseURL string
	http    *http.Client
}

// New returns a Client pointed at baseURL, with the mandated 30s
// timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Definition is a published compiled artifact.
type Definition struct {
	Hash      string            `json:"hash"`
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Source    string            `json:"source"`
	Assembly  string            `json:"assembly"`
	DependsOn []string          `json:"depends_on,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Stats is the response shape of GET /api/v1/stats.
type Stats struct {
	TotalDefinitions int64 `json:"total_definitions"`
	TotalNames       int64 `json:"total_names"`
}

// Publish sends POST /api/v1/definitions.
func (c *Client) Publish(ctx context.Context, def Definition) (*Definition, error) {
	var out Definition
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/definitions", def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByHash fetches GET /api/v1/definitions/<hash>.
func (c *Client) GetByHash(ctx context.Context, hash string) (*Definition, error) {
	var out Definition
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/definitions/"+url.PathEscape(hash), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByName fetches GET /api/v1/names/<name>.
func (c *Client) GetByName(ctx context.Context, name string) ([]Definition, error) {
	var out []Definition
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/names/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchQuery is the set of optional query parameters GET
// /api/v1/search accepts.
type SearchQuery struct {
	Q    string
	Type string
	Tag  string
}

// Search runs GET /api/v1/search?q|type|tag=….
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]Definition, error) {
	vals := url.Values{}
	if q.Q != "" {
		vals.Set("q", q.Q)
	}
	if q.Type != "" {
		vals.Set("type", q.Type)
	}
	if q.Tag != "" {
		vals.Set("tag", q.Tag)
	}
	var out []Definition
	path := "/api/v1/search"
	if enc := vals.Encode(); enc != "" {
		path += "?" + enc
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Deps fetches GET /api/v1/deps/<hash>.
func (c *Client) Deps(ctx context.Context, hash string) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/deps/"+url.PathEscape(hash), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats fetches GET /api/v1/stats.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches GET /health and reports whether it returned 200.
func (c *Client) Health(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return false, errors.Wrap(err, "registry: building health request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "registry: health request failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK, nil
}

// doJSON issues a request with an optional JSON body and decodes a
// JSON response into out. net/http's transport already handles both
// Content-Length and chunked transfer-encoding responses transparently
// (§6.6's requirement), so no manual framing is needed here.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "registry: encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "registry: building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Proto = "HTTP/1.1"
	req.ProtoMajor, req.ProtoMinor = 1, 1

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "registry: %s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "registry: reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("registry: %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "registry: decoding response body")
	}
	return nil
}
