// Package remote implements the coordinator's remote fetch callback on top
// of an HTTP JSON search endpoint.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"quickfind/internal/domain"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the search endpoint; the query is appended as ?q=<query>.
	BaseURL string

	// Timeout bounds each request. Zero means 10s.
	Timeout time.Duration

	// RateLimit caps outgoing requests per second. Zero means no limit.
	RateLimit float64

	// HTTPClient overrides the transport, mainly for tests. Nil means a
	// client with Timeout applied.
	HTTPClient *http.Client
}

// Client queries a remote search endpoint. Concurrent identical queries
// are collapsed into a single request, and requests are rate limited when
// configured.
type Client struct {
	baseURL string
	http    *http.Client
	group   singleflight.Group
	limiter *rate.Limiter
}

// NewClient creates a Client from opts.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("remote: BaseURL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid BaseURL: %w", err)
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		baseURL: opts.BaseURL,
		http:    httpClient,
		limiter: limiter,
	}, nil
}

// Search fetches bookmarks matching query from the remote endpoint.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Bookmark, error) {
	// Collapse concurrent identical queries into one request. The shared
	// result is never mutated by callers of the coordinator (snapshots
	// copy on merge), so handing out the same slice is fine.
	v, err, _ := c.group.Do(query, func() (interface{}, error) {
		return c.doSearch(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Bookmark), nil
}

func (c *Client) doSearch(ctx context.Context, query string) ([]domain.Bookmark, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote search returned %s", resp.Status)
	}

	var results []domain.Bookmark
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode remote results: %w", err)
	}
	return results, nil
}

// Func adapts the client to the coordinator's remote fetch signature.
func (c *Client) Func() func(ctx context.Context, query string) ([]domain.Bookmark, error) {
	return c.Search
}
