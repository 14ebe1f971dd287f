// Package github provides a minimal client for the GitHub user search API,
// used as the code-hosting candidate source.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the GitHub operations used by the collector.
type Client interface {
	// SearchUsers searches user profiles matching the query.
	SearchUsers(ctx context.Context, query string, perPage int) (*SearchResponse, error)
}

// SearchResponse is the parsed search payload.
type SearchResponse struct {
	TotalCount int    `json:"total_count"`
	Items      []User `json:"items"`
}

// User is one profile from the search results. Search responses carry a
// subset of profile fields; the collector scores with what is present.
type User struct {
	Login     string  `json:"login"`
	Name      string  `json:"name"`
	Bio       string  `json:"bio"`
	Location  string  `json:"location"`
	HTMLURL   string  `json:"html_url"`
	Followers int     `json:"followers"`
	Repos     int     `json:"public_repos"`
	Score     float64 `json:"score"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a GitHub client. The token may be empty for
// unauthenticated (heavily rate-limited) access.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.github.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		// Search API allows 30 requests/minute authenticated.
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchUsers(ctx context.Context, query string, perPage int) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "github: rate limit wait")
	}

	if perPage <= 0 {
		perPage = 10
	}
	reqURL := fmt.Sprintf("%s/search/users?q=%s&per_page=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "github: create request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "github: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "github: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("github: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "github: unmarshal response")
	}
	return &result, nil
}
