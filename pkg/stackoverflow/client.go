// Package stackoverflow provides a client for the Stack Exchange users API,
// used as the Q&A candidate source.
package stackoverflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Stack Exchange operations used by the collector.
type Client interface {
	// SearchUsers finds users whose display name matches the query.
	SearchUsers(ctx context.Context, inname string, pageSize int) (*UsersResponse, error)
}

// UsersResponse is the parsed API payload.
type UsersResponse struct {
	Items   []User `json:"items"`
	HasMore bool   `json:"has_more"`
}

// User is one Stack Exchange user.
type User struct {
	DisplayName    string      `json:"display_name"`
	Reputation     int         `json:"reputation"`
	Location       string      `json:"location"`
	Link           string      `json:"link"`
	LastAccessDate int64       `json:"last_access_date"` // unix seconds
	BadgeCounts    BadgeCounts `json:"badge_counts"`
}

// BadgeCounts tallies a user's badges.
type BadgeCounts struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
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
	key     string
	site    string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Stack Exchange client scoped to stackoverflow.com.
// The key may be empty; keyless access has a small daily quota.
func NewClient(key string, opts ...Option) Client {
	c := &httpClient{
		key:     key,
		site:    "stackoverflow",
		baseURL: "https://api.stackexchange.com/2.3",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchUsers(ctx context.Context, inname string, pageSize int) (*UsersResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "stackoverflow: rate limit wait")
	}

	if pageSize <= 0 {
		pageSize = 10
	}
	q := url.Values{}
	q.Set("inname", inname)
	q.Set("site", c.site)
	q.Set("order", "desc")
	q.Set("sort", "reputation")
	q.Set("pagesize", fmt.Sprint(pageSize))
	if c.key != "" {
		q.Set("key", c.key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "stackoverflow: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "stackoverflow: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "stackoverflow: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("stackoverflow: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result UsersResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "stackoverflow: unmarshal response")
	}
	return &result, nil
}
