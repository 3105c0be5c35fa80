// Package marketplace queries the comp search API for sold and active
// listings. Responses come back raw; statistical filtering happens upstream.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/fliplens/appraise-cli/internal/resilience"
)

const defaultBaseURL = "https://api.flipcomps.io/v1"

// Client performs comp searches against the marketplace API.
type Client interface {
	SearchSold(ctx context.Context, q Query) (*SearchResult, error)
	SearchActive(ctx context.Context, q Query) (*SearchResult, error)
}

// Query describes one comp search.
type Query struct {
	Category  string   `json:"category"`
	Keywords  string   `json:"keywords"`
	Condition string   `json:"condition,omitempty"`
	Exclude   []string `json:"exclude,omitempty"`
	MaxAgeDay int      `json:"max_age_days,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// Listing is one sold or active listing.
type Listing struct {
	Title    string    `json:"title"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	SoldAt   time.Time `json:"sold_at,omitempty"`
	ListedAt time.Time `json:"listed_at,omitempty"`
	URL      string    `json:"url,omitempty"`
}

// SearchResult is the full response for one query.
type SearchResult struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
}

// Prices returns just the listing prices, in response order.
func (r *SearchResult) Prices() []float64 {
	out := make([]float64, 0, len(r.Listings))
	for _, l := range r.Listings {
		out = append(out, l.Price)
	}
	return out
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request throttle.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a marketplace API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchSold(ctx context.Context, q Query) (*SearchResult, error) {
	return c.search(ctx, "/comps/sold", q)
}

func (c *httpClient) SearchActive(ctx context.Context, q Query) (*SearchResult, error) {
	return c.search(ctx, "/comps/active", q)
}

func (c *httpClient) search(ctx context.Context, path string, q Query) (*SearchResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "marketplace: rate limit")
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, eris.Wrap(err, "marketplace: marshal query")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "marketplace: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "marketplace: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "marketplace: read response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := eris.Errorf("marketplace: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.RetryableStatus(resp.StatusCode) {
			te := resilience.Transient(apiErr, resp.StatusCode)
			te.RetryAfter = retryAfter(resp.Header)
			return nil, te
		}
		return nil, apiErr
	}

	var result SearchResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "marketplace: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
