// Package certregistry looks up grading certificates by cert number. The
// upstream registry enforces a small daily request quota, so the client
// budgets locally and fails fast instead of queueing once it is spent.
package certregistry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/fliplens/appraise-cli/internal/resilience"
)

const (
	defaultBaseURL    = "https://api.gradecert.io/v1"
	defaultDailyQuota = 100
)

// ErrQuotaExhausted is returned when the local daily budget is spent. It is
// not transient; retries would just burn tomorrow's budget.
var ErrQuotaExhausted = eris.New("certregistry: daily quota exhausted")

// Cert is one grading certificate record.
type Cert struct {
	CertNumber string `json:"cert_number"`
	Grader     string `json:"grader"` // e.g. "PSA", "BGS"
	Grade      string `json:"grade"`  // e.g. "10", "9.5"
	ItemLabel  string `json:"item_label"`
	Valid      bool   `json:"valid"`
}

// Client performs cert lookups.
type Client interface {
	Lookup(ctx context.Context, certNumber string) (*Cert, error)
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

// WithDailyQuota sets the local request budget per 24 hours.
func WithDailyQuota(quota int) Option {
	return func(c *httpClient) {
		if quota > 0 {
			c.quota = newQuotaLimiter(quota)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	quota   *rate.Limiter
}

// newQuotaLimiter spreads the daily budget evenly over 24 hours, with the
// full budget available as initial burst.
func newQuotaLimiter(quota int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(quota)), quota)
}

// NewClient creates a cert registry client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		quota: newQuotaLimiter(defaultDailyQuota),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, certNumber string) (*Cert, error) {
	if certNumber == "" {
		return nil, eris.New("certregistry: empty cert number")
	}
	if !c.quota.Allow() {
		return nil, ErrQuotaExhausted
	}

	u := c.baseURL + "/certs/" + url.PathEscape(certNumber)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "certregistry: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "certregistry: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "certregistry: read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		apiErr := eris.Errorf("certregistry: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.Transient(apiErr, resp.StatusCode)
		}
		return nil, apiErr
	}

	var cert Cert
	if err := json.Unmarshal(respBody, &cert); err != nil {
		return nil, eris.Wrap(err, "certregistry: unmarshal response")
	}
	return &cert, nil
}
