package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fliplens/appraise-cli/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0, 0))
}

func TestSearchSold_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comps/sold", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var q Query
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "card", q.Category)
		assert.Contains(t, q.Keywords, "Prizm")

		json.NewEncoder(w).Encode(SearchResult{
			Listings: []Listing{
				{Title: "2019 Prizm #248 Ja Morant", Price: 42, SoldAt: time.Now()},
				{Title: "2019 Prizm #248 Ja Morant PSA-ready", Price: 45, SoldAt: time.Now()},
			},
			Total: 2,
		})
	})

	res, err := c.SearchSold(context.Background(), Query{Category: "card", Keywords: "2019 Prizm 248"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []float64{42, 45}, res.Prices())
}

func TestSearchActive_UsesActivePath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comps/active", r.URL.Path)
		json.NewEncoder(w).Encode(SearchResult{})
	})

	_, err := c.SearchActive(context.Background(), Query{Category: "watch", Keywords: "Invicta 8926OB"})
	require.NoError(t, err)
}

func TestSearch_RateLimitedIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.SearchSold(context.Background(), Query{Category: "card", Keywords: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, 3*time.Second, resilience.RetryAfterHint(err))
}

func TestSearch_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SearchSold(context.Background(), Query{Category: "card", Keywords: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSearch_ClientErrorIsNotTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := c.SearchSold(context.Background(), Query{Category: "card", Keywords: "x"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "unexpected status 422")
}

func TestSearch_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := c.SearchSold(context.Background(), Query{Category: "card", Keywords: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}
