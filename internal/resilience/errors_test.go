package resilience

import (
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient_ExplicitWrap(t *testing.T) {
	err := Transient(eris.New("rate limited"), 429)
	assert.True(t, IsTransient(err))

	wrapped := fmt.Errorf("marketplace: search comps: %w", err)
	assert.True(t, IsTransient(wrapped))
}

func TestIsTransient_PlainErrorIsNot(t *testing.T) {
	assert.False(t, IsTransient(eris.New("invalid query")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_NetworkPatterns(t *testing.T) {
	assert.True(t, IsTransient(eris.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(eris.New("dial tcp: i/o timeout")))
	assert.False(t, IsTransient(eris.New("404 not found")))
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, RetryableStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		assert.False(t, RetryableStatus(code), "status %d", code)
	}
}

func TestRetryAfterHint(t *testing.T) {
	te := Transient(eris.New("slow down"), 429)
	te.RetryAfter = 2 * time.Second
	wrapped := fmt.Errorf("marketplace: %w", te)

	assert.Equal(t, 2*time.Second, RetryAfterHint(wrapped))
	assert.Equal(t, time.Duration(0), RetryAfterHint(eris.New("plain")))
}
