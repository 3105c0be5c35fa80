package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned when a call is refused because the breaker is
// open. It is not transient: retrying through an open breaker is pointless.
var ErrBreakerOpen = eris.New("resilience: circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker is a circuit breaker for one upstream service. Consecutive
// transient failures trip it open; after CoolDown a single probe call is
// let through, and its outcome closes or re-opens the circuit.
type Breaker struct {
	name      string
	threshold int
	coolDown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
}

// NewBreaker returns a closed breaker that trips after threshold consecutive
// failures and probes again after coolDown.
func NewBreaker(name string, threshold int, coolDown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if coolDown <= 0 {
		coolDown = 30 * time.Second
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		coolDown:  coolDown,
		now:       time.Now,
	}
}

// Allow reports whether a call may proceed. In the open state it returns
// false until the cool-down elapses, then admits one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.coolDown {
			return false
		}
		b.state = stateHalfOpen
		return true
	default: // half-open: one probe in flight
		return false
	}
}

// Success records a successful call and closes the circuit.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateClosed {
		zap.L().Info("circuit closed", zap.String("breaker", b.name))
	}
	b.state = stateClosed
	b.failures = 0
}

// Failure records a failed call. Non-transient errors do not count against
// the threshold: a 404 says nothing about upstream health.
func (b *Breaker) Failure(err error) {
	if !IsTransient(err) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.trip()
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = stateOpen
	b.failures = 0
	b.openedAt = b.now()
	zap.L().Warn("circuit opened",
		zap.String("breaker", b.name),
		zap.Duration("cool_down", b.coolDown))
}
