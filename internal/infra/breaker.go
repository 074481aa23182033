package infra

import (
	"errors"
	"sync"
	"time"
)

// Breaker guards best-effort Redis calls made on the request path (the totals
// cache). After threshold consecutive failures it opens and calls fail fast
// until timeout has passed; then a single trial call is let through.
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	openedAt  time.Time
	threshold int
	timeout   time.Duration
	now       func() time.Time
}

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrBreakerOpen is returned by Do while the breaker is open.
var ErrBreakerOpen = errors.New("redis breaker is open")

// NewBreaker returns a closed breaker. Zero values fall back to 5 failures / 30s.
func NewBreaker(threshold int, timeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Breaker{threshold: threshold, timeout: timeout, now: time.Now}
}

// State returns the current state, moving open → half-open once the timeout elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Breaker) stateLocked() BreakerState {
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.timeout {
		b.state = BreakerHalfOpen
	}
	return b.state
}

// Do runs fn unless the breaker is open. A nil *Breaker always runs fn.
func (b *Breaker) Do(fn func() error) error {
	if b == nil {
		return fn()
	}

	b.mu.Lock()
	state := b.stateLocked()
	if state == BreakerOpen {
		b.mu.Unlock()
		return ErrBreakerOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.state = BreakerClosed
		b.failures = 0
		return nil
	}
	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.failures = 0
	}
	return err
}
