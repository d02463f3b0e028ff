package generative

import (
	"math"
	"sync/atomic"
	"time"
)

const (
	circuitClosed   uint32 = 0
	circuitOpen     uint32 = 1
	circuitHalfOpen uint32 = 2
)

// circuitBreaker guards the HTTP backend against repeated failures. After
// failureThreshold consecutive failures the circuit opens; once resetAfter
// elapses it half-opens and probes, closing again after successThreshold
// consecutive successes.
type circuitBreaker struct {
	failureThreshold int32
	successThreshold int32
	resetAfter       time.Duration

	failures    atomic.Int32
	successes   atomic.Int32  // counted in half-open only
	state       atomic.Uint32 // 0=closed, 1=open, 2=half-open
	lastFailure atomic.Int64  // Unix nano timestamp
}

func newCircuitBreaker(failureThreshold, successThreshold int, resetAfter time.Duration) *circuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 1
	}
	if resetAfter <= 0 {
		resetAfter = 30 * time.Second
	}
	return &circuitBreaker{
		failureThreshold: int32(failureThreshold),
		successThreshold: int32(successThreshold),
		resetAfter:       resetAfter,
	}
}

// allow reports whether a request may proceed.
func (cb *circuitBreaker) allow() bool {
	for {
		switch cb.state.Load() {
		case circuitOpen:
			lastFail := time.Unix(0, cb.lastFailure.Load())
			if time.Since(lastFail) > cb.resetAfter {
				// CAS: only one goroutine transitions to half-open.
				if cb.state.CompareAndSwap(circuitOpen, circuitHalfOpen) {
					cb.successes.Store(0)
					return true
				}
				continue // Another goroutine won, re-read state.
			}
			return false
		default: // closed or half-open
			return true
		}
	}
}

// recordSuccess resets the failure count, and in half-open closes the
// circuit once enough consecutive probes succeed.
func (cb *circuitBreaker) recordSuccess() {
	cb.failures.Store(0)
	if cb.state.Load() != circuitHalfOpen {
		return
	}
	if cb.successes.Add(1) >= cb.successThreshold {
		cb.state.Store(circuitClosed)
	}
}

// recordFailure counts a failure and opens the circuit at the threshold.
// Any failure in half-open reopens immediately.
func (cb *circuitBreaker) recordFailure() {
	if cb.state.CompareAndSwap(circuitHalfOpen, circuitOpen) {
		cb.lastFailure.Store(time.Now().UnixNano())
		cb.failures.Store(0)
		return
	}

	// Atomic increment with a CAS loop to avoid racing the threshold
	// check against another goroutine's increment.
	for {
		current := cb.failures.Load()
		if current == math.MaxInt32 {
			return
		}
		next := current + 1
		if !cb.failures.CompareAndSwap(current, next) {
			continue
		}
		if next >= cb.failureThreshold {
			if cb.state.CompareAndSwap(circuitClosed, circuitOpen) {
				cb.lastFailure.Store(time.Now().UnixNano())
			}
		}
		return
	}
}

// currentState names the state for logs.
func (cb *circuitBreaker) currentState() string {
	switch cb.state.Load() {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
