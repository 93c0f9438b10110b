package concurrency

import (
	"sync"
	"sync/atomic"
	"time"
)

// breakerState is the admission breaker's state machine: closed admits
// freely, open blocks every admission until resetTimeout elapses,
// half-open lets one cohort of flows through as a probe while it waits
// for a run of successes before closing again.
type breakerState int32

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// halfOpenSuccessesToClose is how many consecutive successful flows a
// half-open breaker needs to see before it closes again.
const halfOpenSuccessesToClose = 5

// AdmissionBreaker trips when flow execution keeps failing back to back —
// a saturated LLM, embedding, or vector provider is the common cause —
// and tells the admission limiter to stop letting new flows in until the
// failures stop. Grounded on the teacher's generic circuit breaker but
// re-keyed to the one failure signal the executor actually reports:
// whether a submitted flow ran to completion.
type AdmissionBreaker struct {
	state            int32
	failures         int64
	successes        int64
	failureThreshold int64
	resetTimeout     time.Duration
	lastFailureAt    int64
	mu               sync.Mutex
}

// NewCircuitBreaker builds an AdmissionBreaker that opens after
// failureThreshold consecutive flow failures and waits resetTimeout
// before allowing a half-open probe.
func NewCircuitBreaker(failureThreshold int64, resetTimeout time.Duration) *AdmissionBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 10
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &AdmissionBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// IsOpen reports whether new admissions should currently be refused. An
// open breaker past its reset timeout flips itself to half-open and lets
// the caller through as a probe rather than staying open forever.
func (b *AdmissionBreaker) IsOpen() bool {
	if breakerState(atomic.LoadInt32(&b.state)) != breakerOpen {
		return false
	}

	last := atomic.LoadInt64(&b.lastFailureAt)
	if last > 0 && time.Since(time.Unix(0, last)) > b.resetTimeout {
		b.transition(breakerHalfOpen)
		return false
	}
	return true
}

// RecordSuccess reports a flow that ran to completion. In the half-open
// state it counts toward closing the breaker again.
func (b *AdmissionBreaker) RecordSuccess() {
	atomic.StoreInt64(&b.failures, 0)

	if breakerState(atomic.LoadInt32(&b.state)) != breakerHalfOpen {
		return
	}
	if atomic.AddInt64(&b.successes, 1) >= halfOpenSuccessesToClose {
		b.transition(breakerClosed)
	}
}

// RecordFailure reports a flow that failed. It reopens a half-open
// breaker immediately, or opens a closed one once failureThreshold
// consecutive failures have accumulated.
func (b *AdmissionBreaker) RecordFailure() {
	atomic.StoreInt64(&b.successes, 0)
	atomic.StoreInt64(&b.lastFailureAt, time.Now().UnixNano())

	state := breakerState(atomic.LoadInt32(&b.state))
	failures := atomic.AddInt64(&b.failures, 1)

	switch {
	case state == breakerHalfOpen:
		b.transition(breakerOpen)
	case state == breakerClosed && failures >= b.failureThreshold:
		b.transition(breakerOpen)
	}
}

// GetConsecutiveFailures returns the current consecutive-failure count.
func (b *AdmissionBreaker) GetConsecutiveFailures() int64 {
	return atomic.LoadInt64(&b.failures)
}

// Reset forces the breaker closed, discarding its failure/success history.
func (b *AdmissionBreaker) Reset() {
	b.transition(breakerClosed)
	atomic.StoreInt64(&b.failures, 0)
	atomic.StoreInt64(&b.successes, 0)
	atomic.StoreInt64(&b.lastFailureAt, 0)
}

func (b *AdmissionBreaker) transition(next breakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if breakerState(atomic.LoadInt32(&b.state)) == next {
		return
	}
	atomic.StoreInt32(&b.state, int32(next))

	if next != breakerHalfOpen {
		atomic.StoreInt64(&b.successes, 0)
	}
	if next == breakerClosed {
		atomic.StoreInt64(&b.failures, 0)
	}
}
