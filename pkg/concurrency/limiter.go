package concurrency

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// AdmissionLimiter bounds how many flows the executor may run at once
// (§4.9's global concurrency bound) and pairs the bound with an
// AdmissionBreaker: when submitted flows start failing back to back, the
// limiter stops letting new ones in rather than piling every queued flow
// onto an already-struggling provider.
type AdmissionLimiter struct {
	sem     chan struct{}
	active  int64
	breaker *AdmissionBreaker
}

// NewLimiter builds an AdmissionLimiter allowing up to maxConcurrent
// flows to run simultaneously. maxConcurrent<=0 is treated as 1.
func NewLimiter(maxConcurrent int) *AdmissionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &AdmissionLimiter{
		sem:     make(chan struct{}, maxConcurrent),
		breaker: NewCircuitBreaker(100, 30*time.Second),
	}
}

// Acquire blocks until a slot is free or ctx is done. It refuses outright,
// without touching the semaphore, if the admission breaker is open.
func (l *AdmissionLimiter) Acquire(ctx context.Context) error {
	if l.breaker.IsOpen() {
		return fmt.Errorf("admission breaker is open, refusing new flow")
	}

	select {
	case l.sem <- struct{}{}:
		atomic.AddInt64(&l.active, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (l *AdmissionLimiter) Release() {
	select {
	case <-l.sem:
		atomic.AddInt64(&l.active, -1)
	default:
		// Release without a matching Acquire; nothing to free.
	}
}

// GoSync runs fn synchronously under an acquired slot, releasing the slot
// and reporting the outcome to the admission breaker before returning.
func (l *AdmissionLimiter) GoSync(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()

	if err := fn(); err != nil {
		l.breaker.RecordFailure()
		return err
	}
	l.breaker.RecordSuccess()
	return nil
}

// CurrentActive returns the number of flows currently holding a slot.
func (l *AdmissionLimiter) CurrentActive() int64 {
	return atomic.LoadInt64(&l.active)
}
