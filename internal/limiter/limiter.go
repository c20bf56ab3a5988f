// Package limiter bounds how many scans run OCR at the same time.
package limiter

import (
	"context"
)

// Slots is an in-process semaphore.
type Slots struct {
	ch chan struct{}
}

// New creates a limiter admitting up to n holders; n <= 0 means 1.
func New(n int) *Slots {
	if n <= 0 {
		n = 1
	}
	return &Slots{ch: make(chan struct{}, n)}
}

// Allow tries to reserve a slot without waiting.
// Returns a release function and true if allowed; otherwise a no-op, false.
func (s *Slots) Allow() (func(), bool) {
	select {
	case s.ch <- struct{}{}:
		return s.release, true
	default:
		return func() {}, false
	}
}

// Acquire waits for a slot until ctx is done.
func (s *Slots) Acquire(ctx context.Context) (func(), error) {
	select {
	case s.ch <- struct{}{}:
		return s.release, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}

// InUse returns the number of held slots.
func (s *Slots) InUse() int { return len(s.ch) }

// Capacity returns the maximum number of holders.
func (s *Slots) Capacity() int { return cap(s.ch) }

func (s *Slots) release() { <-s.ch }
