// Package webui provides the HTTP surface for PaintFlow.
// This file contains the rate limiter molecule protecting the login endpoint.
package webui

import (
	"context"
	"sync"
	"time"

	"paintflow/core"
)

// RateLimiter tracks failed authentication attempts per client IP and
// blocks IPs that fail too often within a window.
//
// Molecule composition:
//   - core.AttemptRecord: attempt count and window timing
type RateLimiter struct {
	mu          sync.RWMutex
	attempts    map[string]core.AttemptRecord
	maxAttempts int
	window      time.Duration
}

// NewRateLimiter creates a RateLimiter allowing maxAttempts failed logins
// per window before blocking.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts < 1 {
		maxAttempts = core.DefaultMaxAttempts
	}
	if window <= 0 {
		window = core.DefaultRateLimitWindow
	}
	return &RateLimiter{
		attempts:    make(map[string]core.AttemptRecord),
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow reports whether the IP may attempt authentication. When blocked,
// the second return value is the time until the block lifts.
func (r *RateLimiter) Allow(ip string) (bool, time.Duration) {
	r.mu.RLock()
	record, exists := r.attempts[ip]
	r.mu.RUnlock()

	if !exists || record.ShouldReset() {
		return true, 0
	}

	if record.IsBlocked(r.maxAttempts) {
		return false, record.TimeUntilReset()
	}

	return true, 0
}

// RecordFailure registers a failed attempt for the IP.
func (r *RateLimiter) RecordFailure(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.attempts[ip]
	if !exists {
		r.attempts[ip] = core.NewAttemptRecordWithWindow(r.window)
		return
	}
	r.attempts[ip] = record.Increment()
}

// RecordSuccess clears the attempt record for the IP.
func (r *RateLimiter) RecordSuccess(ip string) {
	r.mu.Lock()
	delete(r.attempts, ip)
	r.mu.Unlock()
}

// Cleanup removes records whose windows have elapsed and returns how many
// were removed.
func (r *RateLimiter) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for ip, record := range r.attempts {
		if record.ShouldReset() {
			delete(r.attempts, ip)
			removed++
		}
	}

	return removed
}

// StartCleanupTicker runs Cleanup every interval until ctx is cancelled.
func (r *RateLimiter) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}
