package core

import (
	"time"
)

// DefaultRateLimitWindow is the default window for counting failed logins.
const DefaultRateLimitWindow = 15 * time.Minute

// DefaultMaxAttempts is the default number of failed logins before blocking.
const DefaultMaxAttempts = 5

// AttemptRecord tracks failed login attempts for one identifier
// (typically a client IP).
type AttemptRecord struct {
	// Count is the number of attempts within the current window
	Count int

	// ResetAt is when the attempt count resets
	ResetAt time.Time
}

// NewAttemptRecord creates an AttemptRecord with count=1 and the default window.
func NewAttemptRecord() AttemptRecord {
	return NewAttemptRecordWithWindow(DefaultRateLimitWindow)
}

// NewAttemptRecordWithWindow creates an AttemptRecord with count=1 and a custom window.
func NewAttemptRecordWithWindow(window time.Duration) AttemptRecord {
	return AttemptRecord{
		Count:   1,
		ResetAt: time.Now().Add(window),
	}
}

// ShouldReset reports whether the window has elapsed.
func (a AttemptRecord) ShouldReset() bool {
	return time.Now().After(a.ResetAt)
}

// IsBlocked reports whether the count has reached maxAttempts.
func (a AttemptRecord) IsBlocked(maxAttempts int) bool {
	return a.Count >= maxAttempts
}

// TimeUntilReset returns the duration until the record resets, or zero
// if the window has already elapsed.
func (a AttemptRecord) TimeUntilReset() time.Duration {
	remaining := time.Until(a.ResetAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Increment returns the record with count bumped by one, or a fresh
// record when the window has elapsed.
func (a AttemptRecord) Increment() AttemptRecord {
	if a.ShouldReset() {
		return NewAttemptRecord()
	}
	return AttemptRecord{
		Count:   a.Count + 1,
		ResetAt: a.ResetAt,
	}
}
