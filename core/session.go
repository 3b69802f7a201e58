package core

import (
	"time"
)

// DefaultSessionDuration is the default lifetime for a session (24 hours).
const DefaultSessionDuration = 24 * time.Hour

// Session represents an authenticated user session with expiry tracking.
// Sessions are created after successful login and stored server-side; the
// client holds only the opaque token.
type Session struct {
	// Token is the unique session identifier (base64 URL-encoded random bytes)
	Token string

	// UserID is the authenticated user this session belongs to
	UserID int64

	// CreatedAt is when the session was created
	CreatedAt time.Time

	// ExpiresAt is when the session becomes invalid
	ExpiresAt time.Time
}

// NewSession creates a Session for the given user with the given token and
// lifetime. CreatedAt is set to the current time.
func NewSession(token string, userID int64, duration time.Duration) Session {
	now := time.Now()
	return Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
}

// IsExpired returns true if the session has passed its expiration time.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
