// This file contains the auth middleware organism that resolves bearer
// tokens into user identities.
package auth

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"paintflow/logging"
	"paintflow/webui"
)

const bearerPrefix = "Bearer "

// Middleware protects routes behind bearer-token authentication.
//
// Organism composition:
//   - webui.SessionStore for token resolution
//   - webui.WithUserID for handing identity to downstream handlers
type Middleware struct {
	sessions *webui.SessionStore
	logger   *logging.Logger
}

// NewMiddleware creates an auth Middleware over the given session store.
func NewMiddleware(sessions *webui.SessionStore, logger *logging.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		logger:   logger.Named("auth"),
	}
}

// Handler wraps next, rejecting requests without a valid bearer token.
// On success the authenticated user's ID is placed in the request context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			webui.WriteUnauthorized(w, "missing bearer token")
			return
		}

		session, err := m.sessions.Get(token)
		if err != nil {
			m.logger.Debug("rejected token",
				zap.String("remote", clientIP(r)),
				zap.Error(err),
			)
			webui.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(webui.WithUserID(r.Context(), session.UserID)))
	})
}

// HandlerFunc is Handler for http.HandlerFunc values.
func (m *Middleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return m.Handler(next).ServeHTTP
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// clientIP returns the client address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
