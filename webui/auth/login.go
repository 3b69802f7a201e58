// This file contains the login/register handler organism for the
// /api/auth endpoints.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"paintflow/db"
	"paintflow/logging"
	"paintflow/webui"
)

// FailedLoginDelay is added after a failed login to slow brute forcing
// and mask timing differences between unknown-email and bad-password.
const FailedLoginDelay = 1 * time.Second

// Handlers is the auth endpoint organism.
//
// Organism composition:
//   - password hashing molecule (password.go)
//   - webui.SessionStore for bearer tokens
//   - webui.RateLimiter for brute force protection
//   - db.UserRepository for account storage
type Handlers struct {
	users    *db.UserRepository
	sessions *webui.SessionStore
	limiter  *webui.RateLimiter
	logger   *logging.Logger
}

// NewHandlers creates the auth Handlers.
func NewHandlers(users *db.UserRepository, sessions *webui.SessionStore, limiter *webui.RateLimiter, logger *logging.Logger) *Handlers {
	return &Handlers{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger.Named("auth"),
	}
}

// RegisterRoutes attaches the auth endpoints to the mux. The me and
// logout handlers are wrapped with the given middleware.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux, m *Middleware) {
	mux.HandleFunc("/api/auth/register", h.HandleRegister)
	mux.HandleFunc("/api/auth/login", h.HandleLogin)
	mux.HandleFunc("/api/auth/logout", m.HandlerFunc(h.HandleLogout))
	mux.HandleFunc("/api/auth/me", m.HandlerFunc(h.HandleMe))
}

// UserResponse is the JSON shape of a user in auth replies.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister handles POST /api/auth/register requests.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.users.Create(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeError(w, http.StatusConflict, "username or email already taken")
			return
		}
		h.logger.Error("register failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("user registered",
		zap.Int64("user_id", id),
		zap.String("username", req.Username),
	)
	writeJSON(w, http.StatusCreated, UserResponse{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token handed to the client.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// HandleLogin handles POST /api/auth/login requests.
//
// The flow:
//  1. Check the rate limit for the client IP
//  2. Look up the user by email and verify the password
//  3. On success: mint a session, reset the rate limit, return the token
//  4. On failure: delay, record the attempt, return 401
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ip := clientIP(r)
	if allowed, retryIn := h.limiter.Allow(ip); !allowed {
		h.logger.Warn("login rate limited",
			zap.String("remote", ip),
			zap.Duration("retry_in", retryIn),
		)
		writeError(w, http.StatusTooManyRequests, "too many failed attempts, try again later")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		h.failLogin(w, ip, err)
		return
	}

	if err := VerifyPassword(req.Password, user.PasswordHash); err != nil {
		h.failLogin(w, ip, err)
		return
	}

	session, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("session creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.limiter.RecordSuccess(ip)
	h.logger.Info("login succeeded",
		zap.Int64("user_id", user.ID),
		zap.String("remote", ip),
	)

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User: UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

// failLogin applies the shared failure path: delay, record, generic 401.
func (h *Handlers) failLogin(w http.ResponseWriter, ip string, err error) {
	time.Sleep(FailedLoginDelay)
	h.limiter.RecordFailure(ip)
	h.logger.Debug("login failed",
		zap.String("remote", ip),
		zap.Error(err),
	)
	writeError(w, http.StatusUnauthorized, "invalid email or password")
}

// HandleLogout handles POST /api/auth/logout requests. Requires auth.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if token, ok := bearerToken(r); ok {
		h.sessions.Delete(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/auth/me requests. Requires auth.
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := webui.UserIDFromContext(r.Context())
	if !ok {
		webui.WriteUnauthorized(w, "not authenticated")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Package-local JSON atoms matching the webui helpers.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
