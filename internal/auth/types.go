package auth

import "time"

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "algotracker_session"

// Session is the marker returned by a successful login.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

// LoginRequest carries the shared password.
type LoginRequest struct {
	Password string `json:"password"`
}

// SessionResponse reports the caller's gate state.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Token         string     `json:"token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
