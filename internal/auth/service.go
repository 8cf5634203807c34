package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/algotracker/internal/auth/jwt"
)

// Gate is the access gate: one shared password, and a session marker handed
// out on success. It is a content gate, not a security boundary.
type Gate struct {
	secret   string
	tokens   *jwt.Manager
	sessions SessionStore
	logger   zerolog.Logger
}

// NewGate creates the access gate.
func NewGate(secret string, tokens *jwt.Manager, sessions SessionStore, logger zerolog.Logger) *Gate {
	return &Gate{
		secret:   secret,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger.With().Str("component", "auth_gate").Logger(),
	}
}

// Configured reports whether a password is set. Without one every login fails.
func (g *Gate) Configured() bool {
	return g.secret != ""
}

// Login checks candidate and, on a match, opens a session. A mismatch is
// reported as ok=false, not as an error.
func (g *Gate) Login(ctx context.Context, candidate string) (Session, bool, error) {
	if !CheckPassword(candidate, g.secret) {
		g.logger.Info().Bool("configured", g.Configured()).Msg("access denied")
		return Session{}, false, nil
	}

	id := uuid.NewString()
	token, expires, err := g.tokens.GenerateSessionToken(id)
	if err != nil {
		return Session{}, false, err
	}
	if err := g.sessions.Create(ctx, id, g.tokens.TTL()); err != nil {
		return Session{}, false, err
	}

	g.logger.Info().Str("session_id", id).Msg("access granted")
	return Session{ID: id, Token: token, ExpiresAt: expires}, true, nil
}

// Authenticated reports whether token carries a live session marker. Any
// failure reads as unauthenticated.
func (g *Gate) Authenticated(ctx context.Context, token string) bool {
	_, ok := g.session(ctx, token)
	return ok
}

// Logout revokes the session behind token. Unknown or invalid tokens are
// already logged out.
func (g *Gate) Logout(ctx context.Context, token string) error {
	claims, err := g.tokens.ValidateSessionToken(token)
	if err != nil {
		return nil
	}
	return g.sessions.Delete(ctx, claims.SessionID)
}

func (g *Gate) session(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	claims, err := g.tokens.ValidateSessionToken(token)
	if err != nil {
		return "", false
	}
	live, err := g.sessions.Exists(ctx, claims.SessionID)
	if err != nil {
		g.logger.Warn().Err(err).Msg("session lookup failed")
		return "", false
	}
	return claims.SessionID, live
}
