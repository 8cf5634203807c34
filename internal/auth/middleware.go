package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/algotracker/pkg/http/errors"
)

// RequireSession rejects requests that do not carry a live session marker.
func RequireSession(gate *Gate, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
				return
			}
			if !gate.Authenticated(r.Context(), token) {
				logger.Debug().Str("path", r.URL.Path).Msg("rejected stale or invalid session")
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired session")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest extracts the session token from, in order, a Bearer
// Authorization header, the session cookie, or the token query parameter
// (browsers cannot set headers on WebSocket upgrades).
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}
