package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/algotracker/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for the access gate.
type HTTPHandlers struct {
	gate         *Gate
	cookieSecure bool
	logger       zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(gate *Gate, cookieSecure bool, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		gate:         gate,
		cookieSecure: cookieSecure,
		logger:       logger.With().Str("component", "auth_http").Logger(),
	}
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	session, ok, err := h.gate.Login(r.Context(), req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to open session")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Could not open a session")
		return
	}
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAccessDenied, "Access Denied")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httperrors.RespondJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		Token:         session.Token,
		ExpiresAt:     &session.ExpiresAt,
	})
}

// Session handles GET /v1/auth/session
func (h *HTTPHandlers) Session(w http.ResponseWriter, r *http.Request) {
	authenticated := h.gate.Authenticated(r.Context(), TokenFromRequest(r))
	httperrors.RespondJSON(w, http.StatusOK, SessionResponse{Authenticated: authenticated})
}

// Logout handles POST /v1/auth/logout
func (h *HTTPHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(r.Context(), TokenFromRequest(r)); err != nil {
		h.logger.Error().Err(err).Msg("failed to revoke session")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Could not end the session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httperrors.RespondJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
}
