package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/algotracker/internal/auth"
	"github.com/gokatarajesh/algotracker/internal/catalog"
	"github.com/gokatarajesh/algotracker/internal/config"
	"github.com/gokatarajesh/algotracker/internal/logging"
	"github.com/gokatarajesh/algotracker/internal/metrics"
	"github.com/gokatarajesh/algotracker/internal/store"
	"github.com/gokatarajesh/algotracker/internal/tracker"
	httperrors "github.com/gokatarajesh/algotracker/pkg/http/errors"
)

const pingTimeout = 2 * time.Second

// Handlers groups the route handlers mounted by the API server.
type Handlers struct {
	Gate      *auth.Gate
	Auth      *auth.HTTPHandlers
	Catalog   *catalog.HTTPHandler
	Tracker   *tracker.HTTPHandler
	TrackerWS *tracker.WSHandler
}

// NewHTTPServer wires all API routes behind CORS and request metrics.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, st store.DocumentStore, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, logger, st, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the route table. Everything except health, metrics,
// ping and the auth endpoints sits behind the access gate.
func NewRouter(cfg *config.App, logger zerolog.Logger, st store.DocumentStore, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Error().Err(err).Msg("document store ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mux.HandleFunc("POST /v1/auth/login", h.Auth.Login)
	mux.HandleFunc("GET /v1/auth/session", h.Auth.Session)
	mux.HandleFunc("POST /v1/auth/logout", h.Auth.Logout)

	gated := auth.RequireSession(h.Gate, logger)
	protect := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, gated(fn))
	}

	protect("GET /v1/landing", h.Catalog.Landing)
	protect("GET /v1/algorithms", h.Catalog.List)
	protect("GET /v1/algorithms/{slug}", h.Catalog.Get)

	protect("GET /v1/algorithms/{slug}/questions", h.Tracker.ListQuestions)
	protect("POST /v1/algorithms/{slug}/questions", h.Tracker.CreateQuestion)
	protect("POST /v1/algorithms/{slug}/questions/reorder", h.Tracker.ReorderQuestions)
	protect("PUT /v1/algorithms/{slug}/questions/{id}", h.Tracker.UpdateQuestion)
	protect("DELETE /v1/algorithms/{slug}/questions/{id}", h.Tracker.DeleteQuestion)
	protect("GET /v1/algorithms/{slug}/status", h.Tracker.GetStatus)

	protect("GET /ws/algorithms/{slug}", h.TrackerWS.HandleWebSocket)

	var handler http.Handler = mux
	handler = metrics.Middleware(cfg.Name)(handler)
	handler = requestLogger(logger)(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})(handler)
	return handler
}

// requestLogger tags each request with an id and a scoped logger.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.With().
				Str("request_id", uuid.NewString()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			start := time.Now()
			next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
			reqLogger.Debug().Dur("elapsed", time.Since(start)).Msg("request served")
		})
	}
}
