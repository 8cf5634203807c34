package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/algotracker/db/migrations"
	"github.com/gokatarajesh/algotracker/internal/auth"
	"github.com/gokatarajesh/algotracker/internal/auth/jwt"
	"github.com/gokatarajesh/algotracker/internal/catalog"
	"github.com/gokatarajesh/algotracker/internal/config"
	"github.com/gokatarajesh/algotracker/internal/logging"
	"github.com/gokatarajesh/algotracker/internal/metrics"
	"github.com/gokatarajesh/algotracker/internal/server"
	"github.com/gokatarajesh/algotracker/internal/store"
	"github.com/gokatarajesh/algotracker/internal/tracker"
	ws "github.com/gokatarajesh/algotracker/pkg/http/ws"
)

// Application aggregates shared infrastructure (document store, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool     *pgxpool.Pool
	redis    *redis.Client
	store    store.DocumentStore
	registry *tracker.Registry
	hub      *ws.Hub
	http     *http.Server
}

// New bootstraps logger, the selected document store, the access gate and
// the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("store", cfg.Store.Driver).Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}

	if cfg.UsesRedis() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	}

	st, err := a.openStore(ctx)
	if err != nil {
		a.closeConnections(context.Background())
		return nil, err
	}
	a.store = st

	cat, err := catalog.Load()
	if err != nil {
		a.closeConnections(context.Background())
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	gate, err := a.newGate()
	if err != nil {
		a.closeConnections(context.Background())
		return nil, err
	}

	a.hub = ws.NewHub(logger)
	a.registry = tracker.NewRegistry(cat, st, tracker.Options{
		Collection:       cfg.Store.Collection,
		StatusClearDelay: cfg.Tracker.StatusClearDelay,
		ReadTimeout:      cfg.Tracker.ReadTimeout,
		WriteTimeout:     cfg.Tracker.WriteTimeout,
		Recorder:         metrics.NewPersist(),
		Observer:         tracker.HubObserver(a.hub, logger),
		Logger:           logger,
	})

	a.http = server.NewHTTPServer(cfg, logger, st, server.Handlers{
		Gate:      gate,
		Auth:      auth.NewHTTPHandlers(gate, cfg.Security.CookieSecure, logger),
		Catalog:   catalog.NewHTTPHandler(cat, logger),
		Tracker:   tracker.NewHTTPHandler(a.registry, logger),
		TrackerWS: tracker.NewWSHandler(a.registry, a.hub, ws.NewUpgrader(cfg.CORS.AllowedOrigins), logger),
	})

	return a, nil
}

func (a *Application) openStore(ctx context.Context) (store.DocumentStore, error) {
	cfg := a.cfg
	switch cfg.Store.Driver {
	case config.DriverRedis:
		return store.NewRedisStore(a.redis, cfg.Redis.KeyPrefix), nil

	case config.DriverPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("parse postgres config: %w", err)
		}
		if cfg.Postgres.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Postgres.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		if cfg.Postgres.AutoMigrate {
			db := stdlib.OpenDBFromPool(pool)
			err := migrations.Up(db)
			_ = db.Close()
			if err != nil {
				return nil, err
			}
			a.logger.Info().Msg("postgres migrations applied")
		}
		return store.NewPostgresStore(pool), nil

	case config.DriverMongo:
		st, err := store.DialMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		return st, nil

	case config.DriverMemory:
		a.logger.Warn().Msg("memory document store selected; lists are lost on restart")
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *Application) newGate() (*auth.Gate, error) {
	sec := a.cfg.Security
	if sec.AccessPassword == "" {
		a.logger.Warn().Msg("ACCESS_PASSWORD not configured; every login attempt will be denied")
	}

	secret := sec.SessionSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		a.logger.Info().Msg("SESSION_SECRET not set; sessions will not survive a restart")
	}

	var sessions auth.SessionStore
	switch sec.SessionStore {
	case config.SessionStoreRedis:
		sessions = auth.NewRedisSessionStore(a.redis, a.cfg.Redis.KeyPrefix)
	default:
		sessions = auth.NewMemorySessionStore()
	}

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(secret),
		TTL:    sec.SessionTTL,
		Issuer: a.cfg.Name,
	})
	return auth.NewGate(sec.AccessPassword, tokens, sessions, a.logger), nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	a.hub.CloseAll()

	// Pending document writes finish before their connections go away.
	if err := a.registry.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("pending document writes did not finish")
	}

	a.closeConnections(shutdownCtx)
	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) closeConnections(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Error().Err(err).Msg("document store shutdown error")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}
