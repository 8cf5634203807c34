package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

// Supported document store drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Supported session marker backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"algotracker"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Store    Store
	Redis    Redis
	Postgres Postgres
	Mongo    Mongo
	Security Security
	Tracker  Tracker
	CORS     CORS
}

// Store selects the document store backing solved-question lists.
type Store struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"redis"`
	Collection string `env:"STORE_COLLECTION" envDefault:"solved_questions"`
}

// Redis holds document store and session marker configuration.
type Redis struct {
	Addr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize  int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"algotracker"`
}

// Postgres captures connection info for the JSONB document table.
type Postgres struct {
	Host        string `env:"PG_HOST" envDefault:"localhost"`
	Port        int    `env:"PG_PORT" envDefault:"5432"`
	User        string `env:"PG_USER"`
	Password    string `env:"PG_PASSWORD"`
	Database    string `env:"PG_DATABASE" envDefault:"algotracker"`
	SSLMode     string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns    int32  `env:"PG_MAX_CONNS" envDefault:"10"`
	AutoMigrate bool   `env:"PG_AUTO_MIGRATE" envDefault:"true"`
}

// DSN renders a postgres:// connection URL with credentials escaped.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

// Mongo configures the MongoDB document store.
type Mongo struct {
	URI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE" envDefault:"algotracker"`
}

// Security stores the access gate secret and session signing settings.
type Security struct {
	AccessPassword string        `env:"ACCESS_PASSWORD"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SessionStore   string        `env:"SESSION_STORE" envDefault:"memory"`
	CookieSecure   bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// Tracker tunes the solved-question list synchronization.
type Tracker struct {
	StatusClearDelay time.Duration `env:"STATUS_CLEAR_DELAY" envDefault:"2s"`
	ReadTimeout      time.Duration `env:"STORE_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout     time.Duration `env:"STORE_WRITE_TIMEOUT" envDefault:"5s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the application cannot start with.
// A missing ACCESS_PASSWORD is allowed: the gate then never opens.
func (c *App) Validate() error {
	switch c.Store.Driver {
	case DriverRedis, DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Security.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.Security.SessionStore)
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("STORE_COLLECTION must not be empty")
	}
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *App) UsesRedis() bool {
	return c.Store.Driver == DriverRedis || c.Security.SessionStore == SessionStoreRedis
}
