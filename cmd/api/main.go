// Package main is the entry point for the book catalog server.
// It wires together configuration, the database connection, the catalog
// engine, and the HTTP router.
package main

import (
	"context"
	"database/sql"
	"html/template"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aoideee/bookcatalog/internal/catalog"
	"github.com/aoideee/bookcatalog/internal/config"
	"github.com/aoideee/bookcatalog/internal/data"
	"github.com/aoideee/bookcatalog/internal/ratelimit"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as the "pgx" database/sql driver.
	_ "github.com/lib/pq"              // Register the PostgreSQL driver as "postgres".
	_ "modernc.org/sqlite"             // Register the pure Go SQLite driver as "sqlite".
)

// appVersion is the current version of the API, shown in logs and the healthcheck.
const appVersion = "1.0.0"

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config        config.Config                 // Server configuration
	logger        *slog.Logger                  // Structured logger
	catalog       *catalog.Catalog              // Query and mutation engine
	limiter       ratelimit.Limiter             // nil when rate limiting is disabled
	metrics       *metrics                      // Prometheus collectors
	templateCache map[string]*template.Template // Parsed HTML pages keyed by file name
	background    sync.WaitGroup                // Housekeeping goroutines started by serve
}

// main parses configuration, opens the database, wires up dependencies,
// and starts the HTTP server.
func main() {
	settings, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(2)
	}

	logger := newLogger(settings.Log)

	dialect, err := data.ParseDialect(settings.DB.Driver)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	// Open and verify the database connection pool.
	db, err := openDB(settings.DB, dialect)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connection pool established", "driver", dialect)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = data.EnsureSchema(ctx, db, dialect)
	cancel()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	templateCache, err := newTemplateCache()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	appInstance := &applicationDependencies{
		config:        settings,
		logger:        logger,
		catalog:       catalog.New(data.NewModels(db, dialect).Books),
		metrics:       newMetrics(),
		templateCache: templateCache,
	}

	stopLimiter, err := appInstance.setupLimiter()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer stopLimiter()

	if err := appInstance.serve(context.Background()); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// newLogger builds the slog logger: human-readable text by default,
// JSON for log shippers.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// openDB opens a connection pool for the configured driver, sizes it, and
// pings the database with a 5-second timeout to confirm it is reachable.
func openDB(cfg config.DBConfig, dialect data.Dialect) (*sql.DB, error) {
	// sql.Open only validates the DSN format; it does not actually connect yet.
	db, err := sql.Open(dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, err
	}

	if dialect == data.DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// PingContext performs a real round-trip to verify the database is reachable.
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// setupLimiter builds the configured rate limiter and returns a function
// that releases it.
func (app *applicationDependencies) setupLimiter() (func(), error) {
	cfg := app.config.Limiter
	if !cfg.Enabled {
		return func() {}, nil
	}

	if cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewFixedWindow(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix, cfg.Burst, cfg.Window)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := limiter.Ping(ctx); err != nil {
			limiter.Close()
			return nil, err
		}
		app.limiter = limiter
		app.logger.Info("rate limiter enabled", "mode", "redis", "addr", cfg.RedisAddr)
		return func() { limiter.Close() }, nil
	}

	limiter, err := ratelimit.NewTokenBucket(cfg.RPS, cfg.Burst)
	if err != nil {
		return nil, err
	}
	app.limiter = limiter
	app.logger.Info("rate limiter enabled", "mode", "memory", "rps", cfg.RPS, "burst", cfg.Burst)
	return func() {}, nil
}
