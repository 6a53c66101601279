// cmd/api/server.go
// This file contains the serve() method which runs the HTTP server until ctx
// is cancelled or the process is asked to stop, then shuts it down cleanly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aoideee/bookcatalog/internal/ratelimit"
)

// shutdownTimeout bounds how long in-flight requests may take once a
// shutdown has begun.
const shutdownTimeout = 20 * time.Second

// serve blocks until the server fails, ctx is cancelled, or a SIGINT or
// SIGTERM arrives. After a requested stop it drains in-flight requests and
// waits for background tasks before returning nil.
func (app *applicationDependencies) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	app.startBackground(ctx)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.ListenAndServe()
	}()

	app.logger.Info("starting server", "address", srv.Addr, "environment", app.config.Env, "version", appVersion)

	select {
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		app.logger.Info("shutting down server", "address", srv.Addr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	stop()
	app.background.Wait()
	app.logger.Info("server stopped", "address", srv.Addr)
	return nil
}

// startBackground launches the housekeeping goroutines. They stop when ctx
// is done and serve waits for them before returning.
func (app *applicationDependencies) startBackground(ctx context.Context) {
	if tb, ok := app.limiter.(*ratelimit.TokenBucket); ok {
		app.background.Add(1)
		go func() {
			defer app.background.Done()
			// Forget clients not seen for 3 minutes, checking once a minute.
			tb.RunSweeper(ctx, time.Minute, 3*time.Minute)
		}()
	}
}
