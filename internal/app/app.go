// Package app provides application lifecycle management for the manifest server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/stacklok/vicius-manifest-server/internal/config"
)

// ManifestApp encapsulates all components needed to run the manifest API server
// It provides lifecycle management and graceful shutdown capabilities
type ManifestApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	cancelFunc context.CancelFunc
}

// Start starts the HTTP server and blocks until it stops or encounters an error
func (app *ManifestApp) Start() error {
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(listener)
}

// Serve serves HTTP on an existing listener. It blocks like Start.
func (app *ManifestApp) Serve(listener net.Listener) error {
	slog.Info("Server listening", "address", listener.Addr().String())
	if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the application with the given timeout.
// In-flight requests are drained before telemetry is flushed.
func (app *ManifestApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if tel := app.components.Telemetry; tel != nil {
		if err := tel.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *ManifestApp) GetConfig() *config.Config {
	return app.config
}

// GetComponents returns the wired application components
func (app *ManifestApp) GetComponents() *AppComponents {
	return app.components
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *ManifestApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
