package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
)

const shutdownTimeout = 10 * time.Second

// Relay is the local HTTP server in front of a Subsonic library.
type Relay struct {
	router *BasicRouter
	server *http.Server
	logger *log.Logger
}

// NewRelay builds a Relay serving library on addr with logging and panic recovery.
func NewRelay(addr string, library services.Library, opts services.StreamOptions, logger *log.Logger) *Relay {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	logger = shared.WithLogger(logger, "component", "relay")

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(NewHealthHandler(library))
	NewLibraryHandler(library, opts, logger).Register(router)

	return &Relay{
		router: router,
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      0, // streaming
		},
	}
}

// Handler returns the relay's routes, wrapped in its middleware.
func (r *Relay) Handler() http.Handler {
	return r.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (r *Relay) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.server.Addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (r *Relay) Serve(ctx context.Context, ln net.Listener) error {
	r.server.BaseContext = func(net.Listener) context.Context { return ctx }

	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdown <- r.server.Shutdown(sctx)
	}()

	r.logger.Info("relay listening", "addr", ln.Addr().String(), "routes", r.router.Routes())
	if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	if err := <-shutdown; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	r.logger.Info("relay stopped")
	return nil
}
