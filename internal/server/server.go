// Package server runs the clubql GraphQL handler in an HTTP server with the usual
// middleware: CORS, request ids, access logging and panic recovery. It also serves a
// health check.
package server

// server.go builds the router and runs the server until its context is cancelled

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/andrewwphillips/clubql"
	"github.com/andrewwphillips/clubql/internal/config"
	"github.com/andrewwphillips/clubql/internal/store"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// HealthPath is where the health check is served
const HealthPath = "/health"

// Server serves the clubs and players of a store using the settings of a config
type Server struct {
	cfg   *config.Config
	store *store.Store
}

// New creates a server - it does not start listening until Run or Serve is called
func New(cfg *config.Config, s *store.Store) *Server {
	return &Server{cfg: cfg, store: s}
}

// Handler returns the router, wrapped in all the middleware
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc(HealthPath, s.health).Methods(http.MethodGet)
	router.Handle(s.cfg.Path, clubql.MustRun(s.store,
		clubql.NoConsole(!s.cfg.Console),
		clubql.NoIntrospection(!s.cfg.Introspection),
		clubql.InitialTimeout(s.cfg.WS.InitialTimeout),
		clubql.PingFrequency(s.cfg.WS.PingFrequency),
		clubql.PongTimeout(s.cfg.WS.PongTimeout),
	))

	var h http.Handler = router
	if len(s.cfg.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.cfg.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
			handlers.ExposedHeaders([]string{RequestIDHeader}),
		)(h)
	}
	h = requestID(h)
	h = handlers.CombinedLoggingHandler(os.Stderr, h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(log.Default()),
		handlers.PrintRecoveryStack(true),
	)(h)
}

// Run listens on the configured address and serves requests until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w listening on %q", err, s.cfg.Address)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is cancelled, then shuts down gracefully,
// waiting (up to the shutdown timeout) for requests in progress to finish.
// Subscriptions are stopped when shutdown starts.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	baseCtx, stopAll := context.WithCancel(context.Background())
	defer stopAll()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	httpServer.RegisterOnShutdown(stopAll)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("clubql: serving GraphQL at http://%s%s", l.Addr(), s.cfg.Path)
		serverErr <- httpServer.Serve(l)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Println("clubql: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%w shutting down server", err)
	}
	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
