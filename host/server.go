// Package host is the serving layer that assembled clients register with.
//
// It builds a chi router with the usual middleware, hands it to every
// di.ServiceFactory in order, and runs the HTTP server until its context ends.
package host

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sghaida/sept/di"
	"github.com/sghaida/sept/telemetry"
)

// Options configures a Server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// MetricsPath is where Metrics is served. Ignored when Metrics is nil.
	MetricsPath string
	Metrics     *telemetry.Collector

	Logger *zap.Logger
}

// Server serves the routes registered by assembled clients.
type Server struct {
	opts    Options
	router  chi.Router
	logger  *zap.Logger
	clients int
}

// New builds the router and registers clients on it, in order.
func New(opts Options, clients []di.ServiceFactory) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		opts:    opts,
		router:  newRouter(opts),
		logger:  opts.Logger,
		clients: len(clients),
	}
	Mount(s.router, clients)
	return s
}

func newRouter(opts Options) chi.Router {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(opts.Logger))
	if opts.Metrics != nil {
		router.Use(Metrics(opts.Metrics))
	}
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil && opts.MetricsPath != "" {
		router.Method(http.MethodGet, opts.MetricsPath, opts.Metrics.Handler())
	}
	return router
}

// Mount hands r to every client once, in order.
func Mount(r chi.Router, clients []di.ServiceFactory) {
	for _, c := range clients {
		c.Register(r)
	}
}

// Handler returns the fully registered router.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe listens on Options.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// Options.ShutdownTimeout. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			zap.String("addr", ln.Addr().String()),
			zap.Int("clients", s.clients),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", zap.Duration("timeout", s.opts.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
