// Package app is the composition root: it turns configuration and a root
// module into a running server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sghaida/sept/config"
	"github.com/sghaida/sept/di"
	"github.com/sghaida/sept/host"
	"github.com/sghaida/sept/telemetry"
)

// App encapsulates the assembled module tree and the server it feeds.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *telemetry.Collector
	root    *di.ResolvedModule
	server  *host.Server
}

// Option customises New.
type Option func(*settings)

type settings struct {
	logger    *zap.Logger
	contracts di.ContractSource
	diOpts    []di.Option
}

// WithLogger uses l instead of building one from configuration.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithContracts sets the construction contracts for the assembly.
func WithContracts(c di.ContractSource) Option {
	return func(s *settings) { s.contracts = c }
}

// WithGlobal makes v available to every module under t.
func WithGlobal(t di.Token, v any) Option {
	return func(s *settings) { s.diOpts = append(s.diOpts, di.WithGlobal(t, v)) }
}

// New assembles root and prepares the server. Assembly errors are returned
// as is; nothing is served if any capability cannot be resolved.
func New(cfg *config.Config, root di.ModuleFactory, opts ...Option) (*App, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	logger := s.logger
	if logger == nil {
		l, err := NewLogger(cfg)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		logger = l
	}

	metrics := telemetry.NewCollector(cfg.Namespace)

	diOpts := append([]di.Option{
		di.WithContracts(s.contracts),
		di.WithLogger(logger.Named("di")),
		di.WithObserver(metrics),
	}, s.diOpts...)

	rm, err := di.Assemble(root, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", root.ModuleID(), err)
	}

	server := host.New(host.Options{
		Addr:            cfg.Addr,
		ShutdownTimeout: cfg.ShutdownTimeout,
		CORSOrigins:     cfg.CORSOrigins,
		MetricsPath:     cfg.MetricsPath,
		Metrics:         metrics,
		Logger:          logger.Named("http"),
	}, rm.AllClients())

	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		root:    rm,
		server:  server,
	}, nil
}

// Root returns the assembled root module.
func (a *App) Root() *di.ResolvedModule { return a.root }

// Handler returns the HTTP handler with every client registered.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Metrics returns the process collector.
func (a *App) Metrics() *telemetry.Collector { return a.metrics }

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()
	return a.server.ListenAndServe(ctx)
}
