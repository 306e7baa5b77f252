// Package runner wires configuration into a running API server.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fgeck/panelsync/internal/api"
	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/fgeck/panelsync/internal/services/servers"
	"github.com/fgeck/panelsync/internal/services/telegram"
	"github.com/fgeck/panelsync/internal/telemetry"
	"github.com/rs/zerolog"
)

// Service defines the interface for the server runner.
type Service interface {
	Run(ctx context.Context, cfg models.AppConfig) error
}

// StoreOpener resolves where server records come from.
type StoreOpener func(ctx context.Context, logger zerolog.Logger, cfg models.AppConfig) (servers.Store, func() error, error)

// TracerInit installs tracing and returns its shutdown.
type TracerInit func(logger zerolog.Logger, serviceName string, w io.Writer) telemetry.ShutdownFunc

// ServeFunc runs the API until ctx is done.
type ServeFunc func(ctx context.Context, srv *api.Server, addr string) error

// Impl implements the runner Service interface.
type Impl struct {
	logger      zerolog.Logger
	openStore   StoreOpener
	initTracer  TracerInit
	serve       ServeFunc
	telegramSvc telegram.Service
	traceOut    io.Writer
}

// New creates a new runner service.
func New(logger zerolog.Logger) *Impl {
	return NewWithServices(logger, servers.Open, telemetry.InitTracer, listenAndServe, telegram.New(logger), os.Stderr)
}

// NewWithServices creates a new runner service with custom collaborators (for testing).
func NewWithServices(
	logger zerolog.Logger,
	openStore StoreOpener,
	initTracer TracerInit,
	serve ServeFunc,
	telegramSvc telegram.Service,
	traceOut io.Writer,
) *Impl {
	return &Impl{
		logger:      logger,
		openStore:   openStore,
		initTracer:  initTracer,
		serve:       serve,
		telegramSvc: telegramSvc,
		traceOut:    traceOut,
	}
}

func listenAndServe(ctx context.Context, srv *api.Server, addr string) error {
	return srv.ListenAndServe(ctx, addr)
}

// Run starts tracing, opens the server store and serves the API.
func (s *Impl) Run(ctx context.Context, cfg models.AppConfig) error {
	startTime := time.Now()

	s.logger.Info().
		Str("listen_addr", cfg.ListenAddr).
		Int("configured_servers", len(cfg.Servers)).
		Bool("postgres_store", cfg.Store.PostgresDSN != "").
		Bool("telemetry", cfg.Telemetry.Enabled).
		Bool("telegram", cfg.Telegram != nil).
		Msg("starting panelsync")

	if cfg.Telemetry.Enabled {
		shutdown := s.initTracer(s.logger, cfg.Telemetry.ServiceName, s.traceOut)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				s.logger.Warn().Err(err).Msg("failed to flush traces")
			}
		}()
	}

	store, closeStore, err := s.openStore(ctx, s.logger, cfg)
	if err != nil {
		return fmt.Errorf("open server store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close server store")
		}
	}()

	factory := reconcile.NewFactory(s.logger, cfg.DirectAdmin, cfg.Retry)
	srv := api.New(s.logger, store, factory)
	if cfg.Telegram != nil {
		srv.WithNotifier(telegram.NewNotifier(s.logger, s.telegramSvc, *cfg.Telegram))
	}

	if err := s.serve(ctx, srv, cfg.ListenAddr); err != nil {
		return fmt.Errorf("serve API: %w", err)
	}

	s.logger.Info().
		Dur("uptime", time.Since(startTime)).
		Msg("panelsync stopped")
	return nil
}
