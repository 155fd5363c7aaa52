package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/Raimguhinov/linkal/internal/config"
	"github.com/Raimguhinov/linkal/internal/registry"
	"github.com/Raimguhinov/linkal/pkg/httpserver"
	"github.com/Raimguhinov/linkal/pkg/logger"
	"github.com/Raimguhinov/linkal/pkg/postgres"
)

// Run serves the gateway until SIGINT/SIGTERM or a server failure.
func Run(cfg *config.Config) error {
	l := logger.New(cfg.Log.Level, cfg.App.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Registry
	reg, err := loadRegistry(ctx, l, cfg)
	if err != nil {
		return err
	}
	limit, _ := cfg.Upstream.ResponseLimit()
	l.Info("registry loaded",
		slog.Int("calendars", reg.Len()),
		slog.String("principal", cfg.App.Principal),
		slog.String("max_response_size", humanize.IBytes(uint64(limit))),
	)

	// HTTP Server
	router, err := SetupRouter(ctx, l, cfg, reg)
	if err != nil {
		return err
	}
	httpServer := httpserver.New(router,
		httpserver.Addr(cfg.HTTP.IP, cfg.HTTP.Port),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.IdleTimeout(cfg.HTTP.IdleTimeout),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
	l.Info("linkal started", slog.String("addr", cfg.HTTP.IP+":"+cfg.HTTP.Port), slog.String("version", cfg.App.Version))

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: " + s.String())
	case err = <-httpServer.Notify():
		runErr = fmt.Errorf("app - Run - httpServer.Notify: %w", err)
		l.Error("server stopped", logger.Err(runErr))
	}

	// Shutdown
	if err = httpServer.Shutdown(); err != nil {
		l.Error("shutdown failed", logger.Err(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err)))
	}
	return runErr
}

func loadRegistry(ctx context.Context, l *logger.Logger, cfg *config.Config) (*registry.Registry, error) {
	reg, err := registry.NewFromURL(ctx, l, cfg.Registry.URL, postgres.MaxPoolSize(cfg.Registry.PoolMax))
	if err != nil {
		return nil, fmt.Errorf("app - loadRegistry: %w", err)
	}
	return reg, nil
}
