package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jackielii/ventas/internal/app"
	"github.com/jackielii/ventas/internal/logfields"
	"github.com/jackielii/ventas/internal/metrics"
	"github.com/jackielii/ventas/internal/store"
)

// ServeCmd runs the back office until SIGINT or SIGTERM.
type ServeCmd struct {
	Addr string `help:"Listen address, overrides the configuration."`
	Seed bool   `help:"Fill an empty database with demo data."`
}

func (s *ServeCmd) Run(g *Global) error {
	cfg, logger := g.Config, g.Logger
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("close database", logfields.Error(err))
		}
	}()
	if s.Seed {
		if err := st.Seed(ctx); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	opts := app.Options{Config: cfg, Store: st, Logger: logger}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
		opts.Metrics = metrics.HTTPHandler(reg)
	}
	a, err := app.New(opts)
	if err != nil {
		return err
	}
	if err := a.Hydrator().StartSweeper(cfg.Hydration.SweepInterval); err != nil {
		return err
	}
	defer func() {
		if err := a.Hydrator().Stop(); err != nil {
			logger.Error("stop hydration sweeper", logfields.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Server.Addr), slog.String("database", cfg.Database.Path))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
