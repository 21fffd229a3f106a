package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pinpool/internal/app"
	"pinpool/internal/pin/handler"
	"pinpool/internal/platform/config"
	"pinpool/internal/platform/httpserver"
	"pinpool/internal/platform/logger"
	"pinpool/internal/platform/metrics"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies, bootstraps the pool before accepting traffic, and
// drains in-flight requests on SIGINT or SIGTERM.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pinpool exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.New(reg)

	pool, err := app.New(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn("error releasing resources", "error", err)
		}
	}()

	if _, err := pool.Service.Bootstrap(ctx); err != nil {
		return err
	}

	r := chi.NewRouter()
	handler.New(pool.Service, log, httpMetrics, cfg.Server.RequestTimeout).Register(r)
	r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())

	srv := httpserver.New(cfg.Server.Addr, r, cfg.Server.RequestTimeout+5*time.Second)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting pinpool", "addr", cfg.Server.Addr, "store", cfg.Store.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
