// Package app wires configuration into a ready allocation service. Both the
// HTTP server and pinctl build their dependencies through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	pinmetrics "pinpool/internal/pin/metrics"
	"pinpool/internal/pin/ports"
	"pinpool/internal/pin/service"
	"pinpool/internal/pin/store/memory"
	"pinpool/internal/pin/store/postgres"
	pinredis "pinpool/internal/pin/store/redis"
	"pinpool/internal/pin/store/sqlite"
	"pinpool/internal/platform/config"
	"pinpool/internal/platform/database"
	"pinpool/internal/platform/redis"
	"pinpool/internal/platform/tracing"
	"pinpool/pkg/platform/audit/publisher"
	"pinpool/pkg/platform/audit/publishers/kafka"
)

// tracerShutdownTimeout bounds the final span flush on Close.
const tracerShutdownTimeout = 5 * time.Second

// auditBuffer bounds queued audit events before Emit falls back to a
// synchronous produce.
const auditBuffer = 256

// App holds the wired service and the resources that must be released.
type App struct {
	Service *service.Service
	Store   ports.Store

	closers []func() error
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// New opens the configured store and audit sink and builds the service.
// reg may be nil to skip module metrics.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{}

	store, err := a.openStore(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMaxRollovers(cfg.Allocation.MaxRollovers),
		service.WithClassifierWorkers(cfg.Allocation.ClassifierWorkers),
	}
	if reg != nil {
		opts = append(opts, service.WithMetrics(pinmetrics.New(reg)))
	}

	tp, err := tracing.NewProvider(ctx, cfg.Tracing, os.Stdout)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if tp != nil {
		otel.SetTracerProvider(tp)
		a.closers = append(a.closers, func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
			defer cancel()
			return tp.Shutdown(shutdownCtx)
		})
		opts = append(opts, service.WithTracer(tp.Tracer("pinpool/pin")))
		logger.InfoContext(ctx, "tracing enabled", "exporter", cfg.Tracing.Exporter)
	}

	if cfg.KafkaEnabled() {
		sink, err := kafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open audit sink: %w", err)
		}
		a.closers = append(a.closers, func() error { sink.Close(); return nil })
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			logger.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		pub := publisher.NewPublisher(sink, publisher.WithAsyncBuffer(auditBuffer), publisher.WithLogger(logger))
		a.closers = append(a.closers, func() error { pub.Close(); return nil })
		opts = append(opts, service.WithAuditPublisher(pub))
		logger.InfoContext(ctx, "streaming audit events to kafka", "topic", cfg.Kafka.AuditTopic)
	}

	svc, err := service.New(store, opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Service = svc
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		logger.InfoContext(ctx, "using in-memory pin store")
		return memory.New(), nil

	case config.StorePostgres:
		pool, err := database.OpenPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		store := postgres.NewPostgres(pool, postgres.WithTable(cfg.Store.Table))
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure pin schema: %w", err)
		}
		logger.InfoContext(ctx, "using postgres pin store", "table", store.Table())
		return store, nil

	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store, err := sqlite.New(ctx, db, sqlite.WithTable(cfg.Store.Table))
		if err != nil {
			return nil, fmt.Errorf("ensure pin schema: %w", err)
		}
		logger.InfoContext(ctx, "using sqlite pin store", "path", cfg.Store.SQLitePath)
		return store, nil

	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		logger.InfoContext(ctx, "using redis pin store", "key_prefix", cfg.Redis.KeyPrefix)
		return pinredis.NewRedis(client.Client, pinredis.WithKeyPrefix(cfg.Redis.KeyPrefix)), nil

	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}
