package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sartorproj/steelcast/country"
	"github.com/sartorproj/steelcast/forecast"
	"github.com/sartorproj/steelcast/internal/cache"
	"github.com/sartorproj/steelcast/internal/config"
	"github.com/sartorproj/steelcast/internal/metrics"
	"github.com/sartorproj/steelcast/internal/source"
	"github.com/sartorproj/steelcast/internal/telemetry"
	"github.com/sartorproj/steelcast/pipeline"
	"github.com/sartorproj/steelcast/timeseries"
)

// app holds the wired runner and everything that must be released with it.
type app struct {
	runner   *pipeline.Runner
	registry *prometheus.Registry
	closers  []func(context.Context) error
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	shutdown, err := telemetry.Init(telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(a.registry)
	}

	src, err := buildSource(ctx, cfg.Data, a)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	fc, err := buildForecaster(ctx, cfg.Cache, logger, m, a)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	table, err := country.LoadTable(cfg.Data.CountryTable)
	if err != nil {
		logger.Warn("country factor table unavailable, every country uses defaults",
			zap.String("path", cfg.Data.CountryTable), zap.Error(err))
		table = nil
	} else {
		logger.Debug("loaded country factor table", zap.Int("countries", table.Len()))
	}

	a.runner = pipeline.New(src, fc, table,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
		pipeline.WithTracer(telemetry.Tracer()),
	)
	return a, nil
}

func buildSource(ctx context.Context, cfg config.DataConfig, a *app) (source.Source, error) {
	switch cfg.Source {
	case "postgres":
		pool, err := source.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		return source.NewPostgres(pool, cfg.SeriesID), nil
	default:
		return source.NewCSV(cfg.CSVPath, csvOptions(cfg)), nil
	}
}

func csvOptions(cfg config.DataConfig) *timeseries.CSVOptions {
	opts := timeseries.DefaultCSVOptions()
	if cfg.DateColumn != "" {
		opts.DateColumn = cfg.DateColumn
	}
	if cfg.ValueColumn != "" {
		opts.ValueColumn = cfg.ValueColumn
	}
	return opts
}

func buildForecaster(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger, m *metrics.Metrics, a *app) (forecast.Forecaster, error) {
	inner := forecast.NewSARIMA()

	var store forecast.Store
	switch cfg.Kind {
	case "memory":
		mem, err := cache.NewMemory(cfg.Size, cfg.TTL)
		if err != nil {
			return nil, err
		}
		store = mem
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		rc := cache.NewRedis(client, cfg.RedisPrefix, cfg.TTL)
		if err := rc.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis cache at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		store = rc
	default:
		return inner, nil
	}

	cached := forecast.NewCached(inner, store, logger)
	cached.OnLookup = m.ObserveCache
	return cached, nil
}
