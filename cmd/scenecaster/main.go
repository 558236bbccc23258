// Command scenecaster is the main entry point for the scene orchestrator
// service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/ashfall-games/scenecaster/internal/config"
	"github.com/ashfall-games/scenecaster/internal/health"
	"github.com/ashfall-games/scenecaster/internal/observe"
	"github.com/ashfall-games/scenecaster/internal/resilience"
	"github.com/ashfall-games/scenecaster/internal/scenes"
	"github.com/ashfall-games/scenecaster/internal/scenestore"
	transporthttp "github.com/ashfall-games/scenecaster/internal/transport/http"
	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen"
	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "scenecaster: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "scenecaster: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("scenecaster starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"providers_configured", len(cfg.Providers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "scenecaster"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer shutdownTelemetry(context.Background())

	pool, err := buildProviderPool(cfg)
	if err != nil {
		slog.Error("failed to build provider pool", "err", err)
		return 1
	}
	if pool.Empty() {
		slog.Error("no usable image-generation providers configured")
		return 1
	}

	store, pgPool, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise scene store", "err", err)
		return 1
	}
	if pgPool != nil {
		defer pgPool.Close()
	}

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Warn("failed to initialise metrics, continuing uninstrumented", "err", err)
		metrics = nil
	}

	coordinator := scenes.NewCoordinator(pool, store, scenes.Config{
		Timeout:    cfg.Render.Timeout(),
		MaxRetries: cfg.Render.MaxRetries,
		RetryDelay: cfg.Render.RetryDelay(),
		Metrics:    metrics,
	})
	service := scenes.NewService(coordinator, store)

	watcher, err := config.NewWatcher(*configPath, func(old, newCfg *config.Config) {
		entries, err := buildProviderEntries(newCfg)
		if err != nil {
			slog.Warn("config reload: failed to rebuild provider pool, keeping previous pool", "err", err)
		} else {
			pool.Replace(entries)
			slog.Info("config reload: provider pool replaced", "providers_configured", len(entries))
		}

		coordinator.UpdateConfig(scenes.Config{
			Timeout:    newCfg.Render.Timeout(),
			MaxRetries: newCfg.Render.MaxRetries,
			RetryDelay: newCfg.Render.RetryDelay(),
		})
	})
	if err != nil {
		slog.Warn("config watcher failed to start, hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	mux := http.NewServeMux()
	transporthttp.New(service, pool).Register(mux)

	healthHandler := health.New(health.Checker{
		Name: "providers",
		Check: func(ctx context.Context) error {
			if pool.Empty() || pool.AllDisabled() {
				return fmt.Errorf("no usable providers")
			}
			return nil
		},
	}, health.Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			if pgPool == nil {
				return nil
			}
			return pgPool.Ping(ctx)
		},
	})
	healthHandler.Register(mux)

	var handler http.Handler = mux
	if metrics != nil {
		handler = observe.Middleware(metrics)(mux)
	}

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("server error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildProviderPool constructs a fresh [scenes.Pool] from configuration.
// Used once at startup; config reloads instead call [buildProviderEntries]
// directly and swap them into the existing pool via [scenes.Pool.Replace], so
// in-flight renders keep their *scenes.Entry reference across a reload.
func buildProviderPool(cfg *config.Config) (*scenes.Pool, error) {
	entries, err := buildProviderEntries(cfg)
	if err != nil {
		return nil, err
	}
	return scenes.NewPool(entries...), nil
}

// buildProviderEntries constructs the image-generation provider entries
// from configuration. An entry with a missing API key is dropped entirely;
// an unrecognised backend is treated the same way since no client library
// exists to construct it.
func buildProviderEntries(cfg *config.Config) ([]*scenes.Entry, error) {
	var entries []*scenes.Entry
	for i, p := range cfg.Providers {
		if p.APIKey == "" {
			slog.Warn("dropping provider with no api key", "id", p.ID, "index", i)
			continue
		}

		id := p.ID
		if id == "" {
			id = fmt.Sprintf("provider-%d", i)
		}

		var backend imagegen.Provider
		var err error
		switch p.Backend {
		case "", "openai":
			var opts []openai.Option
			if p.BaseURL != "" {
				opts = append(opts, openai.WithBaseURL(p.BaseURL))
			}
			backend, err = openai.New(p.APIKey, p.Model, opts...)
		default:
			slog.Warn("dropping provider with unrecognised backend", "id", id, "backend", p.Backend)
			continue
		}
		if err != nil {
			slog.Warn("dropping provider that failed to construct", "id", id, "err", err)
			continue
		}

		entries = append(entries, scenes.NewEntry(id, p.Model, backend).WithResolution(p.Resolution))
	}
	return entries, nil
}

// buildStore constructs the configured scene persistence backend. Returns a
// non-nil *pgxpool.Pool only when the postgres backend is in use, so callers
// can close it and ping it for readiness. The postgres store is wrapped in a
// circuit breaker so a store outage sheds bookkeeping writes quickly instead
// of stacking every render's autosave behind a dead connection; the memory
// store cannot be unreachable, so it is used bare.
func buildStore(ctx context.Context, cfg *config.Config) (scenestore.Store, *pgxpool.Pool, error) {
	switch cfg.Store.Kind {
	case "memory":
		return scenestore.NewMemStore(), nil, nil
	default:
		pgPool, err := scenestore.NewPool(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		pgStore := scenestore.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			pgPool.Close()
			return nil, nil, err
		}
		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "scene-store",
		})
		return scenestore.WithBreaker(pgStore, breaker), pgPool, nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
