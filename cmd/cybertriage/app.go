package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cybertriage/cybertriage/internal/api"
	"github.com/cybertriage/cybertriage/internal/bus"
	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/lifecycle"
	"github.com/cybertriage/cybertriage/internal/mcp"
	"github.com/cybertriage/cybertriage/internal/metrics"
	"github.com/cybertriage/cybertriage/internal/repository"
	"github.com/cybertriage/cybertriage/internal/ruleset"
	"github.com/cybertriage/cybertriage/internal/triage"
	"github.com/cybertriage/cybertriage/internal/worker"
)

// app holds the components shared by the serve and mcp commands.
type app struct {
	cfg      *domain.Config
	store    domain.CaseStore
	bus      domain.EventBus
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	svc      *lifecycle.Service
	worker   *worker.Worker
	closers  []func() error
}

// buildEngine loads and validates the rule tables.
func buildEngine(cfg *domain.Config) (*triage.Engine, error) {
	tables, err := ruleset.Load(cfg.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule tables: %w", err)
	}
	engine, err := triage.NewEngine(tables)
	if err != nil {
		return nil, err
	}
	slog.Info("rule tables loaded",
		"categories", len(tables.Taxonomy.Categories),
		"policies", engine.Policies.Count(),
		"rules_dir", cfg.RulesDir,
	)
	return engine, nil
}

// newApp wires store, bus, metrics and the lifecycle service.
func newApp(cfg *domain.Config) (*app, error) {
	a := &app{cfg: cfg}

	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		a.closers = append(a.closers, setupTracing(cfg.Tracing.ServiceName))
	}

	a.store, err = repository.New(cfg.Repository)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize case store: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)
	slog.Info("case store initialized", "driver", a.store.Mode())

	a.bus, err = bus.New(cfg.EventBus)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	a.closers = append(a.closers, a.bus.Close)
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	a.svc = lifecycle.New(a.store, engine,
		lifecycle.WithBus(a.bus),
		lifecycle.WithMetrics(a.metrics),
	)

	if cfg.AutoPipeline {
		a.worker = worker.NewWorker(a.bus, a.svc)
		if err := a.worker.Start(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to start pipeline worker: %w", err)
		}
	}

	return a, nil
}

// Close stops the worker and releases components in reverse order.
func (a *app) Close() {
	if a.worker != nil {
		if err := a.worker.Stop(); err != nil {
			slog.Error("failed to stop pipeline worker", "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Error("failed to close component", "error", err)
		}
	}
}

// setupTracing installs an SDK tracer provider so spans carry real trace
// ids. It returns the provider's shutdown.
func setupTracing(serviceName string) func() error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	slog.Info("tracing enabled", "service", serviceName)
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
}

func runServe(ctx context.Context, cfg *domain.Config) error {
	slog.Info("starting cybertriage",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	mcpServer := mcp.New(a.svc, Version)
	srv := api.NewServer(cfg.Server, a.svc, api.Options{
		Bus:      a.bus,
		Metrics:  a.metrics,
		Gatherer: a.registry,
		MCP:      mcpServer.HTTPHandler(),
		Version:  Version,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("cybertriage is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", a.store.Mode(),
		"auto_pipeline", cfg.AutoPipeline,
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("cybertriage shutdown complete")
	return nil
}

func runMCP(ctx context.Context, cfg *domain.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("serving MCP on stdio", "version", Version, "storage", a.store.Mode())
	return mcp.New(a.svc, Version).Run(ctx)
}

// runClassify classifies text with the rule tables only; no store or bus is
// opened.
func runClassify(ctx context.Context, cfg *domain.Config, text string, out io.Writer) error {
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	svc := lifecycle.New(repository.NewMemoryStore(), engine)

	res, err := svc.Classify(ctx, text)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
