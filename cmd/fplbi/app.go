package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/backend/csvdir"
	"github.com/jv92admin/fpltools/backend/local"
	"github.com/jv92admin/fpltools/backend/postgres"
	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/config"
	"github.com/jv92admin/fpltools/exec"
	"github.com/jv92admin/fpltools/observability"
	"github.com/jv92admin/fpltools/runtime/scriptengine"
)

// app holds the state shared by every command: the loaded configuration,
// the source registry and the Exec built on top of them.
type app struct {
	configPath string
	logLevel   string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	registry *backend.Registry
	x        *exec.Exec
}

// setup loads the configuration and starts every configured source.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := observability.NewLogger(a.stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	registry := newRegistry()
	for _, sc := range cfg.Sources {
		raw, err := sc.Raw()
		if err != nil {
			return err
		}
		if _, err := registry.Create(sc.Kind, sc.Name, raw); err != nil {
			return fmt.Errorf("source %s: %w", sc.Name, err)
		}
	}
	if err := registry.StartAll(ctx); err != nil {
		return err
	}

	x, err := newExec(cfg, registry, logger)
	if err != nil {
		_ = registry.StopAll()
		return err
	}

	a.cfg, a.logger, a.registry, a.x = cfg, logger, registry, x
	return nil
}

func (a *app) close() {
	if a.registry == nil {
		return
	}
	if err := a.registry.StopAll(); err != nil {
		a.logger.Warn("stop sources", "error", err)
	}
}

func newRegistry() *backend.Registry {
	r := backend.NewRegistry()
	r.RegisterFactory(csvdir.Kind, csvdir.Factory)
	r.RegisterFactory(postgres.Kind, postgres.Factory)
	r.RegisterFactory(backend.ViewsKind, backend.ViewsFactory(r))
	r.RegisterFactory(local.Kind, func(name string) (backend.Source, error) {
		return local.New(name), nil
	})
	return r
}

func newExec(cfg *config.Config, registry *backend.Registry, logger *slog.Logger) (*exec.Exec, error) {
	engine, err := scriptengine.New(scriptengine.Config{
		MaxCallStackSize: cfg.Executor.MaxCallStackSize,
		Seed:             cfg.Executor.Seed,
		PrintRows:        cfg.Executor.PrintRows,
	})
	if err != nil {
		return nil, err
	}

	metrics := observability.Metrics{}
	executor, err := code.NewDefaultExecutor(code.Config{
		Engine:         engine,
		DefaultTimeout: cfg.Executor.Timeout,
		MaxRows:        cfg.Executor.MaxRows,
		MaxCharts:      cfg.Executor.MaxCharts,
		MaxStdoutBytes: cfg.Executor.MaxStdoutBytes,
		ScratchRoot:    cfg.Executor.ScratchRoot,
		Logger:         code.NewSlogLogger(logger),
		Observer:       metrics,
	})
	if err != nil {
		return nil, err
	}

	return exec.New(exec.Options{
		Executor:       executor,
		Sources:        backend.NewAggregator(registry),
		Logger:         logger,
		Observer:       metrics,
		PreviewRows:    cfg.Analysis.PreviewRows,
		SummaryChars:   cfg.Analysis.SummaryChars,
		DefaultTimeout: cfg.Executor.Timeout,
	})
}
