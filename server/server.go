// Package server exposes the analysis tools over the Model Context Protocol.
//
// Five tools are registered: fpl_analyze and fpl_plot run scripts against
// FPL tables, fpl_search_functions and fpl_describe_function browse the
// sandbox function catalog, and fpl_list_tables lists the loadable tables.
// Every tool answers with a single JSON text block. A script failure is
// reported as a tool error carrying the envelope, so the calling model can
// read the message and retry.
//
// fpl_plot returns chart paths, so the server keeps each plot's scratch
// directory for Options.PlotRetention and owns its removal: expired
// directories are swept on every plot call and periodically while
// ListenAndServe runs, and Close removes the rest.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jv92admin/fpltools/config"
	"github.com/jv92admin/fpltools/exec"
	"github.com/jv92admin/fpltools/observability"
)

// Implementation name and version reported to MCP clients.
const (
	Name    = "fpltools"
	Version = "v0.1.0"
)

// ErrExecRequired is returned by New without an Exec.
var ErrExecRequired = errors.New("server: exec is required")

// DefaultPlotRetention is how long a plot's chart files are kept.
const DefaultPlotRetention = 30 * time.Minute

// Options configures a Server.
type Options struct {
	// Exec runs the tool calls.
	// Required.
	Exec *exec.Exec

	// Logger receives one record per tool call. Defaults to slog.Default().
	Logger *slog.Logger

	// PlotRetention is how long fpl_plot chart files stay on disk.
	// Defaults to DefaultPlotRetention.
	PlotRetention time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Server is an MCP server bound to one Exec.
type Server struct {
	x         *exec.Exec
	logger    *slog.Logger
	mcp       *mcp.Server
	retention time.Duration
	now       func() time.Time

	mu    sync.Mutex
	plots []keptPlot
}

// keptPlot is a plot envelope whose scratch directory awaits removal.
type keptPlot struct {
	env     exec.Envelope
	expires time.Time
}

// New creates a server and registers its tools.
func New(opts Options) (*Server, error) {
	if opts.Exec == nil {
		return nil, ErrExecRequired
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PlotRetention <= 0 {
		opts.PlotRetention = DefaultPlotRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		x:         opts.Exec,
		logger:    opts.Logger,
		mcp:       mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
		retention: opts.PlotRetention,
		now:       opts.Now,
	}
	s.registerTools()
	return s, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Handler serves the MCP endpoint over streamable HTTP, plus /healthz and,
// when enabled, the prometheus metrics.
func (s *Server) Handler(cfg config.ServerConfig) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.MCPPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))
	if cfg.MetricsEnabled {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ListenAndServe serves Handler on cfg.Addr until ctx is cancelled, then
// shuts down within cfg.ShutdownGrace.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(cfg),
		ReadHeaderTimeout: cfg.ReadTimeout,
	}

	defer s.Close()
	sweep := time.NewTicker(s.retention / 2)
	defer sweep.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", cfg.Addr, "mcp_path", cfg.MCPPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down gracefully")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		case err := <-errCh:
			return err
		case <-sweep.C:
			s.SweepPlots()
		}
	}
}

// keepPlot schedules env's scratch directory for removal.
func (s *Server) keepPlot(env exec.Envelope) {
	if env.ScratchDir == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plots = append(s.plots, keptPlot{env: env, expires: s.now().Add(s.retention)})
}

// SweepPlots removes the scratch directories of expired plots and returns
// how many were removed.
func (s *Server) SweepPlots() int {
	now := s.now()
	s.mu.Lock()
	var expired []exec.Envelope
	live := s.plots[:0]
	for _, p := range s.plots {
		if now.Before(p.expires) {
			live = append(live, p)
		} else {
			expired = append(expired, p.env)
		}
	}
	s.plots = live
	s.mu.Unlock()

	s.cleanup(expired)
	return len(expired)
}

// Close removes every kept plot directory.
func (s *Server) Close() error {
	s.mu.Lock()
	kept := s.plots
	s.plots = nil
	s.mu.Unlock()

	envs := make([]exec.Envelope, len(kept))
	for i, p := range kept {
		envs[i] = p.env
	}
	return s.cleanup(envs)
}

func (s *Server) cleanup(envs []exec.Envelope) error {
	var errs []error
	for _, env := range envs {
		if err := s.x.Cleanup(env); err != nil {
			s.logger.Warn("plot cleanup failed", "dir", env.ScratchDir, "error", err.Error())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) logCall(ctx context.Context, tool string, start time.Time, err error) {
	args := append([]any{"tool", tool, "duration_ms", time.Since(start).Milliseconds()}, observability.TraceAttrs(ctx)...)
	if err != nil {
		s.logger.Warn("tool call failed", append(args, "error", err.Error())...)
		return
	}
	s.logger.Info("tool call", args...)
}
