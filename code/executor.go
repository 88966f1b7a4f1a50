package code

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jv92admin/fpltools/table"
)

const tracerName = "github.com/jv92admin/fpltools/code"

// Executor is the main entry point for running analysis scripts.
// It orchestrates configuration, limits, and result collection.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines; a deadline is reported as a timeout.
// - Errors: never returned; every failure is described in ExecuteResult.Error and Err.
// - Ownership: params are read-only; returned ExecuteResult is caller-owned.
type Executor interface {
	// ExecuteCode runs a script with the given parameters.
	// It applies configuration defaults, enforces limits, and collects
	// output, tables and charts.
	ExecuteCode(ctx context.Context, params ExecuteParams) ExecuteResult
}

// DefaultExecutor is the standard implementation of Executor.
type DefaultExecutor struct {
	cfg Config
}

// NewDefaultExecutor creates a new DefaultExecutor with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewDefaultExecutor(cfg Config) (*DefaultExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &DefaultExecutor{cfg: cfg}, nil
}

// ExecuteCode runs a script with the given parameters.
func (e *DefaultExecutor) ExecuteCode(ctx context.Context, params ExecuteParams) ExecuteResult {
	start := time.Now()
	if strings.TrimSpace(params.Code) == "" {
		e.observe(StatusInput, time.Since(start), 0)
		return ExecuteResult{Error: MsgEmptyCode, Err: fmt.Errorf("%w: empty code", ErrInput)}
	}
	if params.Timeout <= 0 {
		params.Timeout = e.cfg.DefaultTimeout
	}

	runID := uuid.NewString()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "code.ExecuteCode",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("code.bytes", len(params.Code)),
			attribute.Int("context.bindings", len(params.Context)),
		))
	defer span.End()

	dir := filepath.Join(e.cfg.ScratchRoot, ScratchPrefix+runID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		err = fmt.Errorf("%w: create scratch dir: %w", ErrConfiguration, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.observe(StatusError, time.Since(start), 0)
		return ExecuteResult{Error: err.Error(), Err: err, DurationMs: time.Since(start).Milliseconds()}
	}

	bindings, dropped := prepareContext(params.Context, e.cfg.MaxRows)
	if len(dropped) > 0 && e.cfg.Logger != nil {
		e.cfg.Logger.Logf("dropped context bindings with unsupported types: %s", strings.Join(dropped, ", "))
	}
	params.Context = bindings
	env := newEnv(dir, e.cfg.MaxStdoutBytes)

	runCtx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()
	result, err := e.cfg.Engine.Execute(runCtx, params, env)
	duration := time.Since(start)

	result.Stdout = env.Stdout()
	result.ScratchDir = dir
	result.DurationMs = duration.Milliseconds()
	result.Tables = capTables(result.Tables, e.cfg.MaxRows)
	result.Charts = listCharts(dir, e.cfg.MaxCharts)

	status := StatusOK
	if err != nil {
		var msg string
		status, msg, err = classify(runCtx, err, params.Timeout)
		result.Value = nil
		result.Error = msg
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
	}
	span.SetAttributes(
		attribute.String("run.status", status),
		attribute.Int("run.charts", len(result.Charts)),
		attribute.Int("run.tables", len(result.Tables)),
	)

	// Log execution summary if logger present
	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("run %s %s in %dms: %d tables, %d charts",
			runID, status, result.DurationMs, len(result.Tables), len(result.Charts))
	}
	e.observe(status, duration, len(result.Charts))
	return result
}

func (e *DefaultExecutor) observe(status string, d time.Duration, charts int) {
	if e.cfg.Observer != nil {
		e.cfg.Observer.ObserveExecution(status, d, charts)
	}
}

// classify maps an engine error to a status, the caller-facing message
// and the classified error.
func classify(ctx context.Context, err error, timeout time.Duration) (string, string, error) {
	var capErr *CapabilityError
	var codeErr *CodeError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		msg := "Execution timed out after " + formatSeconds(timeout)
		return StatusTimeout, msg, fmt.Errorf("%w: %s", ErrLimitExceeded, msg)
	case errors.Is(err, context.Canceled):
		return StatusError, "Execution cancelled.", err
	case errors.Is(err, ErrOutOfMemory):
		return StatusError, MsgOutOfMemory, err
	case errors.As(err, &capErr):
		return StatusCapability, capErr.Error(), err
	case errors.As(err, &codeErr):
		return StatusError, codeErr.Traceback(), err
	case errors.Is(err, ErrInput):
		return StatusInput, err.Error(), err
	}
	return StatusError, err.Error(), fmt.Errorf("%w: %w", ErrCodeExecution, err)
}

// formatSeconds renders d as whole or fractional seconds: "30s", "0.5s".
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}

func capTables(tables map[string]*table.Table, maxRows int) map[string]*table.Table {
	out := make(map[string]*table.Table, len(tables))
	for name, t := range tables {
		if t == nil {
			continue
		}
		if maxRows > 0 && t.NumRows() > maxRows {
			t = t.Head(maxRows)
		}
		out[name] = t
	}
	return out
}

// listCharts returns the PNG files directly inside dir, sorted and cut to
// max entries.
func listCharts(dir string, max int) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil || len(matches) == 0 {
		return []string{}
	}
	sort.Strings(matches)
	if max > 0 && len(matches) > max {
		matches = matches[:max]
	}
	return matches
}
