package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/runtime/scriptengine"
	"github.com/jv92admin/fpltools/table"
)

const tracerName = "github.com/jv92admin/fpltools/exec"

// BindingPrefix prefixes the script name of every loaded table.
const BindingPrefix = "df_"

// Exec is the facade the agent tools call. It loads tables, runs the
// executor and shapes the result into an Envelope.
type Exec struct {
	opts Options
}

// New creates a new Exec instance with the given options.
func New(opts Options) (*Exec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()
	if opts.Catalog == nil {
		catalog, err := NewCatalog(scriptengine.Functions())
		if err != nil {
			return nil, fmt.Errorf("exec: build catalog: %w", err)
		}
		opts.Catalog = catalog
	}
	return &Exec{opts: opts}, nil
}

// Analyze loads the requested tables and runs req.Code against them.
// Load and run failures are reported in the Envelope; only a request
// without code returns an error.
func (x *Exec) Analyze(ctx context.Context, req Request) (Envelope, error) {
	if strings.TrimSpace(req.Code) == "" {
		return Envelope{}, fmt.Errorf("%w: no code provided", ErrInvalidRequest)
	}

	bindings, loaded, err := x.bindTables(ctx, req)
	if err != nil {
		return Envelope{Error: err.Error(), Err: err}, nil
	}
	for name, v := range req.Context {
		if _, taken := bindings[name]; !taken {
			bindings[name] = v
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = x.opts.DefaultTimeout
	}
	res := x.opts.Executor.ExecuteCode(ctx, code.ExecuteParams{
		Code:    req.Code,
		Context: bindings,
		Timeout: timeout,
	})
	env := x.envelope(res, loaded)

	x.opts.Logger.Info("analysis finished",
		slog.Bool("ok", env.OK()),
		slog.Int64("duration_ms", env.DurationMs),
		slog.Int("tables", len(env.Tables)),
		slog.Int("charts", len(env.Charts)),
	)
	return env, nil
}

// Plot runs req like Analyze and warns when no chart was written.
func (x *Exec) Plot(ctx context.Context, req Request) (Envelope, error) {
	env, err := x.Analyze(ctx, req)
	if err != nil {
		return env, err
	}
	env.Title = req.Title
	if env.Title == "" {
		env.Title = "Chart"
	}
	if env.OK() && len(env.Charts) == 0 {
		env.Warning = NoChartWarning
	}
	return env, nil
}

// Cleanup removes the scratch directory of a finished run. It refuses
// directories that do not look like executor scratch directories.
func (x *Exec) Cleanup(env Envelope) error {
	if env.ScratchDir == "" {
		return nil
	}
	if !strings.HasPrefix(filepath.Base(env.ScratchDir), code.ScratchPrefix) {
		return fmt.Errorf("exec: refusing to remove %s", env.ScratchDir)
	}
	return os.RemoveAll(env.ScratchDir)
}

// Load returns a table by ID through the cache, then applies q.
func (x *Exec) Load(ctx context.Context, id string, q backend.Query) (*table.Table, error) {
	t, err := x.cached(ctx, id)
	if err != nil {
		return nil, err
	}
	return q.Apply(t)
}

// ListTables lists the tables of every enabled source.
func (x *Exec) ListTables(ctx context.Context) ([]backend.TableInfo, error) {
	if x.opts.Sources == nil {
		return nil, ErrNoSources
	}
	return x.opts.Sources.ListAllTables(ctx)
}

// Cache returns the table cache.
func (x *Exec) Cache() *TableCache {
	return x.opts.Cache
}

// Catalog returns the function catalog.
func (x *Exec) Catalog() *Catalog {
	return x.opts.Catalog
}

// bindTables loads every requested table, then adds every other cached
// table, each under BindingName.
func (x *Exec) bindTables(ctx context.Context, req Request) (map[string]any, []string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "exec.bindTables")
	defer span.End()

	bindings := make(map[string]any, len(req.Tables))
	for _, id := range req.Tables {
		t, err := x.Load(ctx, id, req.Queries[id])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, nil, fmt.Errorf("load %s: %w", id, err)
		}
		bindings[BindingName(id)] = t
	}
	for _, id := range x.opts.Cache.Names() {
		name := BindingName(id)
		if _, taken := bindings[name]; taken {
			continue
		}
		if t, ok := x.opts.Cache.Get(id); ok {
			bindings[name] = t
		}
	}

	loaded := make([]string, 0, len(bindings))
	for name := range bindings {
		loaded = append(loaded, name)
	}
	sort.Strings(loaded)
	span.SetAttributes(
		attribute.Int("tables.requested", len(req.Tables)),
		attribute.Int("tables.bound", len(loaded)),
	)
	return bindings, loaded, nil
}

// cached returns the unfiltered table for id, loading and validating it
// on a miss.
func (x *Exec) cached(ctx context.Context, id string) (*table.Table, error) {
	if t, ok := x.opts.Cache.Get(id); ok {
		x.observe(LoadHit)
		return t, nil
	}
	if x.opts.Sources == nil {
		x.observe(LoadError)
		return nil, fmt.Errorf("%w: %s", backend.ErrTableNotFound, id)
	}
	t, err := x.opts.Sources.Load(ctx, id, backend.Query{})
	if err != nil {
		x.observe(LoadError)
		if errors.Is(err, backend.ErrTableNotFound) {
			x.opts.Logger.Warn("table not found", slog.String("table", id))
		}
		return nil, err
	}
	if schema, ok := backend.SchemaFor(x.opts.Schemas, id); ok {
		if t, err = schema.Validate(t); err != nil {
			x.observe(LoadError)
			x.opts.Logger.Warn("table failed validation",
				slog.String("table", id),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
	}
	x.observe(LoadMiss)
	x.opts.Cache.Set(id, t)
	x.opts.Logger.Debug("table loaded",
		slog.String("table", id),
		slog.Int("rows", t.NumRows()),
	)
	return t, nil
}

func (x *Exec) observe(outcome string) {
	if x.opts.Observer != nil {
		x.opts.Observer.ObserveTableLoad(outcome)
	}
}

// BindingName returns the script name for a table ID: "season:players"
// and "players" both bind as df_players. Characters that cannot appear in
// an identifier become underscores.
func BindingName(id string) string {
	if _, name, err := backend.ParseTableID(id); err == nil {
		id = name
	}
	var b strings.Builder
	b.WriteString(BindingPrefix)
	for _, r := range id {
		switch {
		case r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
