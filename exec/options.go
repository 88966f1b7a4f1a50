package exec

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/code"
)

// Default configuration values.
const (
	DefaultPreviewRows  = 10
	DefaultSummaryChars = 500
	DefaultTimeout      = 30 * time.Second
)

// Errors returned by Options validation and request checks.
var (
	ErrExecutorRequired = errors.New("exec: Executor is required")
	ErrInvalidRequest   = errors.New("exec: invalid request")
	ErrNoSources        = errors.New("exec: no data sources configured")
)

// Table load outcomes reported to an Observer.
const (
	LoadHit   = "hit"
	LoadMiss  = "miss"
	LoadError = "error"
)

// Observer receives one report per table load.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: observation is best-effort and must not panic.
type Observer interface {
	ObserveTableLoad(outcome string)
}

// Options configures an Exec instance.
type Options struct {
	// Executor runs the scripts.
	// Required.
	Executor code.Executor

	// Sources resolves table IDs on cache misses.
	// Optional; without it only cached tables can be bound.
	Sources *backend.Aggregator

	// Cache holds loaded tables across requests.
	// Default: a new empty cache.
	Cache *TableCache

	// Catalog indexes the sandbox functions.
	// Default: NewCatalog(scriptengine.Functions()).
	Catalog *Catalog

	// Logger receives load and run events.
	// Default: slog.Default().
	Logger *slog.Logger

	// Schemas validates freshly loaded tables, keyed by table name. A
	// table without an entry loads unchecked. An empty non-nil map turns
	// validation off.
	// Default: backend.DefaultSchemas.
	Schemas map[string]backend.Schema

	// Observer receives table load outcomes.
	// Optional.
	Observer Observer

	// PreviewRows is the number of rows kept in each table preview.
	// Default: 10
	PreviewRows int

	// SummaryChars caps the rendered result value.
	// Default: 500
	SummaryChars int

	// DefaultTimeout applies when a request sets none.
	// Default: 30s
	DefaultTimeout time.Duration
}

// validate checks that required fields are set.
func (o *Options) validate() error {
	if o.Executor == nil {
		return ErrExecutorRequired
	}
	if o.PreviewRows < 0 || o.SummaryChars < 0 || o.DefaultTimeout < 0 {
		return errors.New("exec: limits must not be negative")
	}
	return nil
}

// applyDefaults sets default values for unset optional fields.
func (o *Options) applyDefaults() {
	if o.Cache == nil {
		o.Cache = NewTableCache()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Schemas == nil {
		o.Schemas = backend.DefaultSchemas
	}
	if o.PreviewRows == 0 {
		o.PreviewRows = DefaultPreviewRows
	}
	if o.SummaryChars == 0 {
		o.SummaryChars = DefaultSummaryChars
	}
	if o.DefaultTimeout == 0 {
		o.DefaultTimeout = DefaultTimeout
	}
}

// Request describes one analysis run.
type Request struct {
	// Code is the script source.
	Code string `json:"code"`

	// Tables lists table IDs ("source:table" or a bare name) to load and
	// bind as df_<table>. Every other cached table is bound too.
	Tables []string `json:"tables,omitempty"`

	// Queries narrows individual tables, keyed by the ID used in Tables.
	Queries map[string]backend.Query `json:"queries,omitempty"`

	// Context binds extra scalar values by name.
	Context map[string]any `json:"context,omitempty"`

	// Timeout overrides Options.DefaultTimeout for this run.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Title labels a plot response.
	Title string `json:"title,omitempty"`
}
