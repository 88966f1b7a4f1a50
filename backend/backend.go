package backend

import (
	"context"
	"errors"

	"github.com/jv92admin/fpltools/table"
)

// Common errors for source operations.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceDisabled = errors.New("source disabled")
	ErrTableNotFound  = errors.New("table not found in source")
	ErrInvalidQuery   = errors.New("invalid query")
)

// Source defines a provider of named tables.
// Sources can be in-process tables, CSV directories, or custom implementations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Errors: use ErrSourceDisabled/ErrTableNotFound/ErrInvalidQuery where applicable.
// - Load returns a table the caller may keep; tables are immutable.
type Source interface {
	// Kind returns the source type (e.g., "local", "csvdir").
	Kind() string

	// Name returns the unique instance name for this source.
	Name() string

	// Enabled returns whether this source is currently enabled.
	Enabled() bool

	// ListTables returns the tables available from this source.
	ListTables(ctx context.Context) ([]TableInfo, error)

	// Load reads a table and applies q to it.
	Load(ctx context.Context, name string, q Query) (*table.Table, error)

	// Start initializes the source.
	Start(ctx context.Context) error

	// Stop releases the source's resources.
	Stop() error
}

// ConfigurableSource can be configured from raw bytes (YAML/JSON).
//
// Contract:
// - Configure must validate config and return error on invalid input.
type ConfigurableSource interface {
	Source

	Configure(raw []byte) error
}

// Factory creates source instances.
type Factory func(name string) (Source, error)

// TableInfo describes one table offered by a source.
type TableInfo struct {
	Source  string   `json:"source"`
	Name    string   `json:"name"`
	Columns []string `json:"columns,omitempty"`
	Rows    int      `json:"rows"`
}

// ID returns the "source:table" identifier.
func (i TableInfo) ID() string {
	return FormatTableID(i.Source, i.Name)
}

// Describe builds a TableInfo for t.
func Describe(source, name string, t *table.Table) TableInfo {
	return TableInfo{Source: source, Name: name, Columns: t.Names(), Rows: t.NumRows()}
}
