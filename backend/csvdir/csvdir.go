// Package csvdir provides a source that serves every <table>.csv file in a
// directory.
//
// Headers are trimmed, case folded and have spaces replaced with
// underscores, so "Total Points" loads as total_points. Cell types are
// inferred per column: a column whose non-empty cells all parse as
// integers is an int column, numbers with a fraction make it a float
// column, true/false make it a bool column, and anything else keeps the
// column as text. Empty cells are missing.
//
// Configuration (YAML or JSON):
//
//	dir: ./data
//	enabled: true
package csvdir

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/table"
)

// Kind is the source kind reported by Source.
const Kind = "csvdir"

// Config configures a Source.
type Config struct {
	Dir     string `yaml:"dir"`
	Enabled *bool  `yaml:"enabled"`
}

// Source implements backend.ConfigurableSource over a directory of CSV files.
type Source struct {
	name    string
	mu      sync.RWMutex
	dir     string
	enabled bool
}

var _ backend.ConfigurableSource = (*Source)(nil)

// New creates a source reading from dir.
func New(name, dir string) *Source {
	return &Source{name: name, dir: dir, enabled: true}
}

// Factory is a backend.Factory for csvdir sources. The directory is set
// through Configure.
func Factory(name string) (backend.Source, error) {
	return New(name, ""), nil
}

// Kind returns the source kind.
func (s *Source) Kind() string { return Kind }

// Name returns the source instance name.
func (s *Source) Name() string { return s.name }

// Enabled returns whether the source is enabled.
func (s *Source) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Dir returns the directory the source reads.
func (s *Source) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Configure applies a YAML or JSON Config.
func (s *Source) Configure(raw []byte) error {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parse csvdir config: %w", err)
	}
	if cfg.Dir == "" {
		return errors.New("csvdir: dir is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = cfg.Dir
	if cfg.Enabled != nil {
		s.enabled = *cfg.Enabled
	}
	return nil
}

// Start checks that the directory exists.
func (s *Source) Start(_ context.Context) error {
	dir := s.Dir()
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("csvdir %s: %w", s.name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("csvdir %s: %s is not a directory", s.name, dir)
	}
	return nil
}

// Stop is a no-op.
func (s *Source) Stop() error { return nil }

// ListTables reads every CSV file in the directory, sorted by name.
func (s *Source) ListTables(ctx context.Context) ([]backend.TableInfo, error) {
	paths, err := filepath.Glob(filepath.Join(s.Dir(), "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]backend.TableInfo, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(p), ".csv")
		t, err := readFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(p), err)
		}
		out = append(out, backend.Describe(s.name, name, t))
	}
	return out, nil
}

// Load reads <dir>/<name>.csv and applies q.
func (s *Source) Load(ctx context.Context, name string, q backend.Query) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, backend.ErrSourceDisabled
	}
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", backend.ErrInvalidTableID, name)
	}
	t, err := readFile(filepath.Join(s.Dir(), name+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", backend.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return q.Apply(t)
}

func readFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read parses CSV text with a header row into a table.
func Read(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return table.Empty(), nil
	}

	header := records[0]
	rows := records[1:]
	cols := make([]*table.Column, len(header))
	for j, h := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		c, err := table.NewColumn(NormalizeHeader(h), inferColumn(cells))
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}
	return table.New(cols...)
}

// NormalizeHeader trims and case folds a header and replaces spaces with
// underscores.
func NormalizeHeader(h string) string {
	h = cases.Fold().String(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// inferColumn parses cells into one consistent kind. Ints are widened to
// floats when the column also holds fractions; any other mix falls back to
// the raw text.
func inferColumn(cells []string) []any {
	values := make([]any, len(cells))
	var ints, floats, bools, texts int
	for i, c := range cells {
		v := backend.ParseValue(c)
		values[i] = v
		switch v.(type) {
		case int64:
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case string:
			texts++
		}
	}

	switch {
	case texts > 0 || bools > 0 && ints+floats > 0:
		for i, c := range cells {
			if values[i] != nil {
				values[i] = strings.TrimSpace(c)
			}
		}
	case floats > 0 && ints > 0:
		for i, v := range values {
			if n, ok := v.(int64); ok {
				values[i] = float64(n)
			}
		}
	}
	return values
}
