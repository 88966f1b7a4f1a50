// Package local provides a source serving tables held in memory.
package local

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/table"
)

// Kind is the source kind reported by Source.
const Kind = "local"

// Source implements backend.Source for tables registered in process.
type Source struct {
	name    string
	enabled bool
	tables  map[string]*table.Table
	mu      sync.RWMutex
}

var _ backend.Source = (*Source)(nil)

// New creates a new local source.
func New(name string) *Source {
	return &Source{
		name:    name,
		enabled: true,
		tables:  make(map[string]*table.Table),
	}
}

// Kind returns the source kind.
func (s *Source) Kind() string {
	return Kind
}

// Name returns the source instance name.
func (s *Source) Name() string {
	return s.name
}

// Enabled returns whether the source is enabled.
func (s *Source) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled enables or disables the source.
func (s *Source) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Put registers or replaces a table.
func (s *Source) Put(name string, t *table.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = t
}

// Remove deletes a table.
func (s *Source) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, name)
}

// ListTables returns the registered tables sorted by name.
func (s *Source) ListTables(_ context.Context) ([]backend.TableInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]backend.TableInfo, 0, len(s.tables))
	for name, t := range s.tables {
		out = append(out, backend.Describe(s.name, name, t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Load returns a registered table with q applied.
func (s *Source) Load(ctx context.Context, name string, q backend.Query) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	enabled := s.enabled
	t, ok := s.tables[name]
	s.mu.RUnlock()

	if !enabled {
		return nil, backend.ErrSourceDisabled
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrTableNotFound, name)
	}
	return q.Apply(t)
}

// Start is a no-op for local sources.
func (s *Source) Start(_ context.Context) error {
	return nil
}

// Stop is a no-op for local sources.
func (s *Source) Stop() error {
	return nil
}
