package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/toolfoundation/model"

	"github.com/jv92admin/fpltools/table"
)

// ErrInvalidTableID is returned for malformed table IDs.
var ErrInvalidTableID = errors.New("invalid table ID format")

// Aggregator combines tables from multiple sources.
type Aggregator struct {
	registry *Registry
}

// NewAggregator creates a new table aggregator.
func NewAggregator(registry *Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// Registry returns the underlying registry.
func (a *Aggregator) Registry() *Registry {
	return a.registry
}

// ListAllTables returns tables from all enabled sources.
func (a *Aggregator) ListAllTables(ctx context.Context) ([]TableInfo, error) {
	all := make([]TableInfo, 0)
	for _, s := range a.registry.ListEnabled() {
		tables, err := s.ListTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables of %s: %w", s.Name(), err)
		}
		for i := range tables {
			if tables[i].Source == "" {
				tables[i].Source = s.Name()
			}
			all = append(all, tables[i])
		}
	}
	return all, nil
}

// Load reads a table by ID. A "source:table" ID names the source; a bare
// table name is looked up in every enabled source in name order and the
// first source holding it wins.
func (a *Aggregator) Load(ctx context.Context, id string, q Query) (*table.Table, error) {
	sourceName, name, err := ParseTableID(id)
	if err != nil {
		return nil, err
	}
	if sourceName != "" {
		s, ok := a.registry.Get(sourceName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceName)
		}
		if !s.Enabled() {
			return nil, fmt.Errorf("%w: %s", ErrSourceDisabled, sourceName)
		}
		return s.Load(ctx, name, q)
	}

	for _, s := range a.registry.ListEnabled() {
		t, err := s.Load(ctx, name, q)
		if errors.Is(err, ErrTableNotFound) {
			continue
		}
		return t, err
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
}

// ParseTableID splits a table ID into source and table name. A bare name
// yields an empty source.
func ParseTableID(id string) (sourceName, name string, err error) {
	sourceName, name, err = model.ParseToolID(id)
	if err != nil || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTableID, id)
	}
	return sourceName, name, nil
}

// FormatTableID builds a table ID from source and table name.
func FormatTableID(sourceName, name string) string {
	if sourceName == "" {
		return name
	}
	return fmt.Sprintf("%s:%s", sourceName, name)
}
