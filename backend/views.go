package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jv92admin/fpltools/table"
)

// ViewsKind is the source kind reported by Views.
const ViewsKind = "views"

// Join pulls columns from another table of the base source into a view by
// matching the view's Key column against the other table's id.
type Join struct {
	Key    string
	Table  string
	Select []string
	// Rename maps a selected column to its name in the view.
	Rename map[string]string
}

// View is a base table with joined lookup columns.
type View struct {
	Name  string
	Base  string
	Joins []Join
}

// DefaultViews are the enriched FPL tables: ids resolved to the names
// people ask about.
var DefaultViews = []View{
	{Name: "players", Base: "players", Joins: []Join{
		{Key: "team_id", Table: "teams", Select: []string{"short_name"}, Rename: map[string]string{"short_name": "team"}},
		{Key: "position_id", Table: "positions", Select: []string{"short_name"}, Rename: map[string]string{"short_name": "position"}},
	}},
	{Name: "squad", Base: "squads", Joins: []Join{
		{Key: "player_id", Table: "players", Select: []string{"web_name", "price", "form", "total_points"}, Rename: map[string]string{
			"web_name":     "player_name",
			"price":        "player_price",
			"form":         "player_form",
			"total_points": "player_total_points",
		}},
	}},
	{Name: "player_form", Base: "player_gameweeks", Joins: []Join{
		{Key: "player_id", Table: "players", Select: []string{"web_name", "team_id"}, Rename: map[string]string{"web_name": "player_name"}},
	}},
	{Name: "standings", Base: "league_standings"},
	{Name: "fixtures", Base: "fixtures", Joins: []Join{
		{Key: "home_team_id", Table: "teams", Select: []string{"short_name"}, Rename: map[string]string{"short_name": "home_team"}},
		{Key: "away_team_id", Table: "teams", Select: []string{"short_name"}, Rename: map[string]string{"short_name": "away_team"}},
	}},
}

// ViewsConfig configures a Views source.
type ViewsConfig struct {
	Base    string `yaml:"base"`
	Enabled *bool  `yaml:"enabled"`
}

// Views serves DefaultViews (or its own view list) over the tables of
// another registered source.
//
// Joins are left joins: rows whose key has no match keep missing cells.
// A join is skipped when the base table lacks its key column or the base
// source has no such lookup table. A joined column whose name is already
// taken gets a "_<table>" suffix.
type Views struct {
	name     string
	registry *Registry
	views    map[string]View
	order    []string

	mu      sync.RWMutex
	base    string
	enabled bool
}

var _ ConfigurableSource = (*Views)(nil)

// NewViews creates a views source that resolves base through registry.
// With no views given it serves DefaultViews.
func NewViews(name, base string, registry *Registry, views ...View) *Views {
	if len(views) == 0 {
		views = DefaultViews
	}
	v := &Views{
		name:     name,
		registry: registry,
		views:    make(map[string]View, len(views)),
		base:     base,
		enabled:  true,
	}
	for _, view := range views {
		v.views[view.Name] = view
		v.order = append(v.order, view.Name)
	}
	return v
}

// ViewsFactory returns a Factory creating Views sources bound to registry.
// The base source is set through Configure.
func ViewsFactory(registry *Registry) Factory {
	return func(name string) (Source, error) {
		return NewViews(name, "", registry), nil
	}
}

// Kind returns the source kind.
func (v *Views) Kind() string { return ViewsKind }

// Name returns the source instance name.
func (v *Views) Name() string { return v.name }

// Enabled reports whether the views source and its base are enabled.
func (v *Views) Enabled() bool {
	v.mu.RLock()
	enabled := v.enabled
	v.mu.RUnlock()
	if !enabled {
		return false
	}
	base, err := v.baseSource()
	return err == nil && base.Enabled()
}

// Configure reads a ViewsConfig.
func (v *Views) Configure(raw []byte) error {
	var cfg ViewsConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("views config: %w", err)
	}
	if cfg.Base == "" {
		return errors.New("views config: base is required")
	}
	if cfg.Base == v.name {
		return errors.New("views config: base cannot be the views source itself")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.base = cfg.Base
	if cfg.Enabled != nil {
		v.enabled = *cfg.Enabled
	}
	return nil
}

// Start checks that the base source is registered.
func (v *Views) Start(_ context.Context) error {
	_, err := v.baseSource()
	return err
}

// Stop is a no-op; the base source is stopped by its own registration.
func (v *Views) Stop() error { return nil }

func (v *Views) baseSource() (Source, error) {
	v.mu.RLock()
	name := v.base
	v.mu.RUnlock()
	s, ok := v.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: views base %q", ErrSourceNotFound, name)
	}
	return s, nil
}

// ListTables lists the views whose base table the base source has.
func (v *Views) ListTables(ctx context.Context) ([]TableInfo, error) {
	base, err := v.baseSource()
	if err != nil {
		return nil, err
	}
	tables, err := base.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]TableInfo, len(tables))
	for _, info := range tables {
		byName[info.Name] = info
	}

	var out []TableInfo
	for _, name := range v.order {
		view := v.views[name]
		info, ok := byName[view.Base]
		if !ok {
			continue
		}
		taken := make(map[string]bool, len(info.Columns))
		cols := append([]string(nil), info.Columns...)
		for _, c := range cols {
			taken[c] = true
		}
		for _, j := range view.Joins {
			if !taken[j.Key] {
				continue
			}
			if _, ok := byName[j.Table]; !ok {
				continue
			}
			for _, sel := range j.Select {
				col := j.outputName(sel, taken)
				taken[col] = true
				cols = append(cols, col)
			}
		}
		out = append(out, TableInfo{Source: v.name, Name: view.Name, Columns: cols, Rows: info.Rows})
	}
	return out, nil
}

// Load builds the named view and applies q to it. Filters on base columns
// are pushed down to the base source; the rest of q runs on the joined
// table.
func (v *Views) Load(ctx context.Context, name string, q Query) (*table.Table, error) {
	view, ok := v.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	base, err := v.baseSource()
	if err != nil {
		return nil, err
	}

	joined := view.outputs()
	var pushed Query
	rest := Query{Columns: q.Columns, OrderBy: q.OrderBy, Desc: q.Desc, Limit: q.Limit}
	for _, f := range q.Filters {
		if joined[f.Field] {
			rest.Filters = append(rest.Filters, f)
			continue
		}
		pushed.Filters = append(pushed.Filters, f)
	}

	t, err := base.Load(ctx, view.Base, pushed)
	if err != nil {
		return nil, err
	}
	for _, j := range view.Joins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t, err = j.apply(ctx, base, t); err != nil {
			return nil, err
		}
	}
	return rest.Apply(t)
}

// outputs names every column a view's joins may add.
func (view View) outputs() map[string]bool {
	out := make(map[string]bool)
	for _, j := range view.Joins {
		for _, sel := range j.Select {
			out[j.renamed(sel)] = true
			out[j.renamed(sel)+"_"+j.Table] = true
		}
	}
	return out
}

func (j Join) renamed(col string) string {
	if to, ok := j.Rename[col]; ok {
		return to
	}
	return col
}

func (j Join) outputName(col string, taken map[string]bool) string {
	name := j.renamed(col)
	if taken[name] {
		name += "_" + j.Table
	}
	return name
}

// apply left-joins the lookup table onto t.
func (j Join) apply(ctx context.Context, src Source, t *table.Table) (*table.Table, error) {
	keys, err := t.Unique(j.Key)
	if err != nil {
		return t, nil
	}
	var ids []any
	for _, k := range keys {
		if k != nil {
			ids = append(ids, k)
		}
	}
	if len(ids) == 0 {
		return t, nil
	}

	lookup, err := src.Load(ctx, j.Table, Query{Filters: []Filter{{Field: "id", Op: OpIn, Value: ids}}})
	if errors.Is(err, ErrTableNotFound) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("join %s on %s: %w", j.Table, j.Key, err)
	}

	idCol, err := lookup.Column("id")
	if err != nil {
		return nil, fmt.Errorf("join %s on %s: %w", j.Table, j.Key, err)
	}
	rowOf := make(map[string]int, idCol.Len())
	for i := 0; i < idCol.Len(); i++ {
		if idCol.IsNull(i) {
			continue
		}
		if _, dup := rowOf[table.FormatValue(idCol.Value(i))]; !dup {
			rowOf[table.FormatValue(idCol.Value(i))] = i
		}
	}

	keyCol, _ := t.Column(j.Key)
	taken := make(map[string]bool, t.NumCols())
	for _, name := range t.Names() {
		taken[name] = true
	}
	for _, sel := range j.Select {
		from, err := lookup.Column(sel)
		if err != nil {
			continue
		}
		values := make([]any, t.NumRows())
		for i := range values {
			if keyCol.IsNull(i) {
				continue
			}
			if row, ok := rowOf[table.FormatValue(keyCol.Value(i))]; ok {
				values[i] = from.Value(row)
			}
		}
		name := j.outputName(sel, taken)
		c, err := table.NewColumn(name, values)
		if err != nil {
			return nil, err
		}
		if t, err = t.WithColumn(c); err != nil {
			return nil, err
		}
		taken[name] = true
	}
	return t, nil
}
