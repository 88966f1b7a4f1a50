package backend

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jv92admin/fpltools/table"
)

// ErrSchema is wrapped by every SchemaError.
var ErrSchema = errors.New("schema validation failed")

// ColumnRule constrains one column of a table.
type ColumnRule struct {
	Name string

	// Required fails validation when the column is absent.
	Required bool

	// NotNull fails validation when the column holds a missing cell.
	NotNull bool

	// Numeric coerces text cells to numbers and fails on text that does
	// not parse.
	Numeric bool

	// Min and Max bound the numeric cells when set.
	Min, Max *float64
}

// Schema lists the rules for one table. Columns without a rule pass
// through untouched.
type Schema struct {
	Table string
	Rules []ColumnRule
}

// SchemaError reports every rule a table broke.
type SchemaError struct {
	Table    string
	Problems []string
	Hints    []string
}

// Error lists the problems, then any column hints.
func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table '%s' failed validation: %s", e.Table, strings.Join(e.Problems, "; "))
	for _, h := range e.Hints {
		b.WriteString(". ")
		b.WriteString(h)
	}
	return b.String()
}

// Unwrap returns ErrSchema.
func (e *SchemaError) Unwrap() error { return ErrSchema }

func rangeRule(name string, lo, hi float64) ColumnRule {
	return ColumnRule{Name: name, Numeric: true, Min: &lo, Max: &hi}
}

func minRule(name string, lo float64) ColumnRule {
	return ColumnRule{Name: name, Numeric: true, Min: &lo}
}

func notNull(r ColumnRule) ColumnRule {
	r.NotNull = true
	return r
}

func numeric(name string) ColumnRule {
	return ColumnRule{Name: name, Numeric: true}
}

var idRule = ColumnRule{Name: "id", NotNull: true}

// DefaultSchemas holds the rules for the FPL tables, keyed by table name.
var DefaultSchemas = map[string]Schema{
	"players": {Table: "players", Rules: []ColumnRule{
		idRule,
		{Name: "web_name", NotNull: true},
		rangeRule("price", 0, 20),
		numeric("total_points"),
		rangeRule("form", 0, 20),
		rangeRule("selected_by_percent", 0, 100),
		minRule("minutes", 0),
		minRule("goals_scored", 0),
		minRule("assists", 0),
		minRule("clean_sheets", 0),
		minRule("bonus", 0),
	}},
	"fixtures": {Table: "fixtures", Rules: []ColumnRule{
		idRule,
		rangeRule("gameweek", 1, 38),
		rangeRule("home_difficulty", 1, 5),
		rangeRule("away_difficulty", 1, 5),
	}},
	"player_gameweeks": {Table: "player_gameweeks", Rules: []ColumnRule{
		idRule,
		{Name: "player_id", NotNull: true},
		notNull(rangeRule("gameweek", 1, 38)),
		numeric("total_points"),
		rangeRule("minutes", 0, 120),
	}},
	"player_snapshots": {Table: "player_snapshots", Rules: []ColumnRule{
		idRule,
		{Name: "player_id", NotNull: true},
		rangeRule("price", 0, 20),
	}},
	"squads": {Table: "squads", Rules: []ColumnRule{
		idRule,
		{Name: "player_id", NotNull: true},
		rangeRule("gameweek", 1, 38),
		rangeRule("slot", 1, 15),
		rangeRule("multiplier", 0, 3),
	}},
	"league_standings": {Table: "league_standings", Rules: []ColumnRule{
		idRule,
		rangeRule("gameweek", 1, 38),
		minRule("rank", 1),
		numeric("total_points"),
	}},
	"transfers": {Table: "transfers", Rules: []ColumnRule{
		idRule,
		rangeRule("gameweek", 1, 38),
	}},
	"manager_seasons": {Table: "manager_seasons", Rules: []ColumnRule{
		idRule,
		rangeRule("gameweek", 1, 38),
		numeric("total_points"),
	}},
}

// Validate checks t against the rules and returns it with text cells of
// numeric columns converted to numbers. Problems are collected across all
// rules into one *SchemaError.
func (s Schema) Validate(t *table.Table) (*table.Table, error) {
	var problems []string
	for _, r := range s.Rules {
		c, err := t.Column(r.Name)
		if err != nil {
			if r.Required {
				problems = append(problems, fmt.Sprintf("column '%s' is required", r.Name))
			}
			continue
		}
		if r.Numeric && c.Kind() == table.String {
			coerced, err := coerceNumeric(c)
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			if t, err = t.WithColumn(coerced); err != nil {
				return nil, err
			}
			c = coerced
		}
		problems = append(problems, r.check(c)...)
	}
	if len(problems) == 0 {
		return t, nil
	}
	return nil, &SchemaError{Table: s.Table, Problems: problems, Hints: s.hints(t)}
}

func (r ColumnRule) check(c *table.Column) []string {
	var out []string
	nulls, below, above := 0, 0, 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			nulls++
			continue
		}
		f, ok := c.Float(i)
		if !ok {
			continue
		}
		if r.Min != nil && f < *r.Min {
			below++
		}
		if r.Max != nil && f > *r.Max {
			above++
		}
	}
	if r.NotNull && nulls > 0 {
		out = append(out, fmt.Sprintf("column '%s' has %d missing values", r.Name, nulls))
	}
	if r.Numeric && !c.Kind().Numeric() && c.Kind() != table.Null {
		out = append(out, fmt.Sprintf("column '%s' must be numeric, got %s", r.Name, c.Kind()))
	}
	if below+above > 0 {
		out = append(out, fmt.Sprintf("column '%s' has %d values outside %s", r.Name, below+above, r.bounds()))
	}
	return out
}

func (r ColumnRule) bounds() string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("[%s, %s]", table.FormatValue(*r.Min), table.FormatValue(*r.Max))
	case r.Min != nil:
		return ">= " + table.FormatValue(*r.Min)
	}
	return "<= " + table.FormatValue(*r.Max)
}

// coerceNumeric parses a text column into floats.
func coerceNumeric(c *table.Column) (*table.Column, error) {
	out := make([]float64, c.Len())
	for i := range out {
		if c.IsNull(i) {
			out[i] = math.NaN()
			continue
		}
		s := strings.TrimSpace(c.String(i))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column '%s' cannot be read as numbers: %q at row %d", c.Name(), s, i)
		}
		out[i] = f
	}
	return table.FloatColumn(c.Name(), out), nil
}

// hints suggests canonical names for columns of t that look like a
// mistyped rule column.
func (s Schema) hints(t *table.Table) []string {
	ruled := make(map[string]bool, len(s.Rules))
	for _, r := range s.Rules {
		ruled[r.Name] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range t.Names() {
		h := ColumnHint(name)
		if h == "" || ruled[name] || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// SchemaFor returns the rules for a table ID's table name.
func SchemaFor(schemas map[string]Schema, id string) (Schema, bool) {
	_, name, err := ParseTableID(id)
	if err != nil {
		return Schema{}, false
	}
	s, ok := schemas[name]
	return s, ok
}
