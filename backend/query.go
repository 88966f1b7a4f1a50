package backend

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jv92admin/fpltools/table"
)

// Filter operators.
const (
	OpEq    = "eq"
	OpNeq   = "neq"
	OpGt    = "gt"
	OpGte   = "gte"
	OpLt    = "lt"
	OpLte   = "lte"
	OpIn    = "in"
	OpILike = "ilike"
	OpIs    = "is"
)

var validOps = map[string]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true,
	OpLte: true, OpIn: true, OpILike: true, OpIs: true,
}

// Filter keeps the rows whose Field satisfies Op against Value.
type Filter struct {
	Field string `json:"field" yaml:"field"`
	Op    string `json:"op" yaml:"op"`
	Value any    `json:"value" yaml:"value"`
}

// Query narrows a loaded table. The zero Query returns the table unchanged.
type Query struct {
	Filters []Filter `json:"filters,omitempty" yaml:"filters"`
	Columns []string `json:"columns,omitempty" yaml:"columns"`
	OrderBy string   `json:"order_by,omitempty" yaml:"order_by"`
	Desc    bool     `json:"desc,omitempty" yaml:"desc"`
	Limit   int      `json:"limit,omitempty" yaml:"limit"`
}

// IsZero reports whether q leaves a table unchanged.
func (q Query) IsZero() bool {
	return len(q.Filters) == 0 && len(q.Columns) == 0 && q.OrderBy == "" && q.Limit == 0
}

// Validate checks operators and limits without looking at any table.
func (q Query) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidQuery)
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("%w: filter field is required", ErrInvalidQuery)
		}
		if !validOps[f.Op] {
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, f.Op)
		}
		switch f.Op {
		case OpIn:
			if _, ok := f.Value.([]any); !ok {
				if _, ok := f.Value.([]string); !ok {
					return fmt.Errorf("%w: 'in' needs a list value", ErrInvalidQuery)
				}
			}
		case OpILike:
			if _, ok := f.Value.(string); !ok {
				return fmt.Errorf("%w: 'ilike' needs a string pattern", ErrInvalidQuery)
			}
		}
	}
	return nil
}

// Apply runs q against t: filters, then ordering, then column selection,
// then the row limit. Unknown columns are reported as *table.ColumnError
// carrying a ColumnHint.
func (q Query) Apply(t *table.Table) (*table.Table, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.IsZero() {
		return t, nil
	}

	for _, f := range q.Filters {
		if err := requireColumn(t, f.Field); err != nil {
			return nil, err
		}
		match, err := f.matcher()
		if err != nil {
			return nil, err
		}
		field := f.Field
		t = t.Filter(func(r table.Row) bool { return match(r.Get(field)) })
	}

	if q.OrderBy != "" {
		if err := requireColumn(t, q.OrderBy); err != nil {
			return nil, err
		}
		sorted, err := t.SortBy(table.SortKey{Column: q.OrderBy, Desc: q.Desc})
		if err != nil {
			return nil, err
		}
		t = sorted
	}

	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if err := requireColumn(t, c); err != nil {
				return nil, err
			}
		}
		selected, err := t.Select(q.Columns...)
		if err != nil {
			return nil, err
		}
		t = selected
	}

	if q.Limit > 0 {
		t = t.Head(q.Limit)
	}
	return t, nil
}

func requireColumn(t *table.Table, name string) error {
	err := t.Require(name)
	var colErr *table.ColumnError
	if errors.As(err, &colErr) {
		colErr.Hint = ColumnHint(name)
	}
	return err
}

// matcher compiles the filter into a predicate over one cell. Missing
// cells only ever match "is null" and "neq".
func (f Filter) matcher() (func(any) bool, error) {
	switch f.Op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		want, err := table.Normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		switch f.Op {
		case OpEq:
			return func(v any) bool { return table.Equal(v, want) }, nil
		case OpNeq:
			return func(v any) bool { return !table.Equal(v, want) }, nil
		}
		return func(v any) bool { return compares(f.Op, v, want) }, nil
	case OpIn:
		var set []any
		for _, item := range listValues(f.Value) {
			want, err := table.Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
			}
			set = append(set, want)
		}
		return func(v any) bool {
			for _, want := range set {
				if table.Equal(v, want) {
					return true
				}
			}
			return false
		}, nil
	case OpILike:
		re, err := likePattern(f.Value.(string))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		return func(v any) bool {
			s, ok := v.(string)
			return ok && re.MatchString(s)
		}, nil
	case OpIs:
		return isMatcher(f.Value)
	}
	return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, f.Op)
}

// compares orders v against want. Values of different kinds never match.
func compares(op string, v, want any) bool {
	if v == nil || want == nil {
		return false
	}
	_, vnum := table.ToFloat(v)
	_, wnum := table.ToFloat(want)
	_, vstr := v.(string)
	_, wstr := want.(string)
	if vnum != wnum || vstr != wstr {
		return false
	}
	c := table.Compare(v, want)
	switch op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	}
	return c <= 0
}

func listValues(v any) []any {
	switch vs := v.(type) {
	case []any:
		return vs
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out
	}
	return nil
}

// likePattern turns a SQL-style pattern with % wildcards into a
// case-insensitive anchored regexp.
func likePattern(p string) (*regexp.Regexp, error) {
	parts := strings.Split(p, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("(?is)^" + strings.Join(parts, ".*") + "$")
}

func isMatcher(v any) (func(any) bool, error) {
	if s, ok := v.(string); ok {
		v = ParseValue(s)
		if strings.EqualFold(s, "null") {
			v = nil
		}
	}
	switch want := v.(type) {
	case nil:
		return func(cell any) bool { return cell == nil }, nil
	case bool:
		return func(cell any) bool {
			b, ok := cell.(bool)
			return ok && b == want
		}, nil
	}
	return nil, fmt.Errorf("%w: 'is' accepts null, true or false", ErrInvalidQuery)
}

// ParseValue infers a cell value from text: empty is missing, then int,
// float, bool, and otherwise the string itself.
func ParseValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, "0123456789") {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// ParseFilter parses "field:op:value". The value of an "in" filter is a
// comma-separated list.
func ParseFilter(s string) (Filter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Filter{}, fmt.Errorf("%w: filter %q must be field:op:value", ErrInvalidQuery, s)
	}
	f := Filter{Field: strings.TrimSpace(parts[0]), Op: strings.ToLower(strings.TrimSpace(parts[1]))}
	switch f.Op {
	case OpIn:
		var vs []any
		for _, item := range strings.Split(parts[2], ",") {
			vs = append(vs, ParseValue(item))
		}
		f.Value = vs
	case OpILike, OpIs:
		f.Value = parts[2]
	default:
		f.Value = ParseValue(parts[2])
	}
	return f, nil
}

var columnHints = map[string]string{
	"points":   "total_points",
	"pts":      "total_points",
	"gw":       "gameweek",
	"round":    "gameweek",
	"cost":     "price",
	"value":    "price",
	"team":     "team_name",
	"club":     "team_name",
	"pos":      "position",
	"name":     "web_name",
	"player":   "web_name",
	"prices":   "price",
	"costs":    "price",
	"now_cost": "price",
	"event":    "gameweek",
	"element":  "player_id",
}

// ColumnHint suggests the canonical column for a commonly mistyped name,
// or returns "" when there is nothing to suggest.
func ColumnHint(name string) string {
	if canonical, ok := columnHints[strings.ToLower(strings.TrimSpace(name))]; ok {
		return fmt.Sprintf("Did you mean '%s'?", canonical)
	}
	return ""
}
