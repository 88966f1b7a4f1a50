package table

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Head returns the first n rows. Negative n keeps all rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= t.rows {
		return t
	}
	return t.Take(seq(0, n))
}

// Tail returns the last n rows.
func (t *Table) Tail(n int) *Table {
	if n < 0 || n >= t.rows {
		return t
	}
	return t.Take(seq(t.rows-n, t.rows))
}

// Take returns the rows at the given positions, in that order.
func (t *Table) Take(indices []int) *Table {
	out := &Table{index: make(map[string]int, len(t.cols)), rows: len(indices)}
	for i, c := range t.cols {
		out.index[c.name] = i
		out.cols = append(out.cols, c.take(indices))
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	frame := dataframe.NewDataFrame(rowIndex(t.rows))
	fn := dataframe.FilterDataFrameFn(func(_ map[interface{}]interface{}, row, _ int) (dataframe.FilterAction, error) {
		if keep(t.Row(row)) {
			return dataframe.KEEP, nil
		}
		return dataframe.DROP, nil
	})
	kept, err := dataframe.Filter(context.Background(), frame, fn)
	if err != nil {
		return t.Take(nil)
	}
	return t.Take(positions(kept.(*dataframe.DataFrame)))
}

// SortKey names a sort column and its direction.
type SortKey struct {
	Column string
	Desc   bool
}

// SortBy returns the rows stably sorted by the keys. Missing cells sort
// last in both directions.
//
// Each key contributes a null flag (ascending) followed by a copy of its
// series, so the frame sort never has to order a value against a missing
// cell.
func (t *Table) SortBy(keys ...SortKey) (*Table, error) {
	series := make([]dataframe.Series, 0, 2*len(keys)+1)
	sortKeys := make([]dataframe.SortKey, 0, 2*len(keys))
	for i, k := range keys {
		c, err := t.Column(k.Column)
		if err != nil {
			return nil, err
		}
		flags := make([]interface{}, t.rows)
		for r := range flags {
			flags[r] = int64(0)
			if c.IsNull(r) {
				flags[r] = int64(1)
			}
		}
		flagName := fmt.Sprintf("null%d", i)
		keyName := fmt.Sprintf("key%d", i)
		key := c.series.Copy()
		key.Rename(keyName)
		if g, ok := key.(*dataframe.SeriesGeneric); ok {
			g.SetIsLessThanFunc(func(a, b interface{}) bool { return !a.(bool) && b.(bool) })
		}
		series = append(series, dataframe.NewSeriesInt64(flagName, nil, flags...), key)
		sortKeys = append(sortKeys,
			dataframe.SortKey{Key: flagName},
			dataframe.SortKey{Key: keyName, Desc: k.Desc},
		)
	}
	frame := dataframe.NewDataFrame(append(series, rowIndex(t.rows))...)
	frame.Sort(context.Background(), sortKeys, dataframe.SortOptions{Stable: true})
	return t.Take(positions(frame)), nil
}

const rowIndexName = "row"

// rowIndex is a series holding 0..n-1, carried through frame operations to
// recover which source rows survived and in what order.
func rowIndex(n int) dataframe.Series {
	vals := make([]interface{}, n)
	for i := range vals {
		vals[i] = int64(i)
	}
	return dataframe.NewSeriesInt64(rowIndexName, nil, vals...)
}

func positions(frame *dataframe.DataFrame) []int {
	if frame == nil {
		return nil
	}
	col, err := frame.NameToColumn(rowIndexName)
	if err != nil {
		return nil
	}
	s := frame.Series[col]
	out := make([]int, s.NRows())
	for i := range out {
		out[i] = int(s.Value(i).(int64))
	}
	return out
}

// Select returns the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Drop returns the table without the named columns. Unknown names are
// ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var cols []*Column
	for _, c := range t.cols {
		if !skip[c.name] {
			cols = append(cols, c)
		}
	}
	out, _ := New(cols...)
	if len(cols) == 0 {
		out.rows = t.rows
	}
	return out
}

// Rename returns the table with one column renamed.
func (t *Table) Rename(from, to string) (*Table, error) {
	i, ok := t.index[from]
	if !ok {
		return nil, t.missing(from)
	}
	if _, clash := t.index[to]; clash && to != from {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, to)
	}
	cols := t.Columns()
	cols[i] = cols[i].Renamed(to)
	return New(cols...)
}

// WithColumn returns the table with c added, or replacing the column of
// the same name in place.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if len(t.cols) > 0 && c.Len() != t.rows {
		return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), t.rows)
	}
	cols := t.Columns()
	if i, ok := t.index[c.name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return New(cols...)
}

// Concat stacks tables vertically. The result has the union of columns in
// first-seen order; cells from tables lacking a column are missing.
func Concat(tables ...*Table) (*Table, error) {
	var names []string
	seen := map[string]bool{}
	total := 0
	for _, t := range tables {
		for _, n := range t.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
		total += t.rows
	}
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		vals := make([]any, 0, total)
		for _, t := range tables {
			if i, ok := t.index[n]; ok {
				vals = append(vals, t.cols[i].Values()...)
			} else {
				vals = append(vals, make([]any, t.rows)...)
			}
		}
		c, err := NewColumn(n, vals)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Group is the set of rows sharing one key value.
type Group struct {
	Key     any
	Indices []int
}

// GroupBy partitions row positions by the named column. Groups appear in
// order of first appearance; missing keys form their own group.
func (t *Table) GroupBy(name string) ([]Group, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	pos := map[any]int{}
	var groups []Group
	for i, v := range c.Values() {
		k := Key(v)
		g, ok := pos[k]
		if !ok {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group{Key: v})
		}
		groups[g].Indices = append(groups[g].Indices, i)
	}
	return groups, nil
}

// Unique returns the distinct non-missing values of a column in order of
// first appearance.
func (t *Table) Unique(name string) ([]any, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	seen := map[any]bool{}
	var out []any
	for _, v := range c.Values() {
		if v == nil {
			continue
		}
		k := Key(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out, nil
}

// Key returns a comparable map key for a stored value. Integral floats
// share the key of the equal integer.
func Key(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return v
}

// Equal reports whether two stored values are equal, comparing numbers by
// value.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	return a == b
}

// Compare orders two non-missing values: numbers numerically, strings
// lexically, false before true. Values of different families order by
// family (bool, number, string).
func Compare(a, b any) int {
	fa, aok := ToFloat(a)
	fb, bok := ToFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return strings.Compare(sa, sb)
	}
	ba, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	}
	return family(a) - family(b)
}

func family(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case int64, float64:
		return 1
	case string:
		return 2
	}
	return 3
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orderedKeys[V any](m map[string]V, order []string) []string {
	seen := make(map[string]bool, len(m))
	var out []string
	for _, k := range order {
		if _, ok := m[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range sortedKeys(m) {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}
