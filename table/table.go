package table

import (
	"fmt"
)

// Table is an immutable, ordered collection of equally long columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from columns. All columns must have the same length
// and distinct names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), t.rows)
		}
		t.index[c.name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// FromColumns builds a table from a name to values mapping. Order fixes
// the column order; names missing from order are appended in sorted order.
func FromColumns(data map[string][]any, order []string) (*Table, error) {
	names := orderedKeys(data, order)
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := NewColumn(name, data[name])
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// FromRecords builds a table from row maps. Columns appear in order, then
// in first-seen order across records. Absent keys become missing cells.
func FromRecords(records []map[string]any, order []string) (*Table, error) {
	seen := make(map[string]bool)
	var names []string
	for _, n := range order {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, rec := range records {
		for _, k := range sortedKeys(rec) {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		vals := make([]any, len(records))
		for i, rec := range records {
			vals[i] = rec[name]
		}
		c, err := NewColumn(name, vals)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return t.rows == 0 }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column or a *ColumnError.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, t.missing(name)
	}
	return t.cols[i], nil
}

// Require returns a *ColumnError for the first name the table lacks.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return t.missing(n)
		}
	}
	return nil
}

// Value returns the cell at (column, row), or nil when the column is absent.
func (t *Table) Value(name string, row int) any {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i].Value(row)
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Records returns every row as a map.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.rows)
	for i := range out {
		out[i] = t.Row(i).Map()
	}
	return out
}

// Clone returns a shallow copy. Columns are shared since they are immutable.
func (t *Table) Clone() *Table {
	out, _ := New(t.cols...)
	return out
}

// Row is a read-only view of one table row.
type Row struct {
	t *Table
	i int
}

// Index returns the row position in its table.
func (r Row) Index() int { return r.i }

// Get returns the cell in the named column.
func (r Row) Get(name string) any { return r.t.Value(name, r.i) }

// Float returns the named cell as float64.
func (r Row) Float(name string) (float64, bool) { return ToFloat(r.Get(name)) }

// Map returns the row as a column name to value map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.t.cols))
	for _, c := range r.t.cols {
		m[c.name] = c.Value(r.i)
	}
	return m
}
