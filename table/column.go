package table

import (
	"fmt"
	"math"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Kind is the value type held by a column.
type Kind int

// Column kinds. Null is the kind of a column whose cells are all missing.
const (
	Null Kind = iota
	Bool
	Int
	Float
	String
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return "null"
	}
}

// Numeric reports whether the kind holds numbers.
func (k Kind) Numeric() bool {
	return k == Int || k == Float
}

// Column is a named, homogeneous sequence of nullable values.
//
// Cells live in a typed dataframe series (int64, float64, string or
// bool) and read back as bool, int64, float64 or string; nil marks a
// missing cell. A Column is never modified after construction.
type Column struct {
	name   string
	kind   Kind
	series dataframe.Series
}

// NewColumn builds a column, normalizing Go scalars to the stored
// representation. NaN floats become missing cells.
func NewColumn(name string, values []any) (*Column, error) {
	out := make([]any, len(values))
	kind := Null
	for i, v := range values {
		nv, k, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		out[i] = nv
		if k == Null {
			continue
		}
		switch {
		case kind == Null:
			kind = k
		case kind == k:
		case kind.Numeric() && k.Numeric():
			kind = Float
		default:
			return nil, fmt.Errorf("%w: column %q holds %s and %s", ErrMixedKinds, name, kind, k)
		}
	}
	if kind == Float {
		for i, v := range out {
			if iv, ok := v.(int64); ok {
				out[i] = float64(iv)
			}
		}
	}
	return build(name, kind, out), nil
}

// MustColumn is like NewColumn but panics on error. It is meant for
// literals in tests and examples.
func MustColumn(name string, values ...any) *Column {
	c, err := NewColumn(name, values)
	if err != nil {
		panic(err)
	}
	return c
}

// FloatColumn builds a Float column from a slice.
func FloatColumn(name string, values []float64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return build(name, kindOf(Float, out), out)
}

// IntColumn builds an Int column from a slice.
func IntColumn(name string, values []int64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return build(name, kindOf(Int, out), out)
}

// StringColumn builds a String column from a slice.
func StringColumn(name string, values []string) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return build(name, kindOf(String, out), out)
}

// BoolColumn builds a Bool column from a slice.
func BoolColumn(name string, values []bool) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return build(name, kindOf(Bool, out), out)
}

func kindOf(k Kind, values []any) Kind {
	for _, v := range values {
		if v != nil {
			return k
		}
	}
	return Null
}

// build stores normalized values of one kind in the matching series type.
// A Null column is an all-missing float series.
func build(name string, kind Kind, values []any) *Column {
	var s dataframe.Series
	switch kind {
	case Int:
		s = dataframe.NewSeriesInt64(name, nil, values...)
	case String:
		s = dataframe.NewSeriesString(name, nil, values...)
	case Bool:
		s = dataframe.NewSeriesGeneric(name, false, nil, values...)
	default:
		s = dataframe.NewSeriesFloat64(name, nil, values...)
	}
	return &Column{name: name, kind: kind, series: s}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int { return c.series.NRows() }

// Value returns cell i, or nil when it is missing.
func (c *Column) Value(i int) any { return c.series.Value(i) }

// IsNull reports whether cell i is missing.
func (c *Column) IsNull(i int) bool { return c.series.Value(i) == nil }

// Float returns cell i as a float64. The second result is false for
// missing or non-numeric cells.
func (c *Column) Float(i int) (float64, bool) {
	return ToFloat(c.series.Value(i))
}

// Int returns cell i as an int64, truncating floats.
func (c *Column) Int(i int) (int64, bool) {
	switch v := c.series.Value(i).(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// String returns cell i formatted as text; missing cells are empty.
func (c *Column) String(i int) string {
	v := c.series.Value(i)
	if v == nil {
		return ""
	}
	return FormatValue(v)
}

// Values returns a copy of the cells.
func (c *Column) Values() []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.series.Value(i)
	}
	return out
}

// Floats returns the numeric cells in order, skipping missing ones.
func (c *Column) Floats() []float64 {
	if fs, ok := c.series.(*dataframe.SeriesFloat64); ok {
		out := make([]float64, 0, len(fs.Values))
		for _, v := range fs.Values {
			if !math.IsNaN(v) {
				out = append(out, v)
			}
		}
		return out
	}
	out := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if f, ok := ToFloat(c.series.Value(i)); ok {
			out = append(out, f)
		}
	}
	return out
}

// Renamed returns the same cells under a new name.
func (c *Column) Renamed(name string) *Column {
	return &Column{name: name, kind: c.kind, series: c.series}
}

func (c *Column) take(indices []int) *Column {
	out := make([]any, len(indices))
	for i, idx := range indices {
		out[i] = c.series.Value(idx)
	}
	return build(c.name, kindOf(c.kind, out), out)
}

// ToFloat converts a stored numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// normalize converts a Go scalar to its stored form and kind.
func normalize(v any) (any, Kind, error) {
	switch n := v.(type) {
	case nil:
		return nil, Null, nil
	case bool:
		return n, Bool, nil
	case string:
		return n, String, nil
	case int:
		return int64(n), Int, nil
	case int8:
		return int64(n), Int, nil
	case int16:
		return int64(n), Int, nil
	case int32:
		return int64(n), Int, nil
	case int64:
		return n, Int, nil
	case uint:
		return int64(n), Int, nil
	case uint8:
		return int64(n), Int, nil
	case uint16:
		return int64(n), Int, nil
	case uint32:
		return int64(n), Int, nil
	case uint64:
		return int64(n), Int, nil
	case float32:
		if math.IsNaN(float64(n)) {
			return nil, Null, nil
		}
		return float64(n), Float, nil
	case float64:
		if math.IsNaN(n) {
			return nil, Null, nil
		}
		return n, Float, nil
	}
	return nil, Null, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// Normalize converts a Go scalar to the representation stored in columns,
// for comparing caller-supplied values against cells.
func Normalize(v any) (any, error) {
	nv, _, err := normalize(v)
	return nv, err
}
