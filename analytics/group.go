package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/jv92admin/fpltools/table"
	"gonum.org/v1/gonum/floats"
)

// Aggregation names a column and the reduction GroupAggregate applies to it.
type Aggregation struct {
	Column string
	// Func is one of sum, mean, count, min, max.
	Func string
}

var reducers = map[string]func([]float64) float64{
	"sum":  floats.Sum,
	"mean": mean,
	"count": func(xs []float64) float64 {
		return float64(len(xs))
	},
	"min": func(xs []float64) float64 {
		if len(xs) == 0 {
			return math.NaN()
		}
		return floats.Min(xs)
	},
	"max": func(xs []float64) float64 {
		if len(xs) == 0 {
			return math.NaN()
		}
		return floats.Max(xs)
	},
}

// GroupAggregate reduces t to one row per value of by, ordered by key.
// Output columns are named "<column>_<func>" unless a column appears once,
// in which case it keeps its name. Missing cells are ignored.
func GroupAggregate(t *table.Table, by string, specs []Aggregation) (*table.Table, error) {
	keyCol, err := t.Column(by)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]int, len(specs))
	for _, spec := range specs {
		if _, ok := reducers[spec.Func]; !ok {
			return nil, fmt.Errorf("unknown aggregation %q for column %q (use sum, mean, count, min or max)", spec.Func, spec.Column)
		}
		if err := t.Require(spec.Column); err != nil {
			return nil, err
		}
		seen[spec.Column]++
	}

	groups, err := t.GroupBy(by)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return table.Compare(groups[i].Key, groups[j].Key) < 0
	})

	keys := make([]any, len(groups))
	for i, g := range groups {
		keys[i] = keyCol.Value(g.Indices[0])
	}
	first, err := table.NewColumn(by, keys)
	if err != nil {
		return nil, err
	}
	cols := []*table.Column{first}
	for _, spec := range specs {
		c, _ := t.Column(spec.Column)
		reduce := reducers[spec.Func]
		values := make([]any, len(groups))
		for i, g := range groups {
			values[i] = nullable(reduce(floatsAt(c, g.Indices)))
		}
		name := spec.Column
		if seen[spec.Column] > 1 {
			name = spec.Column + "_" + spec.Func
		}
		col, err := table.NewColumn(name, values)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return table.New(cols...)
}
