package chart

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jv92admin/fpltools/table"
)

// ComparisonOptions configures Comparison.
type ComparisonOptions struct {
	Options

	// Order lists entity names in drawing order. Empty sorts names.
	// Names missing from the map are skipped.
	Order []string
}

// Comparison renders grouped bars: one group per metric and one bar per
// entity inside each group, read from the entity table's first row. A
// metric absent from an entity table, or a missing cell, plots as zero.
func Comparison(entities map[string]*table.Table, metrics []string, opts ComparisonOptions) (string, error) {
	if len(metrics) == 0 {
		return "", fmt.Errorf("%w: no metrics to compare", ErrNoData)
	}
	names := entityOrder(entities, opts.Order)
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no entities to compare", ErrNoData)
	}

	p := newPlot(opts.Title)
	// Each metric slot is one data unit wide; the group takes 0.8 of it.
	slot := DefaultWidth * 0.8 / vg.Length(len(metrics)+1)
	width := slot * 0.8 / vg.Length(len(names))
	n := float64(len(names))

	for i, name := range names {
		values := make(plotter.Values, len(metrics))
		for j, m := range metrics {
			values[j] = firstValue(entities[name], m)
		}
		b, err := plotter.NewBarChart(values, width)
		if err != nil {
			return "", fmt.Errorf("comparison %s: %w", name, err)
		}
		b.Color = colorAt(i)
		b.LineStyle.Width = 0
		b.Offset = vg.Length(float64(i)-n/2+0.5) * width
		p.Add(b)
		p.Legend.Add(name, b)
	}
	p.NominalX(metrics...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	return write(opts.Dir, "comparison", DefaultWidth, DefaultHeight, drawPlot(p))
}

func entityOrder(entities map[string]*table.Table, order []string) []string {
	if len(order) == 0 {
		names := make([]string, 0, len(entities))
		for name := range entities {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	names := make([]string, 0, len(order))
	for _, name := range order {
		if _, ok := entities[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func firstValue(t *table.Table, metric string) float64 {
	if t == nil || t.IsEmpty() || !t.HasColumn(metric) {
		return 0
	}
	v, ok := table.ToFloat(t.Value(metric, 0))
	if !ok || math.IsInf(v, 0) {
		return 0
	}
	return v
}
