package chart

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jv92admin/fpltools/table"
)

// LineOptions configures Line.
type LineOptions struct {
	Options

	// Hue splits rows into one series per distinct value, series ordered
	// by value. Ignored when empty or absent from the table.
	Hue string

	// XLabel and YLabel default to the column names.
	XLabel string
	YLabel string
}

// Line renders y against x with point markers. Each series is sorted by
// x; rows with a missing x or y are skipped. A string x column becomes a
// categorical axis in order of first appearance after sorting.
func Line(t *table.Table, x, y string, opts LineOptions) (string, error) {
	if err := t.Require(x, y); err != nil {
		return "", err
	}
	p := newPlot(opts.Title)
	p.X.Label.Text = orName(opts.XLabel, x)
	p.Y.Label.Text = orName(opts.YLabel, y)

	xc, _ := t.Column(x)
	var categories []string
	position := map[string]float64{}
	xAt := func(r table.Row) (float64, bool) {
		if xc.Kind().Numeric() {
			return r.Float(x)
		}
		v := r.Get(x)
		if v == nil {
			return 0, false
		}
		label := table.FormatValue(v)
		pos, ok := position[label]
		if !ok {
			pos = float64(len(categories))
			position[label] = pos
			categories = append(categories, label)
		}
		return pos, true
	}

	series, names, err := splitSeries(t, opts.Hue)
	if err != nil {
		return "", err
	}
	for i, s := range series {
		sorted, err := s.SortBy(table.SortKey{Column: x})
		if err != nil {
			return "", err
		}
		xys := make(plotter.XYs, 0, sorted.NumRows())
		for r := 0; r < sorted.NumRows(); r++ {
			row := sorted.Row(r)
			xv, xok := xAt(row)
			yv, yok := row.Float(y)
			if xok && yok {
				xys = append(xys, plotter.XY{X: xv, Y: yv})
			}
		}
		if len(xys) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return "", fmt.Errorf("line series: %w", err)
		}
		line.Color = colorAt(i)
		line.Width = vg.Points(2)
		points.Color = colorAt(i)
		points.Radius = vg.Points(2)
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		if names != nil {
			p.Legend.Add(names[i], line, points)
		}
	}
	if len(categories) > 0 {
		p.NominalX(categories...)
	}
	return write(opts.Dir, "line", DefaultWidth, DefaultHeight, drawPlot(p))
}

// splitSeries partitions t by the hue column, groups ordered by value.
// The returned names are nil when no grouping applies.
func splitSeries(t *table.Table, hue string) ([]*table.Table, []string, error) {
	if hue == "" || !t.HasColumn(hue) {
		return []*table.Table{t}, nil, nil
	}
	groups, err := t.GroupBy(hue)
	if err != nil {
		return nil, nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return table.Compare(groups[i].Key, groups[j].Key) < 0
	})
	parts := make([]*table.Table, len(groups))
	names := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = t.Take(g.Indices)
		names[i] = table.FormatValue(g.Key)
	}
	return parts, names, nil
}

func orName(label, column string) string {
	if label != "" {
		return label
	}
	return column
}
