package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jv92admin/fpltools/table"
)

// BarOptions configures Bar.
type BarOptions struct {
	Options

	// Horizontal draws bars left to right with the first row at the top.
	Horizontal bool

	// Color fills every bar. Nil cycles the palette per bar.
	Color color.Color

	// XLabel names the category axis and YLabel the value axis. Both
	// default to the column names.
	XLabel string
	YLabel string
}

// Bar renders one bar per row: x supplies the category label and y the
// bar length. Missing y values draw as zero-length bars. Vertical charts
// rotate category labels 45 degrees.
func Bar(t *table.Table, x, y string, opts BarOptions) (string, error) {
	if err := t.Require(x, y); err != nil {
		return "", err
	}
	p := newPlot(opts.Title)
	n := t.NumRows()
	labels := make([]string, n)
	axis := DefaultWidth
	if opts.Horizontal {
		axis = DefaultHeight
	}
	width := barWidth(axis, n)

	for i := 0; i < n; i++ {
		row := t.Row(i)
		labels[i] = table.FormatValue(row.Get(x))
		v, _ := row.Float(y)
		b, err := plotter.NewBarChart(plotter.Values{v}, width)
		if err != nil {
			return "", fmt.Errorf("bar %d: %w", i, err)
		}
		b.XMin = float64(i)
		b.Horizontal = opts.Horizontal
		b.LineStyle.Width = 0
		b.Color = opts.Color
		if b.Color == nil {
			b.Color = colorAt(i)
		}
		p.Add(b)
	}

	if opts.Horizontal {
		p.X.Label.Text = orName(opts.YLabel, y)
		p.Y.Label.Text = orName(opts.XLabel, x)
		p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
		if n > 0 {
			p.NominalY(labels...)
		}
	} else {
		p.X.Label.Text = orName(opts.XLabel, x)
		p.Y.Label.Text = orName(opts.YLabel, y)
		if n > 0 {
			p.NominalX(labels...)
			p.X.Tick.Label.Rotation = math.Pi / 4
			p.X.Tick.Label.XAlign = draw.XRight
		}
	}
	return write(opts.Dir, "bar", DefaultWidth, DefaultHeight, drawPlot(p))
}
