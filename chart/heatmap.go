package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jv92admin/fpltools/table"
)

// Heatmap defaults.
const (
	DefaultVMin          = 1
	DefaultVMax          = 5
	DefaultColorbarLabel = "FDR (1=easy, 5=hard)"

	// annotateDark is the cell value above which annotations are white.
	annotateDark = 3.5

	colorbarWidth = 1.3 * vg.Inch
)

// HeatmapOptions configures Heatmap. Use DefaultHeatmapOptions for the
// fixture difficulty defaults.
type HeatmapOptions struct {
	Options

	// RowLabel names the column holding row labels. Empty selects the
	// first string column; tables without one are labelled by row index.
	RowLabel string

	// VMin and VMax fix the colour scale; values outside are clipped.
	VMin, VMax float64

	// Annotate writes each cell's rounded value inside the cell.
	Annotate bool

	// ColorbarLabel is drawn beside the colour bar.
	ColorbarLabel string
}

// DefaultHeatmapOptions returns options for a 1 to 5 difficulty grid.
func DefaultHeatmapOptions() HeatmapOptions {
	return HeatmapOptions{
		VMin:          DefaultVMin,
		VMax:          DefaultVMax,
		Annotate:      true,
		ColorbarLabel: DefaultColorbarLabel,
	}
}

// Heatmap renders a table shaped as a grid: one row per label, one cell
// per numeric column. Low values are green and high values red.
func Heatmap(t *table.Table, opts HeatmapOptions) (string, error) {
	if opts.VMin >= opts.VMax {
		return "", fmt.Errorf("colour scale min %v must be below max %v", opts.VMin, opts.VMax)
	}
	g, err := newGrid(t, opts.RowLabel)
	if err != nil {
		return "", err
	}
	cmap := newScale(opts.VMin, opts.VMax)

	p := newPlot(opts.Title)
	hm := plotter.NewHeatMap(gridXYZ{g}, cmap.Palette(256))
	hm.Min, hm.Max = opts.VMin, opts.VMax
	hm.Underflow = cmap.colors[0]
	hm.Overflow = cmap.colors[len(cmap.colors)-1]
	p.Add(hm)

	if opts.Annotate {
		labels, err := g.annotations()
		if err != nil {
			return "", err
		}
		if labels != nil {
			p.Add(labels)
		}
	}
	p.NominalX(g.cols...)
	p.NominalY(g.rowLabelsBottomUp()...)
	p.X.Tick.Label.Font.Size = vg.Points(fontSize - 1)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.Y.Tick.Label.Font.Size = vg.Points(fontSize - 1)

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})
	bar.HideX()
	bar.Y.Label.Text = opts.ColorbarLabel
	bar.Y.Label.TextStyle.Font.Size = vg.Points(fontSize)
	bar.Y.Tick.Label.Font.Size = vg.Points(fontSize)

	rows, cols := g.size()
	w := vg.Inch * vg.Length(math.Max(8, 0.8*float64(cols)+2))
	h := vg.Inch * vg.Length(math.Max(4, 0.4*float64(rows)+2))
	return write(opts.Dir, "heatmap", w, h, func(c draw.Canvas) {
		p.Draw(draw.Crop(c, 0, -colorbarWidth, 0, 0))
		inset := h * 0.1
		bar.Draw(draw.Crop(c, w-colorbarWidth+vg.Points(12), -vg.Points(12), inset, -inset))
	})
}

// grid adapts a labelled table to plotter.GridXYZ. Row 0 of the table is
// drawn at the top.
type grid struct {
	rows   []string
	cols   []string
	values [][]float64
}

func newGrid(t *table.Table, rowLabel string) (*grid, error) {
	if rowLabel == "" {
		for _, c := range t.Columns() {
			if c.Kind() == table.String {
				rowLabel = c.Name()
				break
			}
		}
	}
	var labels *table.Column
	if rowLabel != "" {
		c, err := t.Column(rowLabel)
		if err != nil {
			return nil, err
		}
		labels = c
	}

	g := &grid{}
	var cells []*table.Column
	for _, c := range t.Columns() {
		if c.Name() != rowLabel && c.Kind().Numeric() {
			g.cols = append(g.cols, c.Name())
			cells = append(cells, c)
		}
	}
	if len(cells) == 0 || t.NumRows() == 0 {
		return nil, fmt.Errorf("%w: heatmap needs at least one row and one numeric column", ErrNoData)
	}
	for i := 0; i < t.NumRows(); i++ {
		label := strconv.Itoa(i)
		if labels != nil {
			label = labels.String(i)
		}
		g.rows = append(g.rows, label)
		vals := make([]float64, len(cells))
		for j, c := range cells {
			v, ok := c.Float(i)
			if !ok {
				v = math.NaN()
			}
			vals[j] = v
		}
		g.values = append(g.values, vals)
	}
	return g, nil
}

func (g *grid) size() (rows, cols int) { return len(g.rows), len(g.cols) }

func (g *grid) rowLabelsBottomUp() []string {
	out := make([]string, len(g.rows))
	for i, r := range g.rows {
		out[len(g.rows)-1-i] = r
	}
	return out
}

func (g *grid) annotations() (*plotter.Labels, error) {
	var xys plotter.XYs
	var texts []string
	var dark []bool
	n := len(g.rows)
	for i, vals := range g.values {
		for j, v := range vals {
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			texts = append(texts, strconv.FormatFloat(v, 'f', 0, 64))
			dark = append(dark, v > annotateDark)
		}
	}
	if len(xys) == 0 {
		return nil, nil
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	for i := range labels.TextStyle {
		sty := &labels.TextStyle[i]
		sty.XAlign = text.XCenter
		sty.YAlign = text.YCenter
		sty.Font.Size = vg.Points(fontSize - 1)
		sty.Font.Weight = xfont.WeightBold
		sty.Color = color.Black
		if dark[i] {
			sty.Color = color.White
		}
	}
	return labels, nil
}

// gridXYZ exposes the grid with column index on X and the row index
// counted from the bottom on Y.
type gridXYZ struct{ *grid }

func (g gridXYZ) Dims() (c, r int) { return len(g.cols), len(g.rows) }
func (g gridXYZ) Z(c, r int) float64 {
	return g.values[len(g.rows)-1-r][c]
}
func (g gridXYZ) X(c int) float64 { return float64(c) }
func (g gridXYZ) Y(r int) float64 { return float64(r) }

// scale is a reversed red-yellow-green colour map over [min, max].
type scale struct {
	colors   []color.Color
	min, max float64
	alpha    float64
}

var _ palette.ColorMap = (*scale)(nil)

func newScale(min, max float64) *scale {
	p, err := brewer.GetPalette(brewer.TypeDiverging, "RdYlGn", 11)
	if err != nil {
		panic(err)
	}
	src := p.Colors()
	colors := make([]color.Color, len(src))
	for i, c := range src {
		colors[len(src)-1-i] = c
	}
	return &scale{colors: colors, min: min, max: max, alpha: 1}
}

// At interpolates linearly between neighbouring palette colours.
func (s *scale) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < s.min:
		return nil, palette.ErrUnderflow
	case v > s.max:
		return nil, palette.ErrOverflow
	}
	pos := (v - s.min) / (s.max - s.min) * float64(len(s.colors)-1)
	i := int(pos)
	if i >= len(s.colors)-1 {
		return s.withAlpha(s.colors[len(s.colors)-1]), nil
	}
	return s.withAlpha(mix(s.colors[i], s.colors[i+1], pos-float64(i))), nil
}

func (s *scale) Max() float64       { return s.max }
func (s *scale) SetMax(v float64)   { s.max = v }
func (s *scale) Min() float64       { return s.min }
func (s *scale) SetMin(v float64)   { s.min = v }
func (s *scale) Alpha() float64     { return s.alpha }
func (s *scale) SetAlpha(a float64) {
	if a < 0 || a > 1 {
		panic(errors.New("chart: alpha out of range"))
	}
	s.alpha = a
}

// Palette samples n evenly spaced colours across the scale.
func (s *scale) Palette(n int) palette.Palette {
	out := make(colorList, n)
	for i := range out {
		v := s.min
		if n > 1 {
			v += (s.max - s.min) * float64(i) / float64(n-1)
		}
		out[i], _ = s.At(v)
	}
	return out
}

func (s *scale) withAlpha(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	a := s.alpha
	return color.NRGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: uint16(a * 0xffff)}
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

func mix(a, b color.Color, f float64) color.Color {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	lerp := func(x, y uint32) uint16 {
		return uint16(float64(x) + (float64(y)-float64(x))*f)
	}
	return color.RGBA64{R: lerp(ar, br), G: lerp(ag, bg), B: lerp(ab, bb), A: 0xffff}
}
