package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Rendering constants shared by every chart.
const (
	DPI           = 150
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch

	// TempPrefix prefixes directories created when Options.Dir is empty.
	TempPrefix = "fpl_charts_"

	fontSize  = 10
	titleSize = 13

	// maxSuffix bounds the search for a free file name in one directory.
	maxSuffix = 10000
)

// Palette is the series colour cycle.
var Palette = []color.Color{
	hex("#1f77b4"), hex("#ff7f0e"), hex("#2ca02c"), hex("#d62728"), hex("#9467bd"),
	hex("#8c564b"), hex("#e377c2"), hex("#7f7f7f"), hex("#bcbd22"), hex("#17becf"),
}

var gridColor = color.NRGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0x4d}

// ErrNoData is returned when a renderer has nothing it can draw.
var ErrNoData = errors.New("no data to plot")

// Options holds settings shared by every renderer.
type Options struct {
	// Dir is the output directory. Empty selects a fresh temporary directory.
	Dir string

	// Title is drawn above the plot area when non-empty.
	Title string
}

// colorAt returns the i-th palette colour, cycling.
func colorAt(i int) color.Color {
	return Palette[i%len(Palette)]
}

func hex(s string) color.Color {
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		panic(fmt.Sprintf("chart: bad colour %q", s))
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// newPlot returns a plot with the shared fonts, title and grid applied.
func newPlot(title string) *plot.Plot {
	p := plot.New()
	if title != "" {
		p.Title.Text = title
		p.Title.Padding = vg.Points(12)
		p.Title.TextStyle.Font.Size = vg.Points(titleSize)
		p.Title.TextStyle.Font.Weight = xfont.WeightBold
	}
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Font.Size = vg.Points(fontSize)
		ax.Tick.Label.Font.Size = vg.Points(fontSize)
	}
	p.Legend.TextStyle.Font.Size = vg.Points(fontSize)
	p.Legend.Top = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)
	return p
}

// drawFunc paints a chart onto the full image canvas.
type drawFunc func(c draw.Canvas)

// write renders draw onto a w x h PNG named after base in dir and returns
// the file path. The image is painted before the file exists, and a file
// that was not completely written is removed.
func write(dir, base string, w, h vg.Length, paint drawFunc) (path string, err error) {
	dir, err = outputDir(dir)
	if err != nil {
		return "", err
	}

	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(DPI))
	paint(draw.New(img))

	f, path, err := createUnique(dir, base)
	if err != nil {
		return "", err
	}
	written := false
	defer func() {
		if !written {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	written = true
	return path, nil
}

// drawPlot returns a drawFunc painting a single plot.
func drawPlot(p *plot.Plot) drawFunc {
	return func(c draw.Canvas) { p.Draw(c) }
}

func outputDir(dir string) (string, error) {
	if dir == "" {
		d, err := os.MkdirTemp("", TempPrefix)
		if err != nil {
			return "", fmt.Errorf("create chart dir: %w", err)
		}
		return d, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	return dir, nil
}

// createUnique creates base.png in dir, or base_N.png for the smallest
// N >= 2 not already present.
func createUnique(dir, base string) (*os.File, string, error) {
	for n := 1; n <= maxSuffix; n++ {
		name := base + ".png"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.png", base, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s in %s", base, dir)
}

// barWidth estimates a bar width for n slots across an axis of the given
// length so that bars fill about 80% of each slot.
func barWidth(axis vg.Length, n int) vg.Length {
	if n < 1 {
		n = 1
	}
	return axis * 0.8 * 0.8 / vg.Length(n)
}
