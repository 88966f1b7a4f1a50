package analytics

import (
	"math"

	"github.com/jv92admin/fpltools/table"
	"gonum.org/v1/gonum/stat"
)

// Round rounds half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

// mean returns the mean of xs, or NaN when xs is empty.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// floatsAt collects the numeric cells of c at the given rows, skipping
// missing ones.
func floatsAt(c *table.Column, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, i := range rows {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func strOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// nullable returns nil for NaN so missing results stay missing cells.
func nullable(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	return f
}
