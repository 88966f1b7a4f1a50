package analytics

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyInput is returned by reductions that need at least one value.
var ErrEmptyInput = errors.New("empty input")

// Mean returns the arithmetic mean.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}
	return stat.Mean(xs, nil), nil
}

// Sum returns the sum; zero for empty input.
func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}

// Median returns the middle value, averaging the two middle values for an
// even count.
func Median(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}
	s := sortedCopy(xs)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], nil
	}
	return (s[mid-1] + s[mid]) / 2, nil
}

// Std returns the population standard deviation.
func Std(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}
	_, variance := stat.PopMeanVariance(xs, nil)
	return math.Sqrt(variance), nil
}

// Min returns the smallest value.
func Min(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}
	return floats.Min(xs), nil
}

// Max returns the largest value.
func Max(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}
	return floats.Max(xs), nil
}

// Percentile returns the q-th percentile (0..100) by linear interpolation.
func Percentile(xs []float64, q float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyInput
	}
	if q < 0 || q > 100 {
		return 0, errors.New("percentile must be between 0 and 100")
	}
	s := sortedCopy(xs)
	pos := q / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo)), nil
}

// Corr returns the Pearson correlation of two equally long series.
func Corr(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, errors.New("series must have equal length")
	}
	if len(xs) < 2 {
		return 0, ErrEmptyInput
	}
	return stat.Correlation(xs, ys, nil), nil
}

// CumSum returns the running totals.
func CumSum(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	return floats.CumSum(out, xs)
}

// Arange returns start, start+step, ... up to but excluding stop.
func Arange(start, stop, step float64) ([]float64, error) {
	if step == 0 {
		return nil, errors.New("step must be non-zero")
	}
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return []float64{}, nil
	}
	if n > 10_000_000 {
		return nil, errors.New("range too large")
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}

func sortedCopy(xs []float64) []float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s
}
