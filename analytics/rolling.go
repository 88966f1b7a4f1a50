package analytics

import (
	"errors"
	"fmt"

	"github.com/jv92admin/fpltools/table"
)

// DefaultRollingWindow is the window used when RollingOptions.Window is zero.
const DefaultRollingWindow = 3

// ErrInvalidWindow is returned for a negative window size.
var ErrInvalidWindow = errors.New("window must be >= 1")

// RollingOptions configures RollingMean.
type RollingOptions struct {
	// Window is the number of rows averaged, including the current one.
	// Zero selects DefaultRollingWindow.
	Window int

	// GroupBy restricts each window to rows sharing this column's value.
	// Ignored when empty or absent from the table.
	GroupBy string

	// NewColumn names the output column. Defaults to "{column}_rolling_{window}".
	NewColumn string
}

// RollingMean appends a column holding, for every row, the mean of the
// current and preceding Window-1 rows of column within the row's group.
// Leading rows average whatever is available, so the result has no
// missing values except where every value in the window is missing.
// Rows should already be ordered by the time dimension.
func RollingMean(t *table.Table, column string, opts RollingOptions) (*table.Table, error) {
	src, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	window := orDefault(opts.Window, DefaultRollingWindow)
	if window < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, window)
	}
	name := opts.NewColumn
	if name == "" {
		name = fmt.Sprintf("%s_rolling_%d", column, window)
	}

	groups := []table.Group{{Indices: seqRows(t.NumRows())}}
	if opts.GroupBy != "" && t.HasColumn(opts.GroupBy) {
		groups, _ = t.GroupBy(opts.GroupBy)
	}

	out := make([]any, t.NumRows())
	for _, g := range groups {
		for k, row := range g.Indices {
			lo := k - window + 1
			if lo < 0 {
				lo = 0
			}
			out[row] = nullable(mean(floatsAt(src, g.Indices[lo:k+1])))
		}
	}
	col, err := table.NewColumn(name, out)
	if err != nil {
		return nil, err
	}
	return t.WithColumn(col)
}

func seqRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
