package analytics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/jv92admin/fpltools/table"
)

// Trend labels produced by FormTrend.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// trendThreshold is the half-window mean difference that counts as a trend.
const trendThreshold = 0.5

// FormTrendOptions configures FormTrend. Empty fields take the defaults
// player_id, gameweek, total_points and 5 gameweeks.
type FormTrendOptions struct {
	PlayerCol string
	GWCol     string
	PointsCol string
	NGWs      int
}

func (o *FormTrendOptions) applyDefaults() {
	o.PlayerCol = strOr(o.PlayerCol, "player_id")
	o.GWCol = strOr(o.GWCol, "gameweek")
	o.PointsCol = strOr(o.PointsCol, "total_points")
	o.NGWs = orDefault(o.NGWs, 5)
}

// FormTrend summarizes each player's points over the most recent NGWs
// gameweeks, counted back from the highest gameweek present.
//
// The output has one row per player, ordered by player, with columns
// {PlayerCol}, total_points, avg_points (1 decimal), trend, min_points,
// max_points and gws_played. The trend compares the mean of the second
// half of the window to the first half: "up" above +0.5, "down" below
// -0.5, otherwise "flat". An empty window yields an empty table.
func FormTrend(t *table.Table, opts FormTrendOptions) (*table.Table, error) {
	opts.applyDefaults()
	if err := t.Require(opts.PlayerCol, opts.GWCol, opts.PointsCol); err != nil {
		return nil, err
	}
	gw, _ := t.Column(opts.GWCol)
	gws := gw.Floats()
	if len(gws) == 0 {
		return table.Empty(), nil
	}
	minGW := floats.Max(gws) - float64(opts.NGWs) + 1
	window := t.Filter(func(r table.Row) bool {
		v, ok := r.Float(opts.GWCol)
		return ok && v >= minGW
	})
	if window.IsEmpty() {
		return table.Empty(), nil
	}
	window, err := window.SortBy(
		table.SortKey{Column: opts.PlayerCol},
		table.SortKey{Column: opts.GWCol},
	)
	if err != nil {
		return nil, err
	}
	groups, err := window.GroupBy(opts.PlayerCol)
	if err != nil {
		return nil, err
	}
	points, _ := window.Column(opts.PointsCol)

	n := len(groups)
	var (
		players = make([]any, n)
		total   = make([]any, n)
		avg     = make([]any, n)
		trend   = make([]any, n)
		lo      = make([]any, n)
		hi      = make([]any, n)
		played  = make([]any, n)
	)
	for i, g := range groups {
		pts := floatsAt(points, g.Indices)
		players[i] = g.Key
		played[i] = len(g.Indices)
		trend[i] = TrendFlat
		if len(pts) == 0 {
			continue
		}
		m := mean(pts)
		total[i] = floats.Sum(pts)
		avg[i] = Round(m, 1)
		lo[i] = floats.Min(pts)
		hi[i] = floats.Max(pts)
		trend[i] = classifyTrend(pts, m)
	}
	return buildTable([]string{
		opts.PlayerCol, "total_points", "avg_points", "trend",
		"min_points", "max_points", "gws_played",
	}, players, total, avg, trend, lo, hi, played)
}

func classifyTrend(pts []float64, avg float64) string {
	mid := len(pts) / 2
	first, second := avg, avg
	if mid > 0 {
		first = mean(pts[:mid])
		second = mean(pts[mid:])
	}
	diff := second - first
	switch {
	case diff > trendThreshold:
		return TrendUp
	case diff < -trendThreshold:
		return TrendDown
	}
	return TrendFlat
}

// buildTable assembles named value slices into a table.
func buildTable(names []string, values ...[]any) (*table.Table, error) {
	cols := make([]*table.Column, len(names))
	for i, name := range names {
		c, err := table.NewColumn(name, values[i])
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return table.New(cols...)
}
