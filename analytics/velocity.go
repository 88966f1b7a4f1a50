package analytics

import (
	"github.com/jv92admin/fpltools/table"
)

// Direction labels produced by PriceVelocity.
const (
	DirectionRising  = "rising"
	DirectionFalling = "falling"
	DirectionStable  = "stable"
)

const velocityThreshold = 0.05

// VelocityOptions configures PriceVelocity. Empty fields default to
// player_id, price and gameweek.
type VelocityOptions struct {
	PlayerCol string
	PriceCol  string
	GWCol     string
}

// PriceVelocity computes each player's price change per gameweek.
//
// Observations are ordered by player then gameweek. Per player the output
// holds price_change (last minus first, 1 decimal), gw_span, velocity
// (change per gameweek, 2 decimals, 0 when the span is 0), latest_price and
// direction: "rising" above 0.05, "falling" below -0.05, else "stable".
// Players with fewer than two observations get zero change and "stable".
// An empty input yields an empty table.
func PriceVelocity(t *table.Table, opts VelocityOptions) (*table.Table, error) {
	playerCol := strOr(opts.PlayerCol, "player_id")
	priceCol := strOr(opts.PriceCol, "price")
	gwCol := strOr(opts.GWCol, "gameweek")
	if t.IsEmpty() {
		return table.Empty(), nil
	}
	if err := t.Require(playerCol, priceCol, gwCol); err != nil {
		return nil, err
	}
	sorted, err := t.SortBy(table.SortKey{Column: playerCol}, table.SortKey{Column: gwCol})
	if err != nil {
		return nil, err
	}
	groups, err := sorted.GroupBy(playerCol)
	if err != nil {
		return nil, err
	}
	prices, _ := sorted.Column(priceCol)
	gws, _ := sorted.Column(gwCol)

	n := len(groups)
	var (
		players   = make([]any, n)
		change    = make([]any, n)
		span      = make([]any, n)
		velocity  = make([]any, n)
		latest    = make([]any, n)
		direction = make([]any, n)
	)
	for i, g := range groups {
		players[i] = g.Key
		var ps, ws []float64
		for _, row := range g.Indices {
			p, pok := prices.Float(row)
			w, wok := gws.Float(row)
			if pok && wok {
				ps = append(ps, p)
				ws = append(ws, w)
			}
		}
		change[i], span[i], velocity[i], direction[i] = 0.0, 0, 0.0, DirectionStable
		if len(ps) > 0 {
			latest[i] = ps[len(ps)-1]
		}
		if len(ps) < 2 {
			continue
		}
		delta := ps[len(ps)-1] - ps[0]
		gwSpan := ws[len(ws)-1] - ws[0]
		vel := 0.0
		if gwSpan > 0 {
			vel = delta / gwSpan
		}
		change[i] = Round(delta, 1)
		span[i] = int64(gwSpan)
		velocity[i] = Round(vel, 2)
		direction[i] = classifyVelocity(vel)
	}
	return buildTable([]string{
		playerCol, "price_change", "gw_span", "velocity", "latest_price", "direction",
	}, players, change, span, velocity, latest, direction)
}

func classifyVelocity(v float64) string {
	switch {
	case v > velocityThreshold:
		return DirectionRising
	case v < -velocityThreshold:
		return DirectionFalling
	}
	return DirectionStable
}
