package analytics

import (
	"fmt"

	"github.com/jv92admin/fpltools/table"
)

// Fixture table column names.
const (
	colHomeTeamID     = "home_team_id"
	colAwayTeamID     = "away_team_id"
	colHomeDifficulty = "home_difficulty"
	colAwayDifficulty = "away_difficulty"
	colFinished       = "finished"
	colHomeTeam       = "home_team"
	colAwayTeam       = "away_team"
)

// FixtureOptions configures FixtureRun.
type FixtureOptions struct {
	// NGWs is the number of fixtures returned. Defaults to 5.
	NGWs int

	// GWCol names the gameweek column. Defaults to "gameweek".
	GWCol string
}

// FixtureRun lists the next fixtures for teamID with the difficulty
// rating that applies to the team's side.
//
// The fixtures table needs home_team_id, away_team_id, home_difficulty,
// away_difficulty and the gameweek column. When a finished column exists,
// unfinished fixtures are preferred; if every fixture is finished the most
// recent ones are returned instead. Output columns are gameweek,
// opponent_id, is_home and fdr, plus opponent when the table carries
// home_team/away_team names. Rows are ordered by gameweek. A team with no
// fixtures yields an empty table.
func FixtureRun(fixtures *table.Table, teamID any, opts FixtureOptions) (*table.Table, error) {
	n := orDefault(opts.NGWs, 5)
	gwCol := strOr(opts.GWCol, "gameweek")
	if err := fixtures.Require(colHomeTeamID, colAwayTeamID, colHomeDifficulty, colAwayDifficulty, gwCol); err != nil {
		return nil, err
	}
	id, err := table.Normalize(teamID)
	if err != nil {
		return nil, fmt.Errorf("team id: %w", err)
	}

	played := fixtures.Filter(func(r table.Row) bool {
		return table.Equal(r.Get(colHomeTeamID), id) || table.Equal(r.Get(colAwayTeamID), id)
	})
	if played.IsEmpty() {
		return table.Empty(), nil
	}
	played, err = played.SortBy(table.SortKey{Column: gwCol})
	if err != nil {
		return nil, err
	}
	unfinished := played.Filter(func(r table.Row) bool {
		return r.Get(colFinished) != true
	})
	selected := played.Tail(n)
	if !unfinished.IsEmpty() {
		selected = unfinished.Head(n)
	}

	rows := selected.NumRows()
	var (
		gws       = make([]any, rows)
		opponents = make([]any, rows)
		isHome    = make([]any, rows)
		fdr       = make([]any, rows)
		names     = make([]any, rows)
	)
	withNames := fixtures.HasColumn(colHomeTeam)
	teamNames := map[any]any{}
	if withNames {
		for i := 0; i < rows; i++ {
			r := selected.Row(i)
			teamNames[table.Key(r.Get(colHomeTeamID))] = r.Get(colHomeTeam)
			teamNames[table.Key(r.Get(colAwayTeamID))] = r.Get(colAwayTeam)
		}
	}
	for i := 0; i < rows; i++ {
		r := selected.Row(i)
		home := table.Equal(r.Get(colHomeTeamID), id)
		gws[i] = r.Get(gwCol)
		isHome[i] = home
		if home {
			opponents[i] = r.Get(colAwayTeamID)
			fdr[i] = r.Get(colHomeDifficulty)
		} else {
			opponents[i] = r.Get(colHomeTeamID)
			fdr[i] = r.Get(colAwayDifficulty)
		}
		names[i] = teamNames[table.Key(opponents[i])]
	}

	cols := []string{"gameweek", "opponent_id", "is_home", "fdr"}
	values := [][]any{gws, opponents, isHome, fdr}
	if withNames {
		cols = append(cols, "opponent")
		values = append(values, names)
	}
	return buildTable(cols, values...)
}
