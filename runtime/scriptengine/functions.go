package scriptengine

// Module names a namespace object visible to scripts.
type Module string

// Script modules. Functions in ModuleFPL are also bound as globals.
const (
	ModuleFPL Module = "fpl"
	ModulePD  Module = "pd"
	ModuleNP  Module = "np"
)

// Param describes one function parameter. Parameters bind positionally in
// declaration order or by name from a trailing options object.
type Param struct {
	Name     string
	Type     string
	Required bool
	Default  any
	Doc      string
}

// Function describes one function bound into the sandbox.
type Function struct {
	Module  Module
	Name    string
	Summary string
	Notes   string
	Params  []Param
	Returns string
	Example string
	Tags    []string
}

// ID returns the qualified name, "fpl:rank_by".
func (f Function) ID() string {
	return string(f.Module) + ":" + f.Name
}

// ScriptName returns the name scripts call: bare for library functions,
// dotted for pd and np.
func (f Function) ScriptName() string {
	if f.Module == ModuleFPL {
		return f.Name
	}
	return string(f.Module) + "." + f.Name
}

func (f Function) required() int {
	n := 0
	for _, p := range f.Params {
		if p.Required {
			n++
		}
	}
	return n
}

var outputDirParam = Param{
	Name: "output_dir", Type: "string",
	Doc: "Ignored. Charts are always written to the run's scratch directory.",
}

var library = []Function{
	{
		Module:  ModuleFPL,
		Name:    "add_rolling_mean",
		Summary: "Append a rolling mean of a column, optionally per group.",
		Notes:   "Rows should already be sorted by gameweek. Missing values are skipped; each window needs at least one value.",
		Params: []Param{
			{Name: "df", Type: "table", Required: true, Doc: "Input table."},
			{Name: "column", Type: "string", Required: true, Doc: "Column to average."},
			{Name: "window", Type: "integer", Default: 3, Doc: "Rows per window including the current row."},
			{Name: "group_by", Type: "string", Doc: "Restrict windows to rows sharing this column's value."},
			{Name: "new_column", Type: "string", Doc: "Output column, default {column}_rolling_{window}."},
		},
		Returns: "table",
		Example: `df = add_rolling_mean(df_player_gameweeks, "total_points", {window: 3, group_by: "player_id"})`,
		Tags:    []string{"analytics", "form", "rolling"},
	},
	{
		Module:  ModuleFPL,
		Name:    "compute_form_trend",
		Summary: "Summarise each player's points over the last N gameweeks with an up/down/flat trend.",
		Notes:   "Trend compares the mean of the second half of the window with the first half; a difference above 0.5 is up, below -0.5 is down.",
		Params: []Param{
			{Name: "df", Type: "table", Required: true, Doc: "Per-gameweek player rows."},
			{Name: "player_col", Type: "string", Default: "player_id"},
			{Name: "gw_col", Type: "string", Default: "gameweek"},
			{Name: "points_col", Type: "string", Default: "total_points"},
			{Name: "n_gws", Type: "integer", Default: 5, Doc: "Gameweeks in the window, counted back from the latest."},
		},
		Returns: "table",
		Example: `form = compute_form_trend(df_player_gameweeks, {n_gws: 4})`,
		Tags:    []string{"analytics", "form", "trend"},
	},
	{
		Module:  ModuleFPL,
		Name:    "compute_fixture_difficulty",
		Summary: "List a team's next fixtures with the difficulty rating from that team's side.",
		Notes:   "Unfinished fixtures are preferred; when every fixture is finished the latest N are returned.",
		Params: []Param{
			{Name: "fixtures_df", Type: "table", Required: true, Doc: "Fixture rows with home/away team ids and difficulties."},
			{Name: "team_id", Type: "any", Required: true, Doc: "Team id, compared by value."},
			{Name: "n_gws", Type: "integer", Default: 5},
			{Name: "gw_col", Type: "string", Default: "gameweek"},
		},
		Returns: "table",
		Example: `run = compute_fixture_difficulty(df_fixtures, 14, 6)`,
		Tags:    []string{"analytics", "fixtures", "fdr"},
	},
	{
		Module:  ModuleFPL,
		Name:    "compute_differentials",
		Summary: "Compare two squads and label each player both, a or b.",
		Params: []Param{
			{Name: "squad_a", Type: "table", Required: true},
			{Name: "squad_b", Type: "table", Required: true},
			{Name: "player_col", Type: "string", Default: "player_id"},
		},
		Returns: "table",
		Example: `diff = compute_differentials(df_my_squad, df_rival_squad)`,
		Tags:    []string{"analytics", "squad", "differential"},
	},
	{
		Module:  ModuleFPL,
		Name:    "compute_price_velocity",
		Summary: "Compute each player's price change per gameweek and its direction.",
		Notes:   "Direction is rising above +0.05 per gameweek, falling below -0.05, otherwise stable.",
		Params: []Param{
			{Name: "snapshots_df", Type: "table", Required: true, Doc: "Price snapshots, one row per player per gameweek."},
			{Name: "player_col", Type: "string", Default: "player_id"},
			{Name: "price_col", Type: "string", Default: "price"},
			{Name: "gw_col", Type: "string", Default: "gameweek"},
		},
		Returns: "table",
		Example: `vel = compute_price_velocity(df_price_history)`,
		Tags:    []string{"analytics", "price", "transfers"},
	},
	{
		Module:  ModuleFPL,
		Name:    "rank_by",
		Summary: "Keep the top (or bottom) N rows by a metric, optionally per group, with a rank column.",
		Params: []Param{
			{Name: "df", Type: "table", Required: true},
			{Name: "metric", Type: "string", Required: true},
			{Name: "n", Type: "integer", Default: 10},
			{Name: "ascending", Type: "boolean", Default: false, Doc: "Keep the lowest values instead."},
			{Name: "group_by", Type: "string", Doc: "Rank within each value of this column."},
		},
		Returns: "table",
		Example: `top = rank_by(df_players, "total_points", {n: 5, group_by: "position"})`,
		Tags:    []string{"analytics", "ranking"},
	},
	{
		Module:  ModuleFPL,
		Name:    "render_line",
		Summary: "Render a line chart of y against x, one series per hue value.",
		Params: []Param{
			{Name: "df", Type: "table", Required: true},
			{Name: "x", Type: "string", Required: true},
			{Name: "y", Type: "string", Required: true},
			{Name: "hue", Type: "string", Doc: "Column splitting rows into series."},
			{Name: "title", Type: "string"},
			{Name: "xlabel", Type: "string"},
			{Name: "ylabel", Type: "string"},
			outputDirParam,
		},
		Returns: "string",
		Example: `render_line(df, "gameweek", "total_points", {hue: "web_name", title: "Form"})`,
		Tags:    []string{"chart", "line"},
	},
	{
		Module:  ModuleFPL,
		Name:    "render_bar",
		Summary: "Render a bar chart with one bar per row.",
		Params: []Param{
			{Name: "df", Type: "table", Required: true},
			{Name: "x", Type: "string", Required: true, Doc: "Category label column."},
			{Name: "y", Type: "string", Required: true, Doc: "Bar length column."},
			{Name: "title", Type: "string"},
			{Name: "xlabel", Type: "string"},
			{Name: "ylabel", Type: "string"},
			{Name: "horizontal", Type: "boolean", Default: false},
			outputDirParam,
		},
		Returns: "string",
		Example: `render_bar(top, "web_name", "total_points", {horizontal: true})`,
		Tags:    []string{"chart", "bar"},
	},
	{
		Module:  ModuleFPL,
		Name:    "render_heatmap",
		Summary: "Render a grid heatmap, one row per label and one cell per numeric column.",
		Notes:   "Defaults suit fixture difficulty: a 1 to 5 scale, green for easy and red for hard, annotated cells.",
		Params: []Param{
			{Name: "df", Type: "table", Required: true},
			{Name: "title", Type: "string"},
			{Name: "vmin", Type: "number", Default: 1},
			{Name: "vmax", Type: "number", Default: 5},
			{Name: "annot", Type: "boolean", Default: true},
			{Name: "row_label", Type: "string", Doc: "Label column, default the first string column."},
			{Name: "colorbar_label", Type: "string", Default: "FDR (1=easy, 5=hard)"},
			outputDirParam,
		},
		Returns: "string",
		Example: `render_heatmap(grid, {title: "Next 5 fixtures"})`,
		Tags:    []string{"chart", "heatmap", "fixtures"},
	},
	{
		Module:  ModuleFPL,
		Name:    "render_comparison",
		Summary: "Render grouped bars comparing metrics across named entities.",
		Notes:   "Each entity's first row supplies its values. A missing metric plots as 0.",
		Params: []Param{
			{Name: "dfs", Type: "object", Required: true, Doc: "Entity name to single-row table."},
			{Name: "metrics", Type: "array", Required: true},
			{Name: "title", Type: "string"},
			{Name: "order", Type: "array", Doc: "Entity drawing order, default sorted by name."},
			outputDirParam,
		},
		Returns: "string",
		Example: `render_comparison({Salah: salah, Palmer: palmer}, ["total_points", "form"])`,
		Tags:    []string{"chart", "comparison"},
	},

	{
		Module:  ModulePD,
		Name:    "DataFrame",
		Summary: "Build a table from {column: values} or from an array of row objects.",
		Params: []Param{
			{Name: "data", Type: "object", Required: true},
			{Name: "columns", Type: "array", Doc: "Column order."},
		},
		Returns: "table",
		Example: `df = pd.DataFrame({web_name: ["Salah", "Palmer"], total_points: [180, 160]})`,
		Tags:    []string{"table"},
	},
	{
		Module:  ModulePD,
		Name:    "fromRecords",
		Summary: "Build a table from an array of row objects.",
		Params: []Param{
			{Name: "records", Type: "array", Required: true},
			{Name: "columns", Type: "array"},
		},
		Returns: "table",
		Tags:    []string{"table"},
	},
	{
		Module:  ModulePD,
		Name:    "concat",
		Summary: "Stack tables vertically; columns are unioned and gaps are null.",
		Params: []Param{
			{Name: "tables", Type: "array", Required: true},
		},
		Returns: "table",
		Example: `all = pd.concat([df_gk, df_def])`,
		Tags:    []string{"table"},
	},

	numeric("mean", "number", "Arithmetic mean, nulls skipped."),
	numeric("sum", "number", "Sum, nulls skipped."),
	numeric("median", "number", "Median, nulls skipped."),
	numeric("std", "number", "Population standard deviation."),
	numeric("min", "number", "Smallest value."),
	numeric("max", "number", "Largest value."),
	numeric("cumsum", "array", "Running totals."),
	{
		Module:  ModuleNP,
		Name:    "round",
		Summary: "Round half away from zero; arrays are rounded element-wise.",
		Params: []Param{
			{Name: "x", Type: "any", Required: true},
			{Name: "decimals", Type: "integer", Default: 0},
		},
		Returns: "number",
		Tags:    []string{"numeric"},
	},
	{
		Module:  ModuleNP,
		Name:    "corr",
		Summary: "Pearson correlation of two equally long arrays.",
		Params: []Param{
			{Name: "a", Type: "array", Required: true},
			{Name: "b", Type: "array", Required: true},
		},
		Returns: "number",
		Tags:    []string{"numeric"},
	},
	{
		Module:  ModuleNP,
		Name:    "percentile",
		Summary: "q-th percentile (0 to 100) by linear interpolation.",
		Params: []Param{
			{Name: "a", Type: "array", Required: true},
			{Name: "q", Type: "number", Required: true},
		},
		Returns: "number",
		Tags:    []string{"numeric"},
	},
	{
		Module:  ModuleNP,
		Name:    "arange",
		Summary: "Evenly spaced values in [start, stop). One argument means [0, stop).",
		Params: []Param{
			{Name: "start", Type: "number", Required: true},
			{Name: "stop", Type: "number"},
			{Name: "step", Type: "number", Default: 1},
		},
		Returns: "array",
		Tags:    []string{"numeric"},
	},
}

func numeric(name, returns, summary string) Function {
	return Function{
		Module:  ModuleNP,
		Name:    name,
		Summary: summary,
		Params:  []Param{{Name: "a", Type: "array", Required: true}},
		Returns: returns,
		Tags:    []string{"numeric"},
	}
}

// Functions returns the functions bound into every run.
func Functions() []Function {
	out := make([]Function, len(library))
	copy(out, library)
	return out
}
