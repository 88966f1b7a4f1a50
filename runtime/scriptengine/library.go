package scriptengine

import (
	"fmt"
	"math"

	"github.com/dop251/goja"

	"github.com/jv92admin/fpltools/analytics"
	"github.com/jv92admin/fpltools/chart"
	"github.com/jv92admin/fpltools/table"
)

// bindLibrary binds every Function into its module object, and fpl
// functions also as globals.
func (s *session) bindLibrary() error {
	impls := s.implementations()
	for _, m := range []Module{ModuleFPL, ModulePD, ModuleNP} {
		s.modules[string(m)] = s.vm.NewObject()
	}
	for _, fn := range library {
		impl, ok := impls[fn.ID()]
		if !ok {
			return fmt.Errorf("no implementation for %s", fn.ID())
		}
		v := s.vm.ToValue(s.native(fn.ScriptName(), func(call goja.FunctionCall) goja.Value {
			return impl(s.bind(fn, call))
		}))
		if err := s.modules[string(fn.Module)].Set(fn.Name, v); err != nil {
			return err
		}
		if fn.Module == ModuleFPL {
			if err := s.vm.Set(fn.Name, v); err != nil {
				return err
			}
		}
	}
	for name, obj := range s.modules {
		if err := s.vm.Set(name, obj); err != nil {
			return err
		}
	}
	return nil
}

// implementations maps Function IDs to their bodies.
func (s *session) implementations() map[string]func(*args) goja.Value {
	impls := map[string]func(*args) goja.Value{
		"fpl:add_rolling_mean": func(a *args) goja.Value {
			return s.tableResult(analytics.RollingMean(a.table("df"), a.str("column", ""), analytics.RollingOptions{
				Window:    a.int("window", 0),
				GroupBy:   a.str("group_by", ""),
				NewColumn: a.str("new_column", ""),
			}))
		},
		"fpl:compute_form_trend": func(a *args) goja.Value {
			return s.tableResult(analytics.FormTrend(a.table("df"), analytics.FormTrendOptions{
				PlayerCol: a.str("player_col", ""),
				GWCol:     a.str("gw_col", ""),
				PointsCol: a.str("points_col", ""),
				NGWs:      a.int("n_gws", 0),
			}))
		},
		"fpl:compute_fixture_difficulty": func(a *args) goja.Value {
			return s.tableResult(analytics.FixtureRun(a.table("fixtures_df"), s.export(a.value("team_id"), 0), analytics.FixtureOptions{
				NGWs:  a.int("n_gws", 0),
				GWCol: a.str("gw_col", ""),
			}))
		},
		"fpl:compute_differentials": func(a *args) goja.Value {
			return s.tableResult(analytics.Differential(a.table("squad_a"), a.table("squad_b"), analytics.DifferentialOptions{
				PlayerCol: a.str("player_col", ""),
			}))
		},
		"fpl:compute_price_velocity": func(a *args) goja.Value {
			return s.tableResult(analytics.PriceVelocity(a.table("snapshots_df"), analytics.VelocityOptions{
				PlayerCol: a.str("player_col", ""),
				PriceCol:  a.str("price_col", ""),
				GWCol:     a.str("gw_col", ""),
			}))
		},
		"fpl:rank_by": func(a *args) goja.Value {
			return s.tableResult(analytics.RankBy(a.table("df"), a.str("metric", ""), analytics.RankOptions{
				N:         a.int("n", 0),
				Ascending: a.bool("ascending", false),
				GroupBy:   a.str("group_by", ""),
			}))
		},
		"fpl:render_line": func(a *args) goja.Value {
			return s.chartResult(chart.Line(a.table("df"), a.str("x", ""), a.str("y", ""), chart.LineOptions{
				Options: s.chartOptions(a),
				Hue:     a.str("hue", ""),
				XLabel:  a.str("xlabel", ""),
				YLabel:  a.str("ylabel", ""),
			}))
		},
		"fpl:render_bar": func(a *args) goja.Value {
			return s.chartResult(chart.Bar(a.table("df"), a.str("x", ""), a.str("y", ""), chart.BarOptions{
				Options:    s.chartOptions(a),
				Horizontal: a.bool("horizontal", false),
				XLabel:     a.str("xlabel", ""),
				YLabel:     a.str("ylabel", ""),
			}))
		},
		"fpl:render_heatmap": func(a *args) goja.Value {
			opts := chart.DefaultHeatmapOptions()
			opts.Options = s.chartOptions(a)
			opts.VMin = a.float("vmin", opts.VMin)
			opts.VMax = a.float("vmax", opts.VMax)
			opts.Annotate = a.bool("annot", opts.Annotate)
			opts.RowLabel = a.str("row_label", "")
			opts.ColorbarLabel = a.str("colorbar_label", opts.ColorbarLabel)
			return s.chartResult(chart.Heatmap(a.table("df"), opts))
		},
		"fpl:render_comparison": func(a *args) goja.Value {
			obj, ok := s.optionsObject(a.value("dfs"))
			if !ok {
				s.throwTypeError("render_comparison(): 'dfs' must map names to tables")
			}
			entities := make(map[string]*table.Table)
			for _, name := range obj.Keys() {
				t, ok := s.toTable(obj.Get(name))
				if !ok {
					s.throwTypeError("render_comparison(): '%s' is not a table", name)
				}
				entities[name] = t
			}
			return s.chartResult(chart.Comparison(entities, a.strs("metrics"), chart.ComparisonOptions{
				Options: s.chartOptions(a),
				Order:   a.strs("order"),
			}))
		},

		"np:mean":   s.reduction(analytics.Mean),
		"np:median": s.reduction(analytics.Median),
		"np:std":    s.reduction(analytics.Std),
		"np:min":    s.reduction(analytics.Min),
		"np:max":    s.reduction(analytics.Max),
		"np:sum": func(a *args) goja.Value {
			return s.vm.ToValue(analytics.Sum(a.floats("a")))
		},
		"np:cumsum": func(a *args) goja.Value {
			return s.numbers(analytics.CumSum(a.floats("a")))
		},
		"np:round": func(a *args) goja.Value {
			decimals := a.int("decimals", 0)
			x := a.value("x")
			if obj, ok := x.(*goja.Object); ok && obj.ClassName() == "Array" {
				xs := a.floats("x")
				out := make([]float64, len(xs))
				for i, f := range xs {
					out[i] = analytics.Round(f, decimals)
				}
				return s.numbers(out)
			}
			return s.vm.ToValue(analytics.Round(a.float("x", math.NaN()), decimals))
		},
		"np:corr": func(a *args) goja.Value {
			return s.numberResult(analytics.Corr(a.floats("a"), a.floats("b")))
		},
		"np:percentile": func(a *args) goja.Value {
			return s.numberResult(analytics.Percentile(a.floats("a"), a.float("q", 0)))
		},
		"np:arange": func(a *args) goja.Value {
			start, stop := 0.0, a.float("start", 0)
			if a.has("stop") {
				start, stop = stop, a.float("stop", 0)
			}
			xs, err := analytics.Arange(start, stop, a.float("step", 1))
			if err != nil {
				s.throwGo(err)
			}
			return s.numbers(xs)
		},
	}
	for name, impl := range s.tableConstructors() {
		impls[string(ModulePD)+":"+name] = impl
	}
	return impls
}

// chartOptions pins output to the run's scratch directory whatever the
// script passed as output_dir.
func (s *session) chartOptions(a *args) chart.Options {
	return chart.Options{Dir: s.env.ScratchDir(), Title: a.str("title", "")}
}

func (s *session) tableResult(t *table.Table, err error) goja.Value {
	if err != nil {
		s.throwGo(err)
	}
	return s.wrap(t)
}

func (s *session) chartResult(path string, err error) goja.Value {
	if err != nil {
		s.throwGo(err)
	}
	return s.vm.ToValue(path)
}

func (s *session) numberResult(f float64, err error) goja.Value {
	if err != nil {
		s.throwGo(err)
	}
	return s.vm.ToValue(f)
}

func (s *session) reduction(fn func([]float64) (float64, error)) func(*args) goja.Value {
	return func(a *args) goja.Value {
		return s.numberResult(fn(a.floats("a")))
	}
}

func (s *session) numbers(xs []float64) goja.Value {
	items := make([]any, len(xs))
	for i, f := range xs {
		items[i] = f
	}
	return s.vm.NewArray(items...)
}
