// Package scriptengine implements code.Engine on the goja JavaScript
// interpreter.
//
// Every run gets a fresh runtime. Before the script starts the runtime is
// reduced to a small set of standard globals (see [AllowedGlobals]), the
// function constructors are locked, and eval and friends are replaced by
// stubs that raise a capability error. Scripts then see:
//
//   - the analysis and chart functions as bare globals, also reachable as
//     the fpl module
//   - pd, a small table toolkit, and np, numeric helpers on arrays
//   - print and console for output, captured through code.Env
//   - require("pd"), require("np") and require("fpl"); any other module,
//     and any import statement, is refused before the script runs
//   - every context binding, with tables wrapped as objects exposing
//     head, filter, sort, groupBy and friends
//
// Library functions accept their parameters positionally or from a
// trailing options object, so both of these work:
//
//	rank_by(df_players, "total_points", 5)
//	rank_by(df_players, "total_points", {n: 5, groupBy: "position"})
//
// [Functions] describes the library for tool discovery.
package scriptengine
