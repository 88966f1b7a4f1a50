// Package exec provides the facade the agent tools call to run analysis
// scripts against FPL tables.
//
// The exec package combines table loading, script execution, and result
// shaping into a single API. It integrates with backend for data sources,
// with code for the sandboxed executor, and with tooldiscovery for the
// searchable catalog of sandbox functions.
//
// # Overview
//
// An [Exec] handles the complete workflow of one request:
//
//   - Table loading through a [TableCache], filling it from the sources
//   - Binding every table as df_<table> next to scalar context values
//   - Running the script under the executor's limits
//   - Shaping the result into an [Envelope] with short table previews
//
// # Basic Usage
//
//	x, err := exec.New(exec.Options{
//	    Executor: executor,
//	    Sources:  backend.NewAggregator(registry),
//	})
//
//	env, err := x.Analyze(ctx, exec.Request{
//	    Code:   `top = rank_by(df_players, "total_points", {n: 5})`,
//	    Tables: []string{"players"},
//	})
//
// Analyze and Plot only return an error for a request without code. A
// table that cannot be loaded, a script error or a timeout is described in
// Envelope.Error so the agent can correct its script and retry.
//
// # Charts
//
// Plot sets Envelope.Warning when the script wrote no chart. Chart files
// stay in the run's scratch directory until [Exec.Cleanup] removes it.
//
// # Function Catalog
//
// A [Catalog] registers every sandbox function as a tool in a BM25 index,
// so an agent can search for "rolling average" and read the signature and
// an example of add_rolling_mean before writing a script.
package exec
