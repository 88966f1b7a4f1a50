// Package analytics is the computation library available to analysis
// scripts: pure table transforms over FPL-shaped data.
//
// Every function takes [*table.Table] values and returns a new table; the
// inputs are never modified. Functions that add a column return the input
// rows with the column appended. Functions that summarize return a fresh
// table with one row per entity.
//
// # Functions
//
//   - [RollingMean]: per-row trailing mean, optionally within groups
//   - [FormTrend]: per-player form over the last N gameweeks
//   - [FixtureRun]: a team's upcoming fixture difficulty
//   - [Differential]: players owned by one squad, the other, or both
//   - [PriceVelocity]: per-player price change rate
//   - [RankBy]: top or bottom N rows, globally or per group
//
// Numeric reductions use gonum's stat and floats packages. The helpers in
// numeric.go back the np alias of the script sandbox.
//
// Missing required columns are reported with a [*table.ColumnError].
package analytics
