// Package code runs untrusted analysis scripts against named tables and
// reports everything they produce as a structured result.
//
// code is engine-independent: it owns the request/result envelope, the
// limits and the error taxonomy, while an [Engine] (see
// runtime/scriptengine) interprets the script itself.
//
// # Architecture
//
// The package defines three main interfaces:
//
//   - [Env]: The capture environment handed to the engine, collecting
//     printed output and naming the run's scratch directory.
//
//   - [Engine]: The pluggable interpreter that binds the context, runs
//     the script and harvests new tables and the trailing value.
//
//   - [Executor]: The main entry point that applies defaults, allocates
//     the scratch directory, enforces limits and classifies failures.
//
// # Execution Limits
//
//   - Timeout: Applied via context deadline; reported as
//     "Execution timed out after Ns" and matching [ErrLimitExceeded]
//   - Rows: Context and harvested tables are cut to Config.MaxRows
//   - Charts: At most Config.MaxCharts paths are reported; extra files
//     stay on disk
//   - Output: Stdout beyond Config.MaxStdoutBytes is dropped
//
// # Error Reporting
//
// ExecuteCode never returns a Go error. A failed run carries a message in
// [ExecuteResult].Error and the classified error in Err:
//
//   - [ErrInput]: blank code
//   - [*CodeError]: syntax and runtime errors, with script frames only
//   - [*CapabilityError]: denied builtins and imports
//   - [ErrLimitExceeded]: timeout, and [ErrOutOfMemory] for exhaustion
//
// # Result Convention
//
// Scripts either assign their answer to `__out` or end with a bare
// expression. The Engine extracts the value and returns it in
// [ExecuteResult].Value.
package code
