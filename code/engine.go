package code

import "context"

// Engine is the pluggable script interpreter that runs a snippet against
// the execution environment.
//
// The Engine should:
//   - Bind every params.Context entry under its name
//   - Route printed output through Env
//   - Force chart renderers to write into Env.ScratchDir
//   - Return new top-level tables and the trailing value in ExecuteResult
//   - Return CodeError for compile and runtime failures, CapabilityError
//     for denied operations and ErrOutOfMemory for resource exhaustion
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; each call gets its own interpreter.
// - Context: must stop the script when ctx ends and return an error wrapping ctx.Err().
// - Errors: partial Tables may accompany an error; Value is ignored on error.
// - Ownership: params are read-only; returned ExecuteResult is caller-owned.
type Engine interface {
	// Execute runs a script with access to the environment.
	Execute(ctx context.Context, params ExecuteParams, env Env) (ExecuteResult, error)
}
