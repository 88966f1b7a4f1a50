package code

import (
	"time"

	"github.com/jv92admin/fpltools/table"
)

// ExecuteParams specifies the parameters for executing an analysis script.
type ExecuteParams struct {
	// Code is the script source.
	Code string `json:"code"`

	// Context binds names to values visible to the script. Values may be
	// *table.Table, nil, bool, string, any integer or float type, or
	// slices and string-keyed maps of those. Other values are dropped.
	Context map[string]any `json:"-"`

	// Timeout bounds the run. If zero, the executor's default applies.
	Timeout time.Duration `json:"timeout"`
}

// ExecuteResult is the outcome of one run. Exactly one of two states
// holds: completed (Error empty) or failed (Error set, other fields
// best-effort).
type ExecuteResult struct {
	// Stdout is everything the script printed.
	Stdout string `json:"stdout,omitempty"`

	// Tables holds every table bound at top level after the run that was
	// not part of the context, keyed by binding name.
	Tables map[string]*table.Table `json:"-"`

	// Charts lists PNG files in the scratch directory, sorted and capped.
	Charts []string `json:"charts,omitempty"`

	// Value is the script's trailing expression value, when captured.
	Value any `json:"value,omitempty"`

	// Error describes the failure for the caller. Empty on success.
	Error string `json:"error,omitempty"`

	// Err is the classified error behind Error, for errors.Is checks.
	Err error `json:"-"`

	// DurationMs is the wall-clock run time in milliseconds.
	DurationMs int64 `json:"durationMs"`

	// ScratchDir is the directory allocated for this run's charts. The
	// executor never removes it.
	ScratchDir string `json:"scratchDir,omitempty"`
}

// OK reports whether the run completed without error.
func (r ExecuteResult) OK() bool {
	return r.Error == ""
}
