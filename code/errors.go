package code

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for error classification.
var (
	// ErrCodeExecution indicates an error during script execution,
	// such as syntax errors or runtime exceptions in the script.
	ErrCodeExecution = errors.New("code execution error")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrLimitExceeded indicates that an execution limit was reached,
	// such as the timeout or the memory budget.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInput indicates a request that cannot be run, such as blank code.
	ErrInput = errors.New("invalid input")

	// ErrCapability indicates the script used a denied builtin or import.
	ErrCapability = errors.New("capability denied")

	// ErrOutOfMemory indicates the script exhausted a memory-like resource.
	// It matches ErrLimitExceeded.
	ErrOutOfMemory = fmt.Errorf("%w: out of memory", ErrLimitExceeded)
)

// Messages reported in ExecuteResult.Error.
const (
	MsgEmptyCode   = "Empty code string."
	MsgOutOfMemory = "Out of memory. Try reducing data size or computation scope."
)

// CodeError represents an error that occurred during script execution.
// It includes optional source location information for debugging.
type CodeError struct {
	// Message describes the error, prefixed with the exception type.
	Message string

	// Line is the 1-based line number where the error occurred.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number where the error occurred.
	// Zero indicates the column is unknown.
	Column int

	// Trace lists the script's own stack frames, innermost first.
	Trace []string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the error message, including line and column if available.
func (e *CodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Traceback returns Error followed by the script frames, one per line.
func (e *CodeError) Traceback() string {
	if len(e.Trace) == 0 {
		return e.Error()
	}
	return e.Error() + "\n" + strings.Join(e.Trace, "\n")
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CodeError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
// CodeError matches ErrCodeExecution to allow sentinel-style error checking.
func (e *CodeError) Is(target error) bool {
	return target == ErrCodeExecution
}

// Capability kinds.
const (
	CapabilityImport  = "import"
	CapabilityBuiltin = "builtin"
)

// CapabilityError reports a denied import or builtin.
type CapabilityError struct {
	// Kind is CapabilityImport or CapabilityBuiltin.
	Kind string

	// Name is the module or builtin the script asked for.
	Name string
}

// Error returns the message shown to the script author.
func (e *CapabilityError) Error() string {
	if e.Kind == CapabilityBuiltin {
		return fmt.Sprintf("'%s' is not allowed in the sandbox.", e.Name)
	}
	if IsBlockedModule(e.Name) {
		return fmt.Sprintf("Import of '%s' is not allowed in the sandbox. Available modules: %s.", e.Name, availableModules)
	}
	return fmt.Sprintf("Import of '%s' is not allowed. Use the pre-loaded variables: %s.", e.Name, availableModules)
}

// Is reports whether target is ErrCapability.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}
