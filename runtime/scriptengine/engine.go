package scriptengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/jv92admin/fpltools/code"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultMaxCallStackSize = 500
	DefaultSeed             = 12345
	DefaultScriptName       = "<analysis>"
	DefaultPrintRows        = 20
)

// Config configures an Engine.
type Config struct {
	// MaxCallStackSize bounds script recursion. Exceeding it is reported
	// as out of memory.
	MaxCallStackSize int

	// Seed seeds Math.random so runs are repeatable.
	Seed int64

	// ScriptName is the source name shown in tracebacks.
	ScriptName string

	// PrintRows caps the rows shown when a table is printed.
	PrintRows int
}

// Engine runs scripts in a fresh goja runtime per call. It implements
// code.Engine and is safe for concurrent use.
type Engine struct {
	cfg Config
}

var _ code.Engine = (*Engine)(nil)

// New returns an Engine. Negative limits are a configuration error.
func New(cfg Config) (*Engine, error) {
	if cfg.MaxCallStackSize < 0 || cfg.PrintRows < 0 {
		return nil, fmt.Errorf("%w: scriptengine limits must not be negative", code.ErrConfiguration)
	}
	if cfg.MaxCallStackSize == 0 {
		cfg.MaxCallStackSize = DefaultMaxCallStackSize
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.ScriptName == "" {
		cfg.ScriptName = DefaultScriptName
	}
	if cfg.PrintRows == 0 {
		cfg.PrintRows = DefaultPrintRows
	}
	return &Engine{cfg: cfg}, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// Execute implements code.Engine. Imports are checked before the script
// is compiled; a script that fails at run time still reports the tables
// it bound before failing, unless it was stopped by ctx.
func (e *Engine) Execute(ctx context.Context, params code.ExecuteParams, env code.Env) (result code.ExecuteResult, err error) {
	ctx = ensureContext(ctx)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if capErr := scanImports(params.Code); capErr != nil {
		return result, capErr
	}
	prg, err := parser.ParseFile(nil, e.cfg.ScriptName, params.Code, 0)
	if err != nil {
		return result, e.mapError(err)
	}
	compiled, err := goja.CompileAST(prg, false)
	if err != nil {
		return result, e.mapError(err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: interpreter panic: %v", code.ErrCodeExecution, r)
		}
	}()

	s := newSession(e.cfg, env)
	if err := s.setup(params.Context); err != nil {
		return result, fmt.Errorf("%w: %w", code.ErrConfiguration, err)
	}
	before := s.globalNames()

	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt(ctx.Err())
	})
	defer stop()

	completion, runErr := s.vm.RunProgram(compiled)
	var interrupted *goja.InterruptedError
	if errors.As(runErr, &interrupted) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("%w: %w", code.ErrCodeExecution, runErr)
	}

	result.Tables = s.harvest(declaredNames(prg), before)
	if runErr != nil {
		return result, e.mapError(runErr)
	}
	result.Value = s.trailingValue(prg, completion)
	return result, nil
}
