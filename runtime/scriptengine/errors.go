package scriptengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/table"
)

// mapError converts a compile or run failure into the code package's
// error types.
func (e *Engine) mapError(err error) error {
	var (
		syntax    parser.ErrorList
		compile   *goja.CompilerSyntaxError
		reference *goja.CompilerReferenceError
		overflow  *goja.StackOverflowError
		exc       *goja.Exception
	)
	switch {
	case errors.As(err, &syntax) && len(syntax) > 0:
		first := syntax[0]
		return &code.CodeError{
			Message: "SyntaxError: " + first.Message,
			Line:    first.Position.Line,
			Column:  first.Position.Column,
			Err:     err,
		}
	case errors.As(err, &compile):
		ce := &code.CodeError{Message: "SyntaxError: " + compile.Message, Err: err}
		if compile.File != nil {
			pos := compile.File.Position(compile.Offset)
			ce.Line, ce.Column = pos.Line, pos.Column
		}
		return ce
	case errors.As(err, &reference):
		return &code.CodeError{Message: "ReferenceError: " + reference.Message, Err: err}
	case errors.As(err, &overflow):
		return fmt.Errorf("%w: maximum call stack size exceeded", code.ErrOutOfMemory)
	case errors.As(err, &exc):
		return e.mapException(exc)
	}
	return err
}

func (e *Engine) mapException(exc *goja.Exception) error {
	cause := exc.Unwrap()
	var capErr *code.CapabilityError
	if errors.As(cause, &capErr) {
		return capErr
	}

	msg := exceptionMessage(exc.Value(), cause)
	if strings.HasSuffix(msg, "Invalid array length") {
		return fmt.Errorf("%w: %s", code.ErrOutOfMemory, msg)
	}
	ce := &code.CodeError{Message: msg, Err: cause}
	if ce.Err == nil {
		ce.Err = errors.New(msg)
	}
	stack := exc.Stack()
	for i := range stack {
		f := &stack[i]
		if f.SrcName() != e.cfg.ScriptName {
			continue
		}
		pos := f.Position()
		if ce.Line == 0 {
			ce.Line, ce.Column = pos.Line, pos.Column
		}
		ce.Trace = append(ce.Trace, fmt.Sprintf("    at %s (%s:%d:%d)", f.FuncName(), e.cfg.ScriptName, pos.Line, pos.Column))
	}
	return ce
}

// exceptionMessage renders a thrown value as "Type: message".
func exceptionMessage(v goja.Value, cause error) string {
	var colErr *table.ColumnError
	switch {
	case errors.As(cause, &colErr):
		return "ColumnError: " + colErr.Error()
	case cause != nil:
		return "Error: " + cause.Error()
	case v == nil:
		return "Error: unknown"
	}
	if obj, ok := v.(*goja.Object); ok {
		if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
			return v.String()
		}
	}
	return "Error: " + v.String()
}
