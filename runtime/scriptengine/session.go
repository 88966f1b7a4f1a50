package scriptengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strings"

	"github.com/dop251/goja"

	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/table"
)

// maxExportDepth bounds recursion when converting script values to Go, so
// cyclic objects terminate.
const maxExportDepth = 32

// session is the state of one run: a fresh runtime, its capture
// environment and the table wrappers it has handed out.
type session struct {
	cfg     Config
	vm      *goja.Runtime
	env     code.Env
	tables  map[*goja.Object]*table.Table
	proto   *goja.Object
	modules map[string]*goja.Object
}

func newSession(cfg Config, env code.Env) *session {
	vm := goja.New()
	vm.SetMaxCallStackSize(cfg.MaxCallStackSize)
	seeded := rand.New(rand.NewSource(cfg.Seed))
	vm.SetRandSource(seeded.Float64)
	return &session{
		cfg:     cfg,
		vm:      vm,
		env:     env,
		tables:  make(map[*goja.Object]*table.Table),
		modules: make(map[string]*goja.Object),
	}
}

// setup installs the capability surface, the library and the caller's
// bindings, in that order.
func (s *session) setup(bindings map[string]any) error {
	if err := s.restrictGlobals(); err != nil {
		return err
	}
	s.proto = s.tablePrototype()
	s.bindBuiltins()
	if err := s.bindLibrary(); err != nil {
		return err
	}
	for name, v := range bindings {
		if err := s.vm.Set(name, s.toJS(v)); err != nil {
			return fmt.Errorf("bind %q: %w", name, err)
		}
	}
	return nil
}

// bindBuiltins binds print, console and require.
func (s *session) bindBuiltins() {
	s.vm.Set("print", s.native("print", func(call goja.FunctionCall) goja.Value {
		s.println(call.Arguments)
		return goja.Undefined()
	}))

	console := s.vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		console.Set(name, s.native("console."+name, func(call goja.FunctionCall) goja.Value {
			s.println(call.Arguments)
			return goja.Undefined()
		}))
	}
	s.vm.Set("console", console)

	s.vm.Set("require", s.native("require", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if m, ok := s.modules[name]; ok && code.IsApprovedModule(name) {
			return m
		}
		s.throwGo(&code.CapabilityError{Kind: code.CapabilityImport, Name: name})
		return nil
	}))
}

func (s *session) println(values []goja.Value) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = s.format(v)
	}
	s.env.Print(strings.Join(parts, " ") + "\n")
}

// format renders a value the way print shows it.
func (s *session) format(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if t, ok := s.toTable(v); ok {
		return t.Format(s.cfg.PrintRows)
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return v.String()
	}
	switch obj.ClassName() {
	case "Object", "Array":
		if b, err := json.Marshal(s.export(v, 0)); err == nil {
			return string(b)
		}
	}
	return v.String()
}

// native wraps a Go function bound into the runtime so that Go panics
// raised by library code surface as script exceptions.
func (s *session) native(name string, fn func(goja.FunctionCall) goja.Value) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			switch x := r.(type) {
			case goja.Value, *goja.Exception, *goja.InterruptedError, *goja.StackOverflowError:
				panic(r)
			case runtime.Error:
				panic(s.vm.NewGoError(fmt.Errorf("%s: internal error: %w", name, x)))
			case error:
				panic(s.vm.NewGoError(x))
			case string:
				panic(s.vm.NewGoError(fmt.Errorf("%s: %s", name, x)))
			}
			panic(r)
		}()
		return fn(call)
	}
}

// throwGo raises err as a script exception.
func (s *session) throwGo(err error) {
	panic(s.vm.NewGoError(err))
}

// rethrow propagates an error returned by a script callback.
func (s *session) rethrow(err error) {
	var interrupted *goja.InterruptedError
	var overflow *goja.StackOverflowError
	if errors.As(err, &interrupted) || errors.As(err, &overflow) {
		panic(err)
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		panic(exc.Value())
	}
	s.throwGo(err)
}

// toTable returns the table behind a wrapper object.
func (s *session) toTable(v goja.Value) (*table.Table, bool) {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return nil, false
	}
	t, ok := s.tables[obj]
	return t, ok
}

// toJS converts a Go binding into a script value. Tables become wrapper
// objects, also when nested in maps and slices.
func (s *session) toJS(v any) goja.Value {
	switch val := v.(type) {
	case nil:
		return goja.Null()
	case *table.Table:
		if val == nil {
			return goja.Null()
		}
		return s.wrap(val)
	case map[string]any:
		obj := s.vm.NewObject()
		for k, item := range val {
			obj.Set(k, s.toJS(item))
		}
		return obj
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = s.toJS(item)
		}
		return s.vm.NewArray(items...)
	}
	return s.vm.ToValue(v)
}

// export converts a script value to Go: tables to *table.Table, arrays
// to []any, plain objects to map[string]any, functions and undefined to
// nil.
func (s *session) export(v goja.Value, depth int) any {
	if isMissing(v) {
		return nil
	}
	if t, ok := s.toTable(v); ok {
		return t
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return nil
	}
	if depth >= maxExportDepth {
		return obj.String()
	}
	switch obj.ClassName() {
	case "Array":
		n := int(obj.Get("length").ToInteger())
		out := make([]any, n)
		for i := range out {
			out[i] = s.export(obj.Get(fmt.Sprint(i)), depth+1)
		}
		return out
	case "Object":
		out := make(map[string]any)
		for _, k := range obj.Keys() {
			out[k] = s.export(obj.Get(k), depth+1)
		}
		return out
	}
	return obj.Export()
}
