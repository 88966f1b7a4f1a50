package scriptengine

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"github.com/jv92admin/fpltools/table"
)

// args holds one call's arguments resolved against a Function's params.
type args struct {
	s      *session
	fn     Function
	values map[string]goja.Value
}

// bind resolves call arguments. Extra positional arguments fill optional
// params in order; a trailing plain object beyond the required params is
// read as keyword options, with camelCase keys accepted for snake_case
// names.
func (s *session) bind(fn Function, call goja.FunctionCall) *args {
	a := &args{s: s, fn: fn, values: make(map[string]goja.Value, len(fn.Params))}
	positional := call.Arguments
	if n := len(positional); n > fn.required() {
		if opts, ok := s.optionsObject(positional[n-1]); ok {
			positional = positional[:n-1]
			a.merge(opts)
		}
	}
	if len(positional) > len(fn.Params) {
		s.throwTypeError("%s() takes %d arguments but %d were given", fn.ScriptName(), len(fn.Params), len(positional))
	}
	for i, v := range positional {
		name := fn.Params[i].Name
		if _, dup := a.values[name]; dup {
			s.throwTypeError("%s() got multiple values for argument '%s'", fn.ScriptName(), name)
		}
		a.values[name] = v
	}
	for _, p := range fn.Params {
		if p.Required && !a.has(p.Name) {
			s.throwTypeError("%s() missing required argument '%s'", fn.ScriptName(), p.Name)
		}
	}
	return a
}

func (a *args) merge(opts *goja.Object) {
	for _, key := range opts.Keys() {
		name := snakeCase(key)
		if !a.fn.hasParam(name) {
			a.s.throwTypeError("%s() got an unexpected keyword argument '%s'", a.fn.ScriptName(), key)
		}
		a.values[name] = opts.Get(key)
	}
}

func (f Function) hasParam(name string) bool {
	for _, p := range f.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// optionsObject reports whether v is a plain options object rather than a
// table, array or function.
func (s *session) optionsObject(v goja.Value) (*goja.Object, bool) {
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Object" {
		return nil, false
	}
	if _, isTable := s.tables[obj]; isTable {
		return nil, false
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return nil, false
	}
	return obj, true
}

func (a *args) has(name string) bool {
	v, ok := a.values[name]
	return ok && !isMissing(v)
}

func (a *args) value(name string) goja.Value {
	if !a.has(name) {
		return nil
	}
	return a.values[name]
}

func (a *args) table(name string) *table.Table {
	t, ok := a.s.toTable(a.value(name))
	if !ok {
		a.s.throwTypeError("%s(): '%s' must be a table", a.fn.ScriptName(), name)
	}
	return t
}

func (a *args) str(name, def string) string {
	v := a.value(name)
	if v == nil {
		return def
	}
	s, ok := v.Export().(string)
	if !ok {
		a.s.throwTypeError("%s(): '%s' must be a string", a.fn.ScriptName(), name)
	}
	return s
}

func (a *args) float(name string, def float64) float64 {
	v := a.value(name)
	if v == nil {
		return def
	}
	f, ok := table.ToFloat(v.Export())
	if !ok {
		a.s.throwTypeError("%s(): '%s' must be a number", a.fn.ScriptName(), name)
	}
	return f
}

func (a *args) int(name string, def int) int {
	v := a.value(name)
	if v == nil {
		return def
	}
	f, ok := table.ToFloat(v.Export())
	if !ok || f != float64(int(f)) {
		a.s.throwTypeError("%s(): '%s' must be an integer", a.fn.ScriptName(), name)
	}
	return int(f)
}

func (a *args) bool(name string, def bool) bool {
	v := a.value(name)
	if v == nil {
		return def
	}
	return v.ToBoolean()
}

func (a *args) strs(name string) []string {
	v := a.value(name)
	if v == nil {
		return nil
	}
	if s, ok := v.Export().(string); ok {
		return []string{s}
	}
	items, ok := v.Export().([]any)
	if !ok {
		a.s.throwTypeError("%s(): '%s' must be an array of strings", a.fn.ScriptName(), name)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			a.s.throwTypeError("%s(): '%s' must be an array of strings", a.fn.ScriptName(), name)
		}
		out[i] = s
	}
	return out
}

func (a *args) floats(name string) []float64 {
	return a.s.floats(a.value(name), a.fn.ScriptName()+"(): '"+name+"'")
}

// floats converts an array of numbers, skipping nulls. what names the
// argument in errors.
func (s *session) floats(v goja.Value, what string) []float64 {
	if v == nil || isMissing(v) {
		s.throwTypeError("%s must be an array of numbers", what)
	}
	items, ok := v.Export().([]any)
	if !ok {
		if f, ok := table.ToFloat(v.Export()); ok {
			return []float64{f}
		}
		s.throwTypeError("%s must be an array of numbers", what)
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		f, ok := table.ToFloat(item)
		if !ok {
			s.throwTypeError("%s must be an array of numbers, got %v", what, item)
		}
		out = append(out, f)
	}
	return out
}

func isMissing(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// snakeCase maps "groupBy" to "group_by"; snake_case input is unchanged.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *session) throwTypeError(format string, a ...any) {
	panic(s.vm.NewTypeError("%s", fmt.Sprintf(format, a...)))
}
