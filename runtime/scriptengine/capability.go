package scriptengine

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/jv92admin/fpltools/code"
)

// allowedGlobals is the capability surface: every interpreter global not
// listed here is removed before a script runs.
var allowedGlobals = func() map[string]bool {
	names := []string{
		// values
		"NaN", "Infinity", "undefined", "globalThis",
		// primitives and collections
		"Object", "Array", "String", "Number", "Boolean", "BigInt", "Symbol",
		"Map", "Set", "WeakMap", "WeakSet", "Date", "RegExp", "Math", "JSON",
		// exception types
		"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError",
		"EvalError", "URIError", "AggregateError",
		// helpers
		"isNaN", "isFinite", "parseInt", "parseFloat",
		"encodeURI", "encodeURIComponent", "decodeURI", "decodeURIComponent",
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}()

// AllowedGlobals returns the interpreter globals scripts can reach, sorted.
func AllowedGlobals() []string {
	out := make([]string, 0, len(allowedGlobals))
	for n := range allowedGlobals {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// constructorHolders evaluate to the prototypes whose constructor property
// leads to a code-compiling constructor. A holder the interpreter cannot
// parse names a function kind it does not support, so there is nothing
// to lock.
var constructorHolders = []string{
	"Function.prototype",
	"Object.getPrototypeOf(function* () {})",
	"Object.getPrototypeOf(async function () {})",
}

// restrictGlobals locks the function constructors, removes every global
// outside the allow-list and binds the denied builtins to stubs.
func (s *session) restrictGlobals() error {
	deniedFunction := s.vm.ToValue(s.denied("Function"))
	for _, src := range constructorHolders {
		v, err := s.vm.RunString(src)
		if isSyntaxError(s.vm, err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("lock constructors: %w", err)
		}
		proto := v.ToObject(s.vm)
		if err := proto.DefineDataProperty("constructor", deniedFunction, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
			return fmt.Errorf("lock constructors: %w", err)
		}
	}

	global := s.vm.GlobalObject()
	for _, name := range global.GetOwnPropertyNames() {
		if allowedGlobals[name] {
			continue
		}
		if err := global.Delete(name); err != nil {
			return fmt.Errorf("remove global %q: %w", name, err)
		}
	}

	for _, name := range append([]string{"Function"}, code.DeniedBuiltins...) {
		if err := s.vm.Set(name, s.denied(name)); err != nil {
			return err
		}
	}
	return nil
}

func isSyntaxError(vm *goja.Runtime, err error) bool {
	var compileErr *goja.CompilerSyntaxError
	if errors.As(err, &compileErr) {
		return true
	}
	var ex *goja.Exception
	if !errors.As(err, &ex) || ex.Value() == nil {
		return false
	}
	obj, ok := ex.Value().(*goja.Object)
	return ok && obj.Get("name") != nil && obj.Get("name").String() == "SyntaxError"
}

// denied returns a stub that raises a capability error naming builtin.
func (s *session) denied(builtin string) func(goja.FunctionCall) goja.Value {
	return func(goja.FunctionCall) goja.Value {
		s.throwGo(&code.CapabilityError{Kind: code.CapabilityBuiltin, Name: builtin})
		return nil
	}
}

// Import forms recognised before compilation. Each pattern's first group
// is the module name; an empty group means a computed name.
var importPatterns = []*regexp.Regexp{
	// import x from "m"; import {a} from 'm'; import "m"; export * from "m"
	regexp.MustCompile(`(?m)^[ \t]*(?:import|export)\b[^'"\n;()]*?['"]([^'"\n]+)['"]`),
	// import m; import m.sub
	regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([A-Za-z_$][\w$.]*)[ \t]*;?[ \t]*$`),
	// from m import x
	regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([A-Za-z_$][\w$.]*)[ \t]+import\b`),
	// import("m"), import(name)
	regexp.MustCompile("\\bimport\\s*\\(\\s*(?:['\"`]([^'\"`]+)['\"`])?"),
}

// requirePattern matches require calls with a literal module name.
var requirePattern = regexp.MustCompile("\\brequire\\s*\\(\\s*['\"`]([^'\"`]+)['\"`]\\s*\\)")

// scanImports finds the first import the sandbox refuses. Module syntax
// is never executed, so every import statement and dynamic import is
// refused; require is refused for names outside the approved modules.
func scanImports(src string) *code.CapabilityError {
	src = stripComments(src)
	first := -1
	var found *code.CapabilityError
	record := func(at int, name string) {
		if first < 0 || at < first {
			first = at
			found = &code.CapabilityError{Kind: code.CapabilityImport, Name: name}
		}
	}
	for _, re := range importPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
			name := "import()"
			if m[2] >= 0 {
				name = src[m[2]:m[3]]
			}
			record(m[0], name)
		}
	}
	for _, m := range requirePattern.FindAllStringSubmatchIndex(src, -1) {
		if name := src[m[2]:m[3]]; !code.IsApprovedModule(name) {
			record(m[0], name)
		}
	}
	return found
}

// stripComments blanks line and block comments outside string literals.
// Newlines inside comments are kept so line-anchored patterns still see
// statement starts.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				b.WriteByte(src[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
			if i < len(src) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			b.WriteByte(' ')
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				if src[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
