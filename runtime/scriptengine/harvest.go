package scriptengine

import (
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"

	"github.com/jv92admin/fpltools/table"
)

// OutName is the binding a script assigns to return a value explicitly.
const OutName = "__out"

// declaredNames lists the names bound by top-level declarations, which
// covers let, const and class bindings that never reach the global object.
func declaredNames(prg *ast.Program) []string {
	var names []string
	for _, stmt := range prg.Body {
		switch st := stmt.(type) {
		case *ast.VariableStatement:
			for _, b := range st.List {
				names = appendTargets(names, b.Target)
			}
		case *ast.LexicalDeclaration:
			for _, b := range st.List {
				names = appendTargets(names, b.Target)
			}
		case *ast.FunctionDeclaration:
			if st.Function != nil && st.Function.Name != nil {
				names = append(names, st.Function.Name.Name.String())
			}
		case *ast.ClassDeclaration:
			if st.Class != nil && st.Class.Name != nil {
				names = append(names, st.Class.Name.Name.String())
			}
		}
	}
	return names
}

// appendTargets appends the identifiers bound by a declaration target,
// descending into destructuring patterns.
func appendTargets(names []string, target ast.Node) []string {
	switch n := target.(type) {
	case *ast.Identifier:
		names = append(names, n.Name.String())
	case *ast.AssignExpression:
		names = appendTargets(names, n.Left)
	case *ast.ArrayPattern:
		for _, el := range n.Elements {
			if el != nil {
				names = appendTargets(names, el)
			}
		}
		if n.Rest != nil {
			names = appendTargets(names, n.Rest)
		}
	case *ast.ObjectPattern:
		for _, p := range n.Properties {
			switch prop := p.(type) {
			case *ast.PropertyShort:
				names = append(names, prop.Name.Name.String())
			case *ast.PropertyKeyed:
				names = appendTargets(names, prop.Value)
			}
		}
		if n.Rest != nil {
			names = appendTargets(names, n.Rest)
		}
	}
	return names
}

// globalNames snapshots the global object's own property names.
func (s *session) globalNames() map[string]bool {
	names := s.vm.GlobalObject().GetOwnPropertyNames()
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// harvest collects the tables bound at top level by the script: declared
// names plus globals created during the run. Names present before the run
// and names starting with an underscore are skipped.
func (s *session) harvest(declared []string, before map[string]bool) map[string]*table.Table {
	candidates := make(map[string]bool, len(declared))
	for _, n := range declared {
		candidates[n] = true
	}
	for n := range s.globalNames() {
		candidates[n] = true
	}

	names := make([]string, 0, len(candidates))
	for n := range candidates {
		if before[n] || strings.HasPrefix(n, "_") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	out := make(map[string]*table.Table)
	for _, n := range names {
		if t, ok := s.lookupTable(n); ok {
			out[n] = t
		}
	}
	return out
}

// lookupTable reads a binding, tolerating names still in their temporal
// dead zone after a failed run.
func (s *session) lookupTable(name string) (t *table.Table, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = nil, false
		}
	}()
	return s.toTable(s.vm.Get(name))
}

// trailingValue returns the value a run reports: the __out binding when
// set, otherwise the completion value when the program ends in a bare
// expression.
func (s *session) trailingValue(prg *ast.Program, completion goja.Value) any {
	if v := s.vm.Get(OutName); !isMissing(v) {
		return s.export(v, 0)
	}
	if !endsInExpression(prg) {
		return nil
	}
	return s.export(completion, 0)
}

// endsInExpression reports whether the last statement of prg is an
// expression statement other than an assignment.
func endsInExpression(prg *ast.Program) bool {
	for i := len(prg.Body) - 1; i >= 0; i-- {
		switch st := prg.Body[i].(type) {
		case *ast.EmptyStatement:
			continue
		case *ast.ExpressionStatement:
			_, assign := st.Expression.(*ast.AssignExpression)
			return !assign
		default:
			return false
		}
	}
	return false
}
