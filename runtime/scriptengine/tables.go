package scriptengine

import (
	"fmt"
	"sort"

	"github.com/dop251/goja"

	"github.com/jv92admin/fpltools/analytics"
	"github.com/jv92admin/fpltools/table"
)

// defaultHeadRows is used by head() and tail() without an argument.
const defaultHeadRows = 5

// wrap returns a script object for t. Wrappers share one prototype
// carrying the table methods; the table itself stays on the Go side.
func (s *session) wrap(t *table.Table) *goja.Object {
	obj := s.vm.NewObject()
	obj.SetPrototype(s.proto)
	s.tables[obj] = t
	return obj
}

// tablePrototype builds the methods every table wrapper inherits.
func (s *session) tablePrototype() *goja.Object {
	proto := s.vm.NewObject()
	methods := map[string]func(t *table.Table, call goja.FunctionCall) goja.Value{
		"head": func(t *table.Table, call goja.FunctionCall) goja.Value {
			return s.wrap(t.Head(s.intArg(call, 0, "head(n)", defaultHeadRows)))
		},
		"tail": func(t *table.Table, call goja.FunctionCall) goja.Value {
			return s.wrap(t.Tail(s.intArg(call, 0, "tail(n)", defaultHeadRows)))
		},
		"numRows": func(t *table.Table, _ goja.FunctionCall) goja.Value {
			return s.vm.ToValue(t.NumRows())
		},
		"columns": func(t *table.Table, _ goja.FunctionCall) goja.Value {
			return s.strArray(t.Names())
		},
		"column": func(t *table.Table, call goja.FunctionCall) goja.Value {
			c, err := t.Column(call.Argument(0).String())
			if err != nil {
				s.throwGo(err)
			}
			return s.toJS(c.Values())
		},
		"unique": func(t *table.Table, call goja.FunctionCall) goja.Value {
			vals, err := t.Unique(call.Argument(0).String())
			if err != nil {
				s.throwGo(err)
			}
			return s.toJS(vals)
		},
		"records": func(t *table.Table, _ goja.FunctionCall) goja.Value {
			recs := t.Records()
			items := make([]any, len(recs))
			for i, r := range recs {
				items[i] = r
			}
			return s.toJS(items)
		},
		"sort": func(t *table.Table, call goja.FunctionCall) goja.Value {
			return s.wrap(s.sortTable(t, call))
		},
		"filter": func(t *table.Table, call goja.FunctionCall) goja.Value {
			pred, ok := goja.AssertFunction(call.Argument(0))
			if !ok {
				s.throwTypeError("filter() expects a function of the row")
			}
			return s.wrap(t.Filter(func(r table.Row) bool {
				keep, err := pred(goja.Undefined(), s.toJS(r.Map()), s.vm.ToValue(r.Index()))
				if err != nil {
					s.rethrow(err)
				}
				return keep.ToBoolean()
			}))
		},
		"select": func(t *table.Table, call goja.FunctionCall) goja.Value {
			out, err := t.Select(s.names(call.Arguments)...)
			if err != nil {
				s.throwGo(err)
			}
			return s.wrap(out)
		},
		"drop": func(t *table.Table, call goja.FunctionCall) goja.Value {
			names := s.names(call.Arguments)
			if err := t.Require(names...); err != nil {
				s.throwGo(err)
			}
			return s.wrap(t.Drop(names...))
		},
		"rename": func(t *table.Table, call goja.FunctionCall) goja.Value {
			return s.wrap(s.renameTable(t, call))
		},
		"withColumn": func(t *table.Table, call goja.FunctionCall) goja.Value {
			return s.wrap(s.withColumn(t, call))
		},
		"groupBy": func(t *table.Table, call goja.FunctionCall) goja.Value {
			return s.wrap(s.groupBy(t, call))
		},
		"toString": func(t *table.Table, _ goja.FunctionCall) goja.Value {
			return s.vm.ToValue(t.Format(s.cfg.PrintRows))
		},
	}
	for name, m := range methods {
		proto.Set(name, s.native(name, func(call goja.FunctionCall) goja.Value {
			t, ok := s.toTable(call.This)
			if !ok {
				s.throwTypeError("%s() called on a value that is not a table", name)
			}
			return m(t, call)
		}))
	}
	return proto
}

func (s *session) intArg(call goja.FunctionCall, i int, what string, def int) int {
	v := call.Argument(i)
	if isMissing(v) {
		return def
	}
	f, ok := table.ToFloat(v.Export())
	if !ok {
		s.throwTypeError("%s expects an integer", what)
	}
	return int(f)
}

func (s *session) strArray(names []string) goja.Value {
	items := make([]any, len(names))
	for i, n := range names {
		items[i] = n
	}
	return s.vm.NewArray(items...)
}

// names reads column names given as separate arguments or one array.
func (s *session) names(values []goja.Value) []string {
	var out []string
	for _, arg := range values {
		switch v := arg.Export().(type) {
		case string:
			out = append(out, v)
		case []any:
			for _, item := range v {
				name, ok := item.(string)
				if !ok {
					s.throwTypeError("column names must be strings")
				}
				out = append(out, name)
			}
		default:
			s.throwTypeError("column names must be strings")
		}
	}
	return out
}

// sortTable implements sort(by, ascending): by is a name or an array of
// names, ascending a boolean or an array of booleans. Ascending defaults
// to true.
func (s *session) sortTable(t *table.Table, call goja.FunctionCall) *table.Table {
	by := s.names(call.Arguments[:min(1, len(call.Arguments))])
	if len(by) == 0 {
		s.throwTypeError("sort() expects a column name")
	}
	asc := make([]bool, len(by))
	for i := range asc {
		asc[i] = true
	}
	switch v := call.Argument(1).Export().(type) {
	case nil:
	case bool:
		for i := range asc {
			asc[i] = v
		}
	case []any:
		if len(v) != len(by) {
			s.throwTypeError("sort() needs one ascending flag per column")
		}
		for i, item := range v {
			b, ok := item.(bool)
			if !ok {
				s.throwTypeError("sort() ascending flags must be booleans")
			}
			asc[i] = b
		}
	default:
		s.throwTypeError("sort() ascending must be a boolean or an array of booleans")
	}
	keys := make([]table.SortKey, len(by))
	for i, name := range by {
		keys[i] = table.SortKey{Column: name, Desc: !asc[i]}
	}
	out, err := t.SortBy(keys...)
	if err != nil {
		s.throwGo(err)
	}
	return out
}

// renameTable implements rename(from, to) and rename({from: to}).
func (s *session) renameTable(t *table.Table, call goja.FunctionCall) *table.Table {
	pairs := map[string]string{}
	if obj, ok := s.optionsObject(call.Argument(0)); ok {
		for _, k := range obj.Keys() {
			pairs[k] = obj.Get(k).String()
		}
	} else {
		pairs[call.Argument(0).String()] = call.Argument(1).String()
	}
	from := make([]string, 0, len(pairs))
	for k := range pairs {
		from = append(from, k)
	}
	sort.Strings(from)
	out := t
	for _, k := range from {
		var err error
		if out, err = out.Rename(k, pairs[k]); err != nil {
			s.throwGo(err)
		}
	}
	return out
}

// withColumn implements withColumn(name, values), where values is an
// array with one value per row, a function of the row, or a scalar
// repeated on every row.
func (s *session) withColumn(t *table.Table, call goja.FunctionCall) *table.Table {
	name := call.Argument(0).String()
	src := call.Argument(1)
	values := make([]any, t.NumRows())
	if fn, ok := goja.AssertFunction(src); ok {
		for i := range values {
			row := t.Row(i)
			v, err := fn(goja.Undefined(), s.toJS(row.Map()), s.vm.ToValue(i))
			if err != nil {
				s.rethrow(err)
			}
			values[i] = s.export(v, 0)
		}
	} else if items, ok := s.export(src, 0).([]any); ok {
		if len(items) != t.NumRows() {
			s.throwGo(fmt.Errorf("%w: withColumn(%q) got %d values for %d rows", table.ErrLengthMismatch, name, len(items), t.NumRows()))
		}
		copy(values, items)
	} else {
		v := s.export(src, 0)
		for i := range values {
			values[i] = v
		}
	}
	col, err := table.NewColumn(name, values)
	if err != nil {
		s.throwGo(err)
	}
	out, err := t.WithColumn(col)
	if err != nil {
		s.throwGo(err)
	}
	return out
}

// groupBy implements groupBy(by, aggs): aggs is one aggregation applied
// to every numeric column, or an object mapping columns to aggregations.
func (s *session) groupBy(t *table.Table, call goja.FunctionCall) *table.Table {
	by := call.Argument(0).String()
	var specs []analytics.Aggregation
	if obj, ok := s.optionsObject(call.Argument(1)); ok {
		for _, col := range obj.Keys() {
			specs = append(specs, analytics.Aggregation{Column: col, Func: obj.Get(col).String()})
		}
	} else {
		fn := "sum"
		if v := call.Argument(1); !isMissing(v) {
			fn = v.String()
		}
		for _, c := range t.Columns() {
			if c.Name() != by && c.Kind().Numeric() {
				specs = append(specs, analytics.Aggregation{Column: c.Name(), Func: fn})
			}
		}
	}
	out, err := analytics.GroupAggregate(t, by, specs)
	if err != nil {
		s.throwGo(err)
	}
	return out
}

// tableConstructors returns the pd module functions.
func (s *session) tableConstructors() map[string]func(*args) goja.Value {
	return map[string]func(*args) goja.Value{
		"DataFrame": func(a *args) goja.Value {
			data := a.value("data")
			if obj, ok := data.(*goja.Object); ok && obj.ClassName() == "Array" {
				return s.wrap(s.fromRecords(obj, a.strs("columns")))
			}
			obj, ok := s.optionsObject(data)
			if !ok {
				s.throwTypeError("pd.DataFrame() expects {column: values} or an array of row objects")
			}
			cols := make(map[string][]any)
			order := a.strs("columns")
			if order == nil {
				order = obj.Keys()
			}
			for _, k := range obj.Keys() {
				items, ok := s.export(obj.Get(k), 0).([]any)
				if !ok {
					s.throwTypeError("pd.DataFrame(): column '%s' must be an array", k)
				}
				cols[k] = items
			}
			t, err := table.FromColumns(cols, order)
			if err != nil {
				s.throwGo(err)
			}
			return s.wrap(t)
		},
		"fromRecords": func(a *args) goja.Value {
			obj, ok := a.value("records").(*goja.Object)
			if !ok || obj.ClassName() != "Array" {
				s.throwTypeError("pd.fromRecords() expects an array of row objects")
			}
			return s.wrap(s.fromRecords(obj, a.strs("columns")))
		},
		"concat": func(a *args) goja.Value {
			obj, ok := a.value("tables").(*goja.Object)
			if !ok || obj.ClassName() != "Array" {
				s.throwTypeError("pd.concat() expects an array of tables")
			}
			n := int(obj.Get("length").ToInteger())
			parts := make([]*table.Table, n)
			for i := range parts {
				t, ok := s.toTable(obj.Get(fmt.Sprint(i)))
				if !ok {
					s.throwTypeError("pd.concat(): item %d is not a table", i)
				}
				parts[i] = t
			}
			out, err := table.Concat(parts...)
			if err != nil {
				s.throwGo(err)
			}
			return s.wrap(out)
		},
	}
}

func (s *session) fromRecords(arr *goja.Object, order []string) *table.Table {
	n := int(arr.Get("length").ToInteger())
	records := make([]map[string]any, n)
	for i := range records {
		row, ok := s.export(arr.Get(fmt.Sprint(i)), 0).(map[string]any)
		if !ok {
			s.throwTypeError("row %d is not an object", i)
		}
		records[i] = row
		if order == nil && i == 0 {
			order = arr.Get("0").ToObject(s.vm).Keys()
		}
	}
	t, err := table.FromRecords(records, order)
	if err != nil {
		s.throwGo(err)
	}
	return t
}
