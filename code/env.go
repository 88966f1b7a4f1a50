package code

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jv92admin/fpltools/table"
)

// Env is the capture environment handed to an Engine for one run.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: writes never fail; output past the configured limit is dropped.
// - Ownership: ScratchDir belongs to the run and outlives it.
type Env interface {
	// Print appends text to the captured stdout.
	Print(s string)

	// Println writes its operands separated by spaces and a newline.
	Println(args ...any)

	// ScratchDir is the directory chart renderers must write into.
	ScratchDir() string
}

// truncatedNote is appended once when stdout hits its limit.
const truncatedNote = "\n... [output truncated]\n"

// envImpl is the internal implementation of Env.
type envImpl struct {
	mu        sync.Mutex
	stdout    strings.Builder
	limit     int
	truncated bool
	dir       string
}

// newEnv creates an Env writing charts to dir and keeping at most limit
// bytes of output. A limit of 0 is unlimited.
func newEnv(dir string, limit int) *envImpl {
	return &envImpl{dir: dir, limit: limit}
}

func (e *envImpl) Print(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.truncated {
		return
	}
	if e.limit > 0 && e.stdout.Len()+len(s) > e.limit {
		cut := e.limit - e.stdout.Len()
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		e.stdout.WriteString(s[:cut])
		e.stdout.WriteString(truncatedNote)
		e.truncated = true
		return
	}
	e.stdout.WriteString(s)
}

func (e *envImpl) Println(args ...any) {
	e.Print(fmt.Sprintln(args...))
}

func (e *envImpl) ScratchDir() string {
	return e.dir
}

// Stdout returns the captured output.
func (e *envImpl) Stdout() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stdout.String()
}

// prepareContext copies caller bindings into script-native shapes: tables
// are capped at maxRows wherever they are nested, typed maps and slices
// become map[string]any and []any. It returns the names of dropped
// bindings, sorted.
func prepareContext(in map[string]any, maxRows int) (map[string]any, []string) {
	out := make(map[string]any, len(in))
	var dropped []string
	for name, v := range in {
		cv, ok := copyValue(v, maxRows)
		if !ok {
			dropped = append(dropped, name)
			continue
		}
		out[name] = cv
	}
	sort.Strings(dropped)
	return out, dropped
}

// copyValue recursively copies a value into script-native shapes. The
// second result is false for values with no script representation.
func copyValue(v any, maxRows int) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case string, bool, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val, true
	case *table.Table:
		if val == nil {
			return nil, true
		}
		if maxRows > 0 && val.NumRows() > maxRows {
			return val.Head(maxRows), true
		}
		return val, true
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			cv, ok := copyValue(item, maxRows)
			if !ok {
				return nil, false
			}
			out[k] = cv
		}
		return out, true
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			cv, ok := copyValue(item, maxRows)
			if !ok {
				return nil, false
			}
			out[i] = cv
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		return copyValue(rv.Elem().Interface(), maxRows)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			cv, ok := copyValue(rv.Index(i).Interface(), maxRows)
			if !ok {
				return nil, false
			}
			out[i] = cv
		}
		return out, true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cv, ok := copyValue(iter.Value().Interface(), maxRows)
			if !ok {
				return nil, false
			}
			out[iter.Key().String()] = cv
		}
		return out, true
	}
	return nil, false
}
