package scriptengine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/table"
)

// fakeEnv implements code.Env for testing.
type fakeEnv struct {
	mu  sync.Mutex
	out strings.Builder
	dir string
}

func newFakeEnv(t *testing.T) *fakeEnv {
	t.Helper()
	return &fakeEnv{dir: t.TempDir()}
}

func (e *fakeEnv) Print(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out.WriteString(s)
}

func (e *fakeEnv) Println(args ...any) {
	e.Print(fmt.Sprintln(args...))
}

func (e *fakeEnv) ScratchDir() string { return e.dir }

func (e *fakeEnv) Stdout() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out.String()
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return eng
}

// run executes src with the given context bindings.
func run(t *testing.T, src string, bindings map[string]any) (code.ExecuteResult, *fakeEnv, error) {
	t.Helper()
	env := newFakeEnv(t)
	res, err := newTestEngine(t).Execute(context.Background(), code.ExecuteParams{Code: src, Context: bindings}, env)
	return res, env, err
}

// mustRun is like run but fails the test on error.
func mustRun(t *testing.T, src string, bindings map[string]any) (code.ExecuteResult, *fakeEnv) {
	t.Helper()
	res, env, err := run(t, src, bindings)
	if err != nil {
		t.Fatalf("Execute() error = %v\nstdout:\n%s", err, env.Stdout())
	}
	return res, env
}

func playersTable() *table.Table {
	return table.MustNew(
		table.IntColumn("player_id", []int64{1, 2, 3, 4}),
		table.StringColumn("web_name", []string{"Salah", "Palmer", "Saka", "Isak"}),
		table.StringColumn("position", []string{"MID", "MID", "MID", "FWD"}),
		table.IntColumn("total_points", []int64{180, 160, 150, 170}),
		table.FloatColumn("price", []float64{13.0, 10.5, 10.0, 9.0}),
	)
}

func containsStr(s, substr string) bool {
	return strings.Contains(s, substr)
}
