package exec

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/backend/local"
	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/table"
)

// mockExecutor records the params it receives and returns a fixed result.
type mockExecutor struct {
	mu     sync.Mutex
	params []code.ExecuteParams
	result code.ExecuteResult
}

func (m *mockExecutor) ExecuteCode(_ context.Context, params code.ExecuteParams) code.ExecuteResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = append(m.params, params)
	return m.result
}

func (m *mockExecutor) last() code.ExecuteParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params[len(m.params)-1]
}

// countingObserver tallies table load outcomes.
type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveTableLoad(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[outcome]++
}

func (o *countingObserver) get(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[outcome]
}

func playersTable() *table.Table {
	return table.MustNew(
		table.MustColumn("player_id", 1, 2, 3, 4),
		table.MustColumn("web_name", "Salah", "Palmer", "Saka", "Isak"),
		table.MustColumn("position", "MID", "MID", "MID", "FWD"),
		table.MustColumn("total_points", 180, 160, 150, 170),
	)
}

func fixturesTable() *table.Table {
	return table.MustNew(
		table.MustColumn("gameweek", 1, 2),
		table.MustColumn("team_h", "ARS", "LIV"),
	)
}

// newTestSources returns an aggregator over one local source named
// "season" holding players and fixtures.
func newTestSources(t *testing.T) (*backend.Aggregator, *local.Source) {
	t.Helper()
	src := local.New("season")
	src.Put("players", playersTable())
	src.Put("fixtures", fixturesTable())
	reg := backend.NewRegistry()
	if err := reg.Register(src); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return backend.NewAggregator(reg), src
}

func newTestExec(t *testing.T, ex code.Executor, obs Observer) *Exec {
	t.Helper()
	sources, _ := newTestSources(t)
	x, err := New(Options{Executor: ex, Sources: sources, Observer: obs})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return x
}

func containsStr(s, sub string) bool {
	return strings.Contains(s, sub)
}
