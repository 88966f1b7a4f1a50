package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/jv92admin/fpltools/table"
)

// mockSource implements Source for testing.
type mockSource struct {
	kind     string
	name     string
	enabled  bool
	tables   map[string]*table.Table
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (m *mockSource) Kind() string  { return m.kind }
func (m *mockSource) Name() string  { return m.name }
func (m *mockSource) Enabled() bool { return m.enabled }

func (m *mockSource) ListTables(_ context.Context) ([]TableInfo, error) {
	var out []TableInfo
	for name, t := range m.tables {
		out = append(out, TableInfo{Name: name, Columns: t.Names(), Rows: t.NumRows()})
	}
	return out, nil
}

func (m *mockSource) Load(_ context.Context, name string, q Query) (*table.Table, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return q.Apply(t)
}

func (m *mockSource) Start(_ context.Context) error {
	m.started = true
	return m.startErr
}

func (m *mockSource) Stop() error {
	m.stopped = true
	return m.stopErr
}

// configurableSource records the raw config it receives.
type configurableSource struct {
	mockSource
	raw []byte
}

func (c *configurableSource) Configure(raw []byte) error {
	if strings.Contains(string(raw), "bad") {
		return fmt.Errorf("bad config")
	}
	c.raw = raw
	return nil
}

func playersTable() *table.Table {
	return table.MustNew(
		table.MustColumn("web_name", "Salah", "Palmer", "Saka", "Isak", "Raya"),
		table.MustColumn("position", "MID", "MID", "MID", "FWD", "GKP"),
		table.MustColumn("total_points", 180, 160, 150, 170, nil),
		table.MustColumn("price", 13.0, 10.5, 10.0, 9.0, 5.5),
		table.MustColumn("injured", false, true, false, false, nil),
	)
}

func containsStr(s, sub string) bool {
	return strings.Contains(s, sub)
}
