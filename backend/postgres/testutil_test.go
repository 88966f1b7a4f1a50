package postgres

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	fields []string
	data   [][]any
	i      int
	closed bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.fields))
	for i, f := range r.fields {
		out[i] = pgconn.FieldDescription{Name: f}
	}
	return out
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.i-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	for j, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[j].(string)
		case *int64:
			*p = row[j].(int64)
		default:
			return fmt.Errorf("fakeRows: unsupported scan target %T", d)
		}
	}
	return nil
}

// fakeDB answers the catalog queries from a fixed schema and every other
// query with data, recording the SQL it was sent.
type fakeDB struct {
	mu      sync.Mutex
	columns map[string][]string
	rows    map[string]int64
	fields  []string
	data    [][]any
	queries []string
	args    [][]any
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	switch sql {
	case columnsSQL:
		var data [][]any
		for _, tbl := range sortedKeys(db.columns) {
			for _, col := range db.columns[tbl] {
				data = append(data, []any{tbl, col})
			}
		}
		return &fakeRows{data: data}, nil
	case estimatesSQL:
		var data [][]any
		for _, tbl := range sortedKeys(db.rows) {
			data = append(data, []any{tbl, db.rows[tbl]})
		}
		return &fakeRows{data: data}, nil
	}
	db.queries = append(db.queries, sql)
	db.args = append(db.args, args)
	return &fakeRows{fields: db.fields, data: db.data}, nil
}

func (db *fakeDB) lastQuery() (string, []any) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.queries) == 0 {
		return "", nil
	}
	return db.queries[len(db.queries)-1], db.args[len(db.args)-1]
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		columns: map[string][]string{
			"players":  {"player_id", "web_name", "total_points", "price"},
			"fixtures": {"gameweek", "team_h", "team_a"},
		},
		rows:   map[string]int64{"players": 2},
		fields: []string{"player_id", "web_name", "total_points", "price"},
		data: [][]any{
			{int32(1), "Salah", int32(180), 13.0},
			{int32(2), "Palmer", nil, 10.5},
		},
	}
}

func containsStr(s, substr string) bool {
	return strings.Contains(s, substr)
}
