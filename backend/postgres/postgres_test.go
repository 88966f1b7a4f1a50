package postgres

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/table"
)

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		q        backend.Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "zero query",
			wantSQL: `SELECT * FROM "public"."players"`,
		},
		{
			name: "filters order limit",
			q: backend.Query{
				Filters: []backend.Filter{
					{Field: "position", Op: backend.OpEq, Value: "MID"},
					{Field: "total_points", Op: backend.OpGte, Value: int64(100)},
				},
				Columns: []string{"web_name", "total_points"},
				OrderBy: "total_points",
				Desc:    true,
				Limit:   5,
			},
			wantSQL:  `SELECT "web_name", "total_points" FROM "public"."players" WHERE "position" = $1 AND "total_points" >= $2 ORDER BY "total_points" DESC NULLS LAST LIMIT 5`,
			wantArgs: []any{"MID", int64(100)},
		},
		{
			name:     "neq matches nulls",
			q:        backend.Query{Filters: []backend.Filter{{Field: "team", Op: backend.OpNeq, Value: "ARS"}}},
			wantSQL:  `SELECT * FROM "public"."players" WHERE "team" IS DISTINCT FROM $1`,
			wantArgs: []any{"ARS"},
		},
		{
			name:    "is null",
			q:       backend.Query{Filters: []backend.Filter{{Field: "news", Op: backend.OpIs, Value: "null"}}},
			wantSQL: `SELECT * FROM "public"."players" WHERE "news" IS NULL`,
		},
		{
			name:    "is true",
			q:       backend.Query{Filters: []backend.Filter{{Field: "injured", Op: backend.OpIs, Value: true}}},
			wantSQL: `SELECT * FROM "public"."players" WHERE "injured" IS TRUE`,
		},
		{
			name:     "ilike escapes underscore",
			q:        backend.Query{Filters: []backend.Filter{{Field: "web_name", Op: backend.OpILike, Value: "%a_b%"}}},
			wantSQL:  `SELECT * FROM "public"."players" WHERE "web_name" ILIKE $1`,
			wantArgs: []any{`%a\_b%`},
		},
		{
			name:    "quoted identifiers",
			q:       backend.Query{OrderBy: `a"b`},
			wantSQL: `SELECT * FROM "public"."players" ORDER BY "a""b" ASC NULLS LAST`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := BuildSelect("public", "players", tt.q)
			if err != nil {
				t.Fatalf("BuildSelect() error = %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("sql =\n%s\nwant\n%s", sql, tt.wantSQL)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestBuildSelect_In(t *testing.T) {
	sql, args, err := BuildSelect("public", "players", backend.Query{
		Filters: []backend.Filter{{Field: "position", Op: backend.OpIn, Value: []any{"MID", "FWD"}}},
	})
	if err != nil {
		t.Fatalf("BuildSelect() error = %v", err)
	}
	if !containsStr(sql, `"position" = ANY($1)`) {
		t.Errorf("sql = %s", sql)
	}
	strs, ok := args[0].([]string)
	if !ok || len(strs) != 2 || strs[0] != "MID" {
		t.Errorf("args[0] = %#v, want []string{MID FWD}", args[0])
	}
}

func TestBuildSelect_Invalid(t *testing.T) {
	tests := []backend.Query{
		{Limit: -1},
		{Filters: []backend.Filter{{Field: "x", Op: "like"}}},
		{Filters: []backend.Filter{{Field: "x", Op: backend.OpIs, Value: "maybe"}}},
	}
	for _, q := range tests {
		if _, _, err := BuildSelect("public", "players", q); !errors.Is(err, backend.ErrInvalidQuery) {
			t.Errorf("BuildSelect(%+v) error = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestSource_Load(t *testing.T) {
	db := newFakeDB()
	s := NewWithQuerier("db", Config{}, db)

	got, err := s.Load(context.Background(), "players", backend.Query{OrderBy: "total_points", Desc: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", got.NumRows())
	}
	id, err := got.Column("player_id")
	if err != nil {
		t.Fatal(err)
	}
	if id.Kind() != table.Int {
		t.Errorf("player_id kind = %v, want Int", id.Kind())
	}
	if v := got.Value("total_points", 1); v != nil {
		t.Errorf("total_points[1] = %v, want nil", v)
	}

	sql, _ := db.lastQuery()
	if !containsStr(sql, `ORDER BY "total_points" DESC`) {
		t.Errorf("sql = %s", sql)
	}
}

func TestSource_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		table   string
		q       backend.Query
		wantErr error
		wantMsg string
	}{
		{name: "unknown table", table: "transfers", wantErr: backend.ErrTableNotFound},
		{name: "not exposed", cfg: Config{Tables: []string{"fixtures"}}, table: "players", wantErr: backend.ErrTableNotFound},
		{
			name:    "unknown column with hint",
			table:   "players",
			q:       backend.Query{Filters: []backend.Filter{{Field: "points", Op: backend.OpGt, Value: 1}}},
			wantErr: table.ErrColumnNotFound,
			wantMsg: "Did you mean 'total_points'?",
		},
		{
			name:    "disabled",
			cfg:     Config{Enabled: new(bool)},
			table:   "players",
			wantErr: backend.ErrSourceDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newFakeDB()
			s := NewWithQuerier("db", tt.cfg, db)
			_, err := s.Load(context.Background(), tt.table, tt.q)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !containsStr(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
			if sql, _ := db.lastQuery(); sql != "" {
				t.Errorf("data query sent: %s", sql)
			}
		})
	}
}

func TestSource_ListTables(t *testing.T) {
	s := NewWithQuerier("db", Config{}, newFakeDB())

	tables, err := s.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("tables = %+v, want 2", tables)
	}
	if tables[0].Name != "fixtures" || tables[0].Rows != -1 {
		t.Errorf("tables[0] = %+v, want fixtures with unknown rows", tables[0])
	}
	if tables[1].ID() != "db:players" || tables[1].Rows != 2 || len(tables[1].Columns) != 4 {
		t.Errorf("tables[1] = %+v", tables[1])
	}
}

func TestSource_NotStarted(t *testing.T) {
	s := New("db", Config{DSN: "postgres://localhost/fpl"})
	if _, err := s.ListTables(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("ListTables() error = %v, want %v", err, ErrNotStarted)
	}
	if _, err := s.Load(context.Background(), "players", backend.Query{}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Load() error = %v, want %v", err, ErrNotStarted)
	}
}

func TestSource_Configure(t *testing.T) {
	s := New("db", Config{})
	if err := s.Configure([]byte("schema: fpl\n")); err == nil {
		t.Error("Configure() without dsn: error = nil")
	}
	if err := s.Configure([]byte("dsn: postgres://localhost/fpl\nenabled: false\ntables: [players]\n")); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if s.Enabled() {
		t.Error("Enabled() = true after enabled: false")
	}
	if s.cfg.Schema != "public" || s.cfg.MaxConns != 10 {
		t.Errorf("defaults not applied: %+v", s.cfg)
	}
}

func TestCellValue(t *testing.T) {
	ts := time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int32", int32(7), int32(7)},
		{"numeric", pgtype.Numeric{Int: big.NewInt(105), Exp: -1, Valid: true}, 10.5},
		{"null numeric", pgtype.Numeric{}, nil},
		{"timestamp", ts, "2025-08-15T19:00:00Z"},
		{"other", []int{1}, "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellValue(tt.in); got != tt.want {
				t.Errorf("cellValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

// TestSource_Postgres runs against a live database named by
// FPLTOOLS_TEST_POSTGRES_DSN.
func TestSource_Postgres(t *testing.T) {
	dsn := os.Getenv("FPLTOOLS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FPLTOOLS_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration test")
	}
	ctx := context.Background()
	s := New("db", Config{DSN: dsn})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = s.Stop() }()

	if _, err := s.ListTables(ctx); err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
}
