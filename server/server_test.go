package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/config"
	"github.com/jv92admin/fpltools/exec"
	"github.com/jv92admin/fpltools/table"
)

func TestNew_RequiresExec(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrExecRequired) {
		t.Errorf("New() error = %v, want %v", err, ErrExecRequired)
	}
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, newTestServer(t, &mockExecutor{}))

	res, err := session.ListTools(t.Context(), nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{ToolAnalyze, ToolDescribeFunction, ToolListTables, ToolPlot, ToolSearchFunctions}
	sort.Strings(want)
	if len(names) != len(want) {
		t.Fatalf("tools = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("tools[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestServer_Analyze(t *testing.T) {
	ex := &mockExecutor{result: code.ExecuteResult{Stdout: "2\n", Value: "Salah", DurationMs: 4}}
	session := connect(t, newTestServer(t, ex))

	res := callTool(t, session, ToolAnalyze, map[string]any{
		"code":            "df_players.length",
		"tables":          []any{"players"},
		"timeout_seconds": 5,
	})
	if res.IsError {
		t.Fatalf("IsError = true, text = %s", resultText(res))
	}

	var env exec.Envelope
	decode(t, res, &env)
	if env.Stdout != "2\n" {
		t.Errorf("Stdout = %q, want %q", env.Stdout, "2\n")
	}
	if env.Result != "Salah" {
		t.Errorf("Result = %q, want %q", env.Result, "Salah")
	}
	if len(env.Loaded) != 1 || env.Loaded[0] != "df_players" {
		t.Errorf("Loaded = %v, want [df_players]", env.Loaded)
	}

	p := ex.params()
	if p.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", p.Timeout)
	}
	if _, ok := p.Context["df_players"]; !ok {
		t.Errorf("df_players not bound, context keys = %v", p.Context)
	}
}

func TestServer_Analyze_ScriptErrorIsToolError(t *testing.T) {
	ex := &mockExecutor{result: code.ExecuteResult{
		Error: "ReferenceError: df_nope is not defined",
		Err:   code.ErrCodeExecution,
	}}
	session := connect(t, newTestServer(t, ex))

	res := callTool(t, session, ToolAnalyze, map[string]any{"code": "df_nope"})
	if !res.IsError {
		t.Fatal("IsError = false, want true")
	}
	if !containsStr(resultText(res), "df_nope is not defined") {
		t.Errorf("text = %q, want the script error", resultText(res))
	}
}

func TestServer_Analyze_UnknownTable(t *testing.T) {
	session := connect(t, newTestServer(t, &mockExecutor{}))

	res := callTool(t, session, ToolAnalyze, map[string]any{
		"code":   "1",
		"tables": []any{"transfers"},
	})
	if !res.IsError {
		t.Fatal("IsError = false, want true")
	}
	if !containsStr(resultText(res), "transfers") {
		t.Errorf("text = %q, want it to name the table", resultText(res))
	}
}

func TestServer_Analyze_WithQuery(t *testing.T) {
	ex := &mockExecutor{}
	session := connect(t, newTestServer(t, ex))

	callTool(t, session, ToolAnalyze, map[string]any{
		"code":   "df_players",
		"tables": []any{"players"},
		"queries": map[string]any{
			"players": map[string]any{
				"filters": []any{map[string]any{"field": "total_points", "op": backend.OpGt, "value": 170}},
			},
		},
	})

	bound, ok := ex.params().Context["df_players"]
	if !ok {
		t.Fatal("df_players not bound")
	}
	tbl, ok := bound.(*table.Table)
	if !ok {
		t.Fatalf("df_players = %T, want *table.Table", bound)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("bound rows = %d, want 1", tbl.NumRows())
	}
}

func TestServer_Plot_NoChartWarning(t *testing.T) {
	ex := &mockExecutor{result: code.ExecuteResult{Stdout: "done\n"}}
	session := connect(t, newTestServer(t, ex))

	res := callTool(t, session, ToolPlot, map[string]any{"code": "print('done')"})
	var env exec.Envelope
	decode(t, res, &env)
	if env.Warning != exec.NoChartWarning {
		t.Errorf("Warning = %q, want %q", env.Warning, exec.NoChartWarning)
	}
	if env.Title != "Chart" {
		t.Errorf("Title = %q, want %q", env.Title, "Chart")
	}
}

func TestServer_SearchFunctions(t *testing.T) {
	session := connect(t, newTestServer(t, &mockExecutor{}))

	res := callTool(t, session, ToolSearchFunctions, map[string]any{"query": "rolling mean"})
	var matches []FunctionMatch
	decode(t, res, &matches)
	if len(matches) == 0 {
		t.Fatal("no matches for rolling mean")
	}
	found := false
	for _, m := range matches {
		if m.ID == "fpl:add_rolling_mean" {
			found = true
			if !containsStr(m.Signature, "add_rolling_mean(") {
				t.Errorf("Signature = %q", m.Signature)
			}
		}
	}
	if !found {
		t.Errorf("matches = %+v, want fpl:add_rolling_mean", matches)
	}
}

func TestServer_DescribeFunction(t *testing.T) {
	session := connect(t, newTestServer(t, &mockExecutor{}))

	res := callTool(t, session, ToolDescribeFunction, map[string]any{"id": "fpl:rank_by"})
	var desc FunctionDescription
	decode(t, res, &desc)
	if desc.Call != "rank_by" {
		t.Errorf("Call = %q, want %q", desc.Call, "rank_by")
	}
	if desc.Example == "" {
		t.Error("Example is empty")
	}

	res = callTool(t, session, ToolDescribeFunction, map[string]any{"id": "fpl:nope"})
	if !res.IsError {
		t.Error("unknown function: IsError = false, want true")
	}
}

func TestServer_ListTables(t *testing.T) {
	session := connect(t, newTestServer(t, &mockExecutor{}))

	res := callTool(t, session, ToolListTables, map[string]any{})
	var tables []backend.TableInfo
	decode(t, res, &tables)
	if len(tables) != 1 {
		t.Fatalf("tables = %+v, want 1", tables)
	}
	if tables[0].ID() != "season:players" || tables[0].Rows != 2 {
		t.Errorf("table = %+v, want season:players with 2 rows", tables[0])
	}
}

func TestServer_Handler(t *testing.T) {
	s := newTestServer(t, &mockExecutor{})
	cfg := config.Defaults().Server

	tests := []struct {
		name       string
		cfg        config.ServerConfig
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "healthz", cfg: cfg, path: "/healthz", wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "metrics", cfg: cfg, path: "/metrics", wantStatus: http.StatusOK, wantBody: "fpltools_charts_total"},
		{
			name:       "metrics disabled",
			cfg:        func() config.ServerConfig { c := cfg; c.MetricsEnabled = false; return c }(),
			path:       "/metrics",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler(tt.cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !containsStr(rec.Body.String(), tt.wantBody) {
				t.Errorf("body does not contain %q", tt.wantBody)
			}
		})
	}
}

func TestServer_PlotScratchRetention(t *testing.T) {
	dir := filepath.Join(t.TempDir(), code.ScratchPrefix+"plot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	ex := &mockExecutor{result: code.ExecuteResult{Charts: []string{filepath.Join(dir, "bar.png")}, ScratchDir: dir}}

	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestServerWith(t, ex, func(o *Options) {
		o.PlotRetention = time.Minute
		o.Now = func() time.Time { return now }
	})
	session := connect(t, s)

	callTool(t, session, ToolPlot, map[string]any{"code": "render_bar(df, 'a', 'b')"})
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("scratch dir removed right after the plot: %v", err)
	}
	if n := s.SweepPlots(); n != 0 {
		t.Errorf("SweepPlots() before expiry = %d, want 0", n)
	}

	now = now.Add(2 * time.Minute)
	if n := s.SweepPlots(); n != 1 {
		t.Errorf("SweepPlots() after expiry = %d, want 1", n)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("scratch dir still present after expiry: %v", err)
	}
}

func TestServer_CloseRemovesKeptPlots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), code.ScratchPrefix+"plot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	ex := &mockExecutor{result: code.ExecuteResult{ScratchDir: dir}}
	s := newTestServer(t, ex)
	callTool(t, connect(t, s), ToolPlot, map[string]any{"code": "print(1)"})

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("scratch dir still present after Close: %v", err)
	}
}
