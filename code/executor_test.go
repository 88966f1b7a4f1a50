package code

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jv92admin/fpltools/table"
)

func TestExecutor_Interface(t *testing.T) {
	var _ Executor = (*DefaultExecutor)(nil)
}

func TestNewDefaultExecutor_InvalidConfig(t *testing.T) {
	_, err := NewDefaultExecutor(Config{})
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestExecuteCode_EmptyCode(t *testing.T) {
	for _, code := range []string{"", "   ", "\n\t\n"} {
		engine := &mockEngine{}
		exec := newTestExecutor(t, engine)
		result := exec.ExecuteCode(context.Background(), ExecuteParams{Code: code})

		if result.Error != MsgEmptyCode {
			t.Errorf("Error = %q, want %q", result.Error, MsgEmptyCode)
		}
		if !errors.Is(result.Err, ErrInput) {
			t.Errorf("Err = %v, want ErrInput", result.Err)
		}
		if result.ScratchDir != "" || result.Stdout != "" || len(result.Charts) != 0 {
			t.Errorf("expected no other fields, got %+v", result)
		}
		if len(engine.executeCalls) != 0 {
			t.Error("engine should not run for blank code")
		}
	}
}

func TestExecuteCode_AppliesDefaultTimeout(t *testing.T) {
	engine := &mockEngine{}
	exec := newTestExecutor(t, engine, func(c *Config) { c.DefaultTimeout = 5 * time.Second })

	before := time.Now()
	exec.ExecuteCode(context.Background(), ExecuteParams{Code: "1"})

	if len(engine.executeCalls) != 1 {
		t.Fatalf("expected 1 execute call, got %d", len(engine.executeCalls))
	}
	call := engine.executeCalls[0]
	if call.params.Timeout != 5*time.Second {
		t.Errorf("expected Timeout 5s, got %v", call.params.Timeout)
	}
	if call.deadline.IsZero() || call.deadline.Sub(before) > 6*time.Second {
		t.Errorf("unexpected deadline %v", call.deadline)
	}
}

func TestExecuteCode_DefaultsWhenUnset(t *testing.T) {
	exec := newTestExecutor(t, &mockEngine{})
	if exec.cfg.DefaultTimeout != DefaultTimeout {
		t.Errorf("DefaultTimeout = %v", exec.cfg.DefaultTimeout)
	}
	if exec.cfg.MaxRows != 100_000 || exec.cfg.MaxCharts != 5 {
		t.Errorf("limits = %d rows, %d charts", exec.cfg.MaxRows, exec.cfg.MaxCharts)
	}
}

func TestExecuteCode_ScratchDir(t *testing.T) {
	root := t.TempDir()
	engine := &mockEngine{}
	exec := newTestExecutor(t, engine, func(c *Config) { c.ScratchRoot = root })

	first := exec.ExecuteCode(context.Background(), ExecuteParams{Code: "1"})
	second := exec.ExecuteCode(context.Background(), ExecuteParams{Code: "1"})

	if filepath.Dir(first.ScratchDir) != root {
		t.Errorf("scratch dir %q not under %q", first.ScratchDir, root)
	}
	if !strings.HasPrefix(filepath.Base(first.ScratchDir), ScratchPrefix) {
		t.Errorf("scratch dir %q lacks prefix", first.ScratchDir)
	}
	if first.ScratchDir == second.ScratchDir {
		t.Error("runs share a scratch dir")
	}
	if engine.executeCalls[0].env.ScratchDir() != first.ScratchDir {
		t.Error("engine env points at a different dir")
	}
	if _, err := os.Stat(first.ScratchDir); err != nil {
		t.Errorf("scratch dir removed: %v", err)
	}
}

func TestExecuteCode_TruncatesContextTables(t *testing.T) {
	big := table.MustNew(table.IntColumn("id", make([]int64, 25)))
	small := table.MustNew(table.IntColumn("id", make([]int64, 3)))
	engine := &mockEngine{}
	exec := newTestExecutor(t, engine, func(c *Config) { c.MaxRows = 10 })

	exec.ExecuteCode(context.Background(), ExecuteParams{
		Code: "1",
		Context: map[string]any{
			"df_big":   big,
			"df_small": small,
			"gw":       int32(7),
			"ids":      []int{1, 2},
			"bad":      make(chan int),
		},
	})

	bound := engine.executeCalls[0].params.Context
	if got := bound["df_big"].(*table.Table).NumRows(); got != 10 {
		t.Errorf("df_big rows = %d, want 10", got)
	}
	if got := bound["df_small"].(*table.Table).NumRows(); got != 3 {
		t.Errorf("df_small rows = %d, want 3", got)
	}
	if bound["gw"] != int32(7) {
		t.Errorf("gw = %v", bound["gw"])
	}
	if ids, ok := bound["ids"].([]any); !ok || len(ids) != 2 {
		t.Errorf("ids = %#v, want []any of 2", bound["ids"])
	}
	if _, ok := bound["bad"]; ok {
		t.Error("unsupported binding was passed through")
	}
	if big.NumRows() != 25 {
		t.Error("caller table was modified")
	}
}

func TestExecuteCode_CollectsOutputs(t *testing.T) {
	created := table.MustNew(table.IntColumn("id", make([]int64, 12)))
	engine := &mockEngine{
		run: func(_ context.Context, _ ExecuteParams, env Env) (ExecuteResult, error) {
			env.Println("hello", 42)
			env.Print("done")
			return ExecuteResult{
				Value:  3.5,
				Tables: map[string]*table.Table{"top": created},
			}, nil
		},
	}
	exec := newTestExecutor(t, engine, func(c *Config) { c.MaxRows = 5 })
	result := exec.ExecuteCode(context.Background(), ExecuteParams{Code: "x"})

	if !result.OK() {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Stdout != "hello 42\ndone" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
	if result.Value != 3.5 {
		t.Errorf("Value = %v", result.Value)
	}
	if got := result.Tables["top"].NumRows(); got != 5 {
		t.Errorf("harvested rows = %d, want 5", got)
	}
	if result.Charts == nil || len(result.Charts) != 0 {
		t.Errorf("Charts = %#v, want empty slice", result.Charts)
	}
}

func TestExecuteCode_ChartCap(t *testing.T) {
	engine := &mockEngine{
		run: func(_ context.Context, _ ExecuteParams, env Env) (ExecuteResult, error) {
			for i := 8; i >= 1; i-- {
				name := filepath.Join(env.ScratchDir(), fmt.Sprintf("bar_%d.png", i))
				if err := os.WriteFile(name, []byte("png"), 0o644); err != nil {
					return ExecuteResult{}, err
				}
			}
			os.WriteFile(filepath.Join(env.ScratchDir(), "notes.txt"), nil, 0o644)
			return ExecuteResult{}, nil
		},
	}
	observer := &mockObserver{}
	exec := newTestExecutor(t, engine, func(c *Config) { c.Observer = observer })
	result := exec.ExecuteCode(context.Background(), ExecuteParams{Code: "x"})

	if len(result.Charts) != 5 {
		t.Fatalf("charts = %d, want 5", len(result.Charts))
	}
	if filepath.Base(result.Charts[0]) != "bar_1.png" || filepath.Base(result.Charts[4]) != "bar_5.png" {
		t.Errorf("charts not sorted: %v", result.Charts)
	}
	entries, _ := os.ReadDir(result.ScratchDir)
	if len(entries) != 9 {
		t.Errorf("files on disk = %d, want 9", len(entries))
	}
	if observer.charts[0] != 5 || observer.statuses[0] != StatusOK {
		t.Errorf("observer got %v %v", observer.statuses, observer.charts)
	}
}

func TestExecuteCode_Timeout(t *testing.T) {
	engine := &mockEngine{
		run: func(ctx context.Context, _ ExecuteParams, env Env) (ExecuteResult, error) {
			env.Println("started")
			<-ctx.Done()
			return ExecuteResult{Value: "ignored"}, ctx.Err()
		},
	}
	exec := newTestExecutor(t, engine)
	result := exec.ExecuteCode(context.Background(), ExecuteParams{Code: "loop", Timeout: 50 * time.Millisecond})

	if result.Error != "Execution timed out after 0.05s" {
		t.Errorf("Error = %q", result.Error)
	}
	if !errors.Is(result.Err, ErrLimitExceeded) {
		t.Errorf("Err = %v, want ErrLimitExceeded", result.Err)
	}
	if result.Value != nil {
		t.Errorf("Value = %v, want nil on failure", result.Value)
	}
	if result.Stdout != "started\n" {
		t.Errorf("partial stdout lost: %q", result.Stdout)
	}
}

func TestExecuteCode_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantIs   error
		wantStat string
	}{
		{
			name:     "capability",
			err:      &CapabilityError{Kind: CapabilityImport, Name: "os"},
			wantMsg:  "Import of 'os' is not allowed in the sandbox. Available modules: pd, np and the FPL functions.",
			wantIs:   ErrCapability,
			wantStat: StatusCapability,
		},
		{
			name:     "memory",
			err:      fmt.Errorf("RangeError: Invalid array length: %w", ErrOutOfMemory),
			wantMsg:  MsgOutOfMemory,
			wantIs:   ErrLimitExceeded,
			wantStat: StatusError,
		},
		{
			name: "runtime",
			err: &CodeError{
				Message: "ReferenceError: x is not defined",
				Line:    2,
				Column:  1,
				Trace:   []string{"    at <analysis>:2:1(3)"},
			},
			wantMsg:  "ReferenceError: x is not defined (line 2, col 1)\n    at <analysis>:2:1(3)",
			wantIs:   ErrCodeExecution,
			wantStat: StatusError,
		},
		{
			name:     "unclassified",
			err:      errors.New("boom"),
			wantMsg:  "boom",
			wantIs:   ErrCodeExecution,
			wantStat: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &mockObserver{}
			engine := &mockEngine{executeResult: ExecuteResult{Value: 1}, executeErr: tt.err}
			exec := newTestExecutor(t, engine, func(c *Config) { c.Observer = observer })
			result := exec.ExecuteCode(context.Background(), ExecuteParams{Code: "x"})

			if result.OK() {
				t.Fatal("expected failure")
			}
			if result.Error != tt.wantMsg {
				t.Errorf("Error = %q, want %q", result.Error, tt.wantMsg)
			}
			if !errors.Is(result.Err, tt.wantIs) {
				t.Errorf("Err = %v, want %v", result.Err, tt.wantIs)
			}
			if observer.statuses[0] != tt.wantStat {
				t.Errorf("status = %q, want %q", observer.statuses[0], tt.wantStat)
			}
			if result.Value != nil {
				t.Errorf("Value = %v on failure", result.Value)
			}
		})
	}
}

func TestExecuteCode_LogsSummary(t *testing.T) {
	logger := &mockLogger{}
	exec := newTestExecutor(t, &mockEngine{}, func(c *Config) { c.Logger = logger })
	exec.ExecuteCode(context.Background(), ExecuteParams{
		Code:    "x",
		Context: map[string]any{"f": func() {}},
	})

	if len(logger.messages) != 2 {
		t.Fatalf("expected 2 log messages, got %v", logger.messages)
	}
	if !containsStr(logger.messages[0], "f") {
		t.Errorf("dropped binding not logged: %q", logger.messages[0])
	}
	if !containsStr(logger.messages[1], "ok") {
		t.Errorf("summary = %q", logger.messages[1])
	}
}

func TestEnv_StdoutLimit(t *testing.T) {
	env := newEnv(t.TempDir(), 10)
	env.Print("12345")
	env.Print("67890abc")
	env.Print("more")

	want := "1234567890" + truncatedNote
	if got := env.Stdout(); got != want {
		t.Errorf("Stdout = %q, want %q", got, want)
	}
}

func TestEnv_StdoutLimit_RuneBoundary(t *testing.T) {
	env := newEnv(t.TempDir(), 6)
	env.Print("abcd")
	env.Print("éé")

	want := "abcdé" + truncatedNote
	got := env.Stdout()
	if got != want {
		t.Errorf("Stdout = %q, want %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Stdout is not valid UTF-8: %q", got)
	}
}

func TestPrepareContext_CapsNestedTables(t *testing.T) {
	big := table.MustNew(table.IntColumn("id", []int64{1, 2, 3, 4, 5}))
	in := map[string]any{
		"df": big,
		"m":  map[string]any{"t": big, "list": []any{big}},
		"ts": []*table.Table{big},
	}
	out, dropped := prepareContext(in, 2)
	if len(dropped) != 0 {
		t.Fatalf("dropped = %v", dropped)
	}
	m := out["m"].(map[string]any)
	got := []*table.Table{
		out["df"].(*table.Table),
		m["t"].(*table.Table),
		m["list"].([]any)[0].(*table.Table),
		out["ts"].([]any)[0].(*table.Table),
	}
	for i, tbl := range got {
		if tbl.NumRows() != 2 {
			t.Errorf("table %d rows = %d, want 2", i, tbl.NumRows())
		}
	}
	if big.NumRows() != 5 {
		t.Errorf("source table changed: %d rows", big.NumRows())
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{time.Second, "1s"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.in); got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
