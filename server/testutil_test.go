package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/backend/local"
	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/exec"
	"github.com/jv92admin/fpltools/table"
)

// mockExecutor returns a fixed result and records the last params.
type mockExecutor struct {
	mu     sync.Mutex
	last   code.ExecuteParams
	result code.ExecuteResult
}

func (m *mockExecutor) ExecuteCode(_ context.Context, params code.ExecuteParams) code.ExecuteResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = params
	return m.result
}

func (m *mockExecutor) params() code.ExecuteParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func newTestServer(t *testing.T, ex code.Executor) *Server {
	t.Helper()
	return newTestServerWith(t, ex, nil)
}

// newTestServerWith is like newTestServer with Options adjusted by opt.
func newTestServerWith(t *testing.T, ex code.Executor, opt func(*Options)) *Server {
	t.Helper()
	src := local.New("season")
	src.Put("players", table.MustNew(
		table.MustColumn("web_name", "Salah", "Palmer"),
		table.MustColumn("total_points", 180, 160),
	))
	reg := backend.NewRegistry()
	if err := reg.Register(src); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	x, err := exec.New(exec.Options{Executor: ex, Sources: backend.NewAggregator(reg)})
	if err != nil {
		t.Fatalf("exec.New() error = %v", err)
	}
	opts := Options{Exec: x, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if opt != nil {
		opt(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// connect runs s over an in-memory transport and returns a client session.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = s.MCP().Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
	})
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s) error = %v", name, err)
	}
	return res
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(resultText(res)), v); err != nil {
		t.Fatalf("decode %q: %v", resultText(res), err)
	}
}

func containsStr(s, substr string) bool {
	return strings.Contains(s, substr)
}
