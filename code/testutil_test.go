package code

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// mockEngine implements Engine for testing.
type mockEngine struct {
	mu sync.Mutex

	// Configurable returns
	executeResult ExecuteResult
	executeErr    error

	// run, when set, replaces the configured returns.
	run func(ctx context.Context, params ExecuteParams, env Env) (ExecuteResult, error)

	// Call tracking
	executeCalls []executeCall
}

type executeCall struct {
	ctx      context.Context
	params   ExecuteParams
	env      Env
	deadline time.Time
}

func (m *mockEngine) Execute(ctx context.Context, params ExecuteParams, env Env) (ExecuteResult, error) {
	m.mu.Lock()
	deadline, _ := ctx.Deadline()
	m.executeCalls = append(m.executeCalls, executeCall{ctx, params, env, deadline})
	run := m.run
	m.mu.Unlock()
	if run != nil {
		return run(ctx, params, env)
	}
	return m.executeResult, m.executeErr
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

// mockObserver implements Observer for testing.
type mockObserver struct {
	mu       sync.Mutex
	statuses []string
	charts   []int
}

func (o *mockObserver) ObserveExecution(status string, _ time.Duration, charts int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
	o.charts = append(o.charts, charts)
}

func newTestExecutor(t *testing.T, engine Engine, mutate ...func(*Config)) *DefaultExecutor {
	t.Helper()
	cfg := Config{Engine: engine, ScratchRoot: t.TempDir()}
	for _, m := range mutate {
		m(&cfg)
	}
	exec, err := NewDefaultExecutor(cfg)
	if err != nil {
		t.Fatalf("NewDefaultExecutor failed: %v", err)
	}
	return exec
}

func containsStr(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
