package code

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestLogger_Interface(t *testing.T) {
	var _ Logger = (*mockLogger)(nil)
	var _ Logger = SlogLogger{}
	var _ Observer = (*mockObserver)(nil)
}

func TestSlogLogger_Logf(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	l.Logf("run %s %s", "abc", StatusOK)

	out := buf.String()
	if !containsStr(out, `msg="run abc ok"`) {
		t.Errorf("missing message in %q", out)
	}
	if !containsStr(out, "component=code") {
		t.Errorf("missing component attribute in %q", out)
	}
}

func TestNewSlogLogger_NilUsesDefault(t *testing.T) {
	l := NewSlogLogger(nil)
	if l.L == nil {
		t.Fatal("expected default logger")
	}
}
