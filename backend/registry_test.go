package backend

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	s := &mockSource{kind: "local", name: "test", enabled: true}

	if err := registry.Register(s); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := registry.Register(s); !errors.Is(err, ErrSourceExists) {
		t.Errorf("Register() duplicate error = %v, want ErrSourceExists", err)
	}
	if err := registry.Register(nil); err == nil {
		t.Error("Register(nil) should fail")
	}
	if err := registry.Register(&mockSource{kind: "local"}); err == nil {
		t.Error("Register() should fail without a name")
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockSource{kind: "local", name: "test", enabled: true})

	got, ok := registry.Get("test")
	if !ok {
		t.Fatal("Get() returned false")
	}
	if got.Name() != "test" {
		t.Errorf("Get().Name() = %q, want %q", got.Name(), "test")
	}

	if _, ok := registry.Get("nonexistent"); ok {
		t.Error("Get() should return false for nonexistent source")
	}
}

func TestRegistry_List(t *testing.T) {
	registry := NewRegistry()

	_ = registry.Register(&mockSource{kind: "local", name: "c", enabled: true})
	_ = registry.Register(&mockSource{kind: "csvdir", name: "a", enabled: true})
	_ = registry.Register(&mockSource{kind: "csvdir", name: "b", enabled: false})

	all := registry.List()
	if len(all) != 3 {
		t.Fatalf("List() returned %d sources, want 3", len(all))
	}
	if all[0].Name() != "a" || all[2].Name() != "c" {
		t.Errorf("List() not sorted by name: %s..%s", all[0].Name(), all[2].Name())
	}

	if enabled := registry.ListEnabled(); len(enabled) != 2 {
		t.Errorf("ListEnabled() returned %d sources, want 2", len(enabled))
	}
	if got := registry.ListByKind("csvdir"); len(got) != 2 {
		t.Errorf("ListByKind(csvdir) returned %d sources, want 2", len(got))
	}

	names := registry.Names()
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()

	s := &mockSource{kind: "local", name: "test", enabled: true}
	_ = registry.Register(s)

	registry.Unregister("test")

	if _, ok := registry.Get("test"); ok {
		t.Error("Get() should return false after Unregister()")
	}
	if !s.stopped {
		t.Error("Unregister() should stop the source")
	}
}

func TestRegistry_StartStopAll(t *testing.T) {
	registry := NewRegistry()

	on := &mockSource{kind: "local", name: "on", enabled: true}
	off := &mockSource{kind: "local", name: "off", enabled: false}
	_ = registry.Register(on)
	_ = registry.Register(off)

	if err := registry.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if !on.started || off.started {
		t.Errorf("StartAll() started on=%v off=%v, want only enabled", on.started, off.started)
	}

	off.stopErr = errors.New("boom")
	if err := registry.StopAll(); err == nil {
		t.Error("StopAll() should report a stop error")
	}
	if !on.stopped || !off.stopped {
		t.Error("StopAll() should stop every source")
	}
}

func TestRegistry_StartAllError(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockSource{kind: "local", name: "x", enabled: true, startErr: errors.New("no dir")})

	err := registry.StartAll(context.Background())
	if err == nil || !containsStr(err.Error(), "start source x") {
		t.Errorf("StartAll() error = %v, want it to name the source", err)
	}
}

func TestRegistry_Create(t *testing.T) {
	registry := NewRegistry()
	var made *configurableSource
	registry.RegisterFactory("conf", func(name string) (Source, error) {
		made = &configurableSource{mockSource: mockSource{kind: "conf", name: name, enabled: true}}
		return made, nil
	})
	registry.RegisterFactory("", nil)

	s, err := registry.Create("conf", "data", []byte("dir: ./data"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.Name() != "data" || string(made.raw) != "dir: ./data" {
		t.Errorf("Create() = %q with raw %q", s.Name(), made.raw)
	}
	if _, ok := registry.Get("data"); !ok {
		t.Error("Create() should register the source")
	}

	if _, err := registry.Create("missing", "x", nil); err == nil {
		t.Error("Create() should fail for an unknown kind")
	}
	if _, err := registry.Create("conf", "other", []byte("bad")); err == nil {
		t.Error("Create() should fail when Configure fails")
	}
	if _, err := registry.Create("conf", "data", nil); !errors.Is(err, ErrSourceExists) {
		t.Errorf("Create() duplicate error = %v, want ErrSourceExists", err)
	}
}
