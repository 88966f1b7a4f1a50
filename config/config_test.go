package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Executor.Timeout != 30*time.Second {
		t.Errorf("default executor.timeout = %v, want 30s", cfg.Executor.Timeout)
	}
	if cfg.Executor.MaxRows != 100000 {
		t.Errorf("default executor.max_rows = %d, want 100000", cfg.Executor.MaxRows)
	}
	if cfg.Executor.MaxCharts != 5 {
		t.Errorf("default executor.max_charts = %d, want 5", cfg.Executor.MaxCharts)
	}
	if cfg.Analysis.PreviewRows != 10 || cfg.Analysis.SummaryChars != 500 {
		t.Errorf("default analysis = %+v", cfg.Analysis)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.MetricsPath != "/metrics" || !cfg.Server.MetricsEnabled {
		t.Errorf("default server = %+v", cfg.Server)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("default log = %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
executor:
  timeout: 5s
  max_rows: 500
  seed: 7
analysis:
  preview_rows: 3
sources:
  - name: season
    kind: csvdir
    settings:
      dir: ./data
server:
  addr: 127.0.0.1:9090
  metrics_enabled: false
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Executor.Timeout != 5*time.Second || cfg.Executor.MaxRows != 500 || cfg.Executor.Seed != 7 {
		t.Errorf("executor = %+v", cfg.Executor)
	}
	if cfg.Executor.MaxCharts != 5 {
		t.Errorf("unset executor.max_charts = %d, want default 5", cfg.Executor.MaxCharts)
	}
	if cfg.Analysis.PreviewRows != 3 || cfg.Analysis.SummaryChars != 500 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Kind != "csvdir" {
		t.Fatalf("sources = %+v", cfg.Sources)
	}
	raw, err := cfg.Sources[0].Raw()
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}
	if !strings.Contains(string(raw), "dir: ./data") {
		t.Errorf("Raw() = %q", raw)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" || cfg.Server.MetricsEnabled {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "executor:\n  max_rows: 500\n")
	t.Setenv("FPLTOOLS_MAX_ROWS", "42")
	t.Setenv("FPLTOOLS_TIMEOUT", "2s")
	t.Setenv("FPLTOOLS_ADDR", ":9999")
	t.Setenv("FPLTOOLS_LOG_LEVEL", "warn")
	t.Setenv("FPLTOOLS_DATA_DIR", "/srv/fpl")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Executor.MaxRows != 42 {
		t.Errorf("env should override file: max_rows = %d", cfg.Executor.MaxRows)
	}
	if cfg.Executor.Timeout != 2*time.Second || cfg.Server.Addr != ":9999" || cfg.Log.Level != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "data" || cfg.Sources[0].Settings["dir"] != "/srv/fpl" {
		t.Errorf("sources = %+v", cfg.Sources)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	tests := map[string]string{
		"FPLTOOLS_MAX_ROWS": "many",
		"FPLTOOLS_TIMEOUT":  "soon",
	}
	for env, val := range tests {
		t.Run(env, func(t *testing.T) {
			t.Setenv(EnvConfig, "")
			t.Chdir(t.TempDir())
			t.Setenv(env, val)
			if _, err := Load(""); err == nil || !strings.Contains(err.Error(), env) {
				t.Errorf("Load() error = %v, want it to name %s", err, env)
			}
		})
	}
}

func TestLoad_Discovery(t *testing.T) {
	t.Run("env path", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "log:\n  level: error\n")
		t.Setenv(EnvConfig, path)
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Log.Level != "error" {
			t.Errorf("log.level = %q, want error", cfg.Log.Level)
		}
	})

	t.Run("working directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "log:\n  format: json\n")
		t.Setenv(EnvConfig, "")
		t.Chdir(dir)
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("log.format = %q, want json", cfg.Log.Format)
		}
	})

	t.Run("no file", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Addr != ":8080" {
			t.Errorf("server.addr = %q, want default", cfg.Server.Addr)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("Load() should fail for a missing explicit file")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero timeout", func(c *Config) { c.Executor.Timeout = 0 }, "executor.timeout"},
		{"negative rows", func(c *Config) { c.Executor.MaxRows = -1 }, "executor.max_rows"},
		{"negative preview", func(c *Config) { c.Analysis.PreviewRows = -2 }, "analysis.preview_rows"},
		{"unnamed source", func(c *Config) { c.Sources = []SourceConfig{{Kind: "csvdir"}} }, "sources[0].name"},
		{"duplicate source", func(c *Config) {
			c.Sources = []SourceConfig{{Name: "a", Kind: "csvdir"}, {Name: "a", Kind: "local"}}
		}, "duplicated"},
		{"unknown kind", func(c *Config) { c.Sources = []SourceConfig{{Name: "a", Kind: "redis"}} }, "sources[0].kind"},
		{"views without base", func(c *Config) { c.Sources = []SourceConfig{{Name: "v", Kind: "views"}} }, "sources[0].settings.base is required"},
		{"views over unknown base", func(c *Config) {
			c.Sources = []SourceConfig{{Name: "v", Kind: "views", Settings: map[string]any{"base": "fpl"}}}
		}, "not another configured source"},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"no plot retention", func(c *Config) { c.Server.PlotRetention = 0 }, "server.plot_retention"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestSourceConfig_RawEmpty(t *testing.T) {
	raw, err := SourceConfig{Name: "mem", Kind: "local"}.Raw()
	if err != nil || raw != nil {
		t.Errorf("Raw() = %q, %v; want nil, nil", raw, err)
	}
}
