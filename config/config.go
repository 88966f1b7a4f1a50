// Package config provides layered configuration for fpltools.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (explicit path, FPLTOOLS_CONFIG, ./fpltools.yaml)
//  3. Environment variable overrides (FPLTOOLS_ prefix)
//  4. Validation
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the fplbi CLI and server.
type Config struct {
	Executor ExecutorConfig `yaml:"executor"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Sources  []SourceConfig `yaml:"sources"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// ExecutorConfig holds sandbox limits.
type ExecutorConfig struct {
	Timeout          time.Duration `yaml:"timeout"`             // default: 30s
	MaxRows          int           `yaml:"max_rows"`            // default: 100000
	MaxCharts        int           `yaml:"max_charts"`          // default: 5
	MaxStdoutBytes   int           `yaml:"max_stdout_bytes"`    // default: 1 MiB
	ScratchRoot      string        `yaml:"scratch_root"`        // default: os.TempDir()
	MaxCallStackSize int           `yaml:"max_call_stack_size"` // default: 500
	Seed             int64         `yaml:"seed"`                // default: 12345
	PrintRows        int           `yaml:"print_rows"`          // default: 20
}

// AnalysisConfig holds response shaping settings.
type AnalysisConfig struct {
	PreviewRows  int `yaml:"preview_rows"`  // default: 10
	SummaryChars int `yaml:"summary_chars"` // default: 500
}

// SourceConfig declares one data source. Settings are passed to the
// source's Configure method as YAML.
type SourceConfig struct {
	Name     string         `yaml:"name"`
	Kind     string         `yaml:"kind"`
	Settings map[string]any `yaml:"settings"`
}

// Raw returns Settings encoded as YAML, or nil when there are none.
func (s SourceConfig) Raw() ([]byte, error) {
	if len(s.Settings) == 0 {
		return nil, nil
	}
	raw, err := yaml.Marshal(s.Settings)
	if err != nil {
		return nil, fmt.Errorf("source %s settings: %w", s.Name, err)
	}
	return raw, nil
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`             // default: ":8080"
	MCPPath        string        `yaml:"mcp_path"`         // default: "/mcp"
	MetricsPath    string        `yaml:"metrics_path"`     // default: "/metrics"
	MetricsEnabled bool          `yaml:"metrics_enabled"`  // default: true
	ReadTimeout    time.Duration `yaml:"read_timeout"`     // default: 30s
	ShutdownGrace  time.Duration `yaml:"shutdown_timeout"` // default: 10s
	PlotRetention  time.Duration `yaml:"plot_retention"`   // default: 30m
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error; default: info
	Format string `yaml:"format"` // text or json; default: text
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Executor: ExecutorConfig{
			Timeout:          30 * time.Second,
			MaxRows:          100_000,
			MaxCharts:        5,
			MaxStdoutBytes:   1 << 20,
			MaxCallStackSize: 500,
			Seed:             12345,
			PrintRows:        20,
		},
		Analysis: AnalysisConfig{
			PreviewRows:  10,
			SummaryChars: 500,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MCPPath:        "/mcp",
			MetricsPath:    "/metrics",
			MetricsEnabled: true,
			ReadTimeout:    30 * time.Second,
			ShutdownGrace:  10 * time.Second,
			PlotRetention:  30 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
