package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "FPLTOOLS_CONFIG"

// DefaultFile is the config file looked for in the working directory.
const DefaultFile = "fpltools.yaml"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, FPLTOOLS_CONFIG env, ./fpltools.yaml)
//  3. FPLTOOLS_* environment variable overrides
//  4. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if filePath := discoverConfigFile(configPath); filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. FPLTOOLS_CONFIG environment variable
// 3. ./fpltools.yaml in the current directory
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		return envPath
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps FPLTOOLS_* environment variables to config
// fields. Malformed numbers and durations are errors.
func applyEnvOverrides(cfg *Config) error {
	ints := []struct {
		env string
		dst *int
	}{
		{"FPLTOOLS_MAX_ROWS", &cfg.Executor.MaxRows},
		{"FPLTOOLS_MAX_CHARTS", &cfg.Executor.MaxCharts},
		{"FPLTOOLS_MAX_STDOUT_BYTES", &cfg.Executor.MaxStdoutBytes},
		{"FPLTOOLS_PREVIEW_ROWS", &cfg.Analysis.PreviewRows},
	}
	for _, o := range ints {
		if v := os.Getenv(o.env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", o.env, err)
			}
			*o.dst = n
		}
	}

	if v := os.Getenv("FPLTOOLS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FPLTOOLS_TIMEOUT: %w", err)
		}
		cfg.Executor.Timeout = d
	}
	if v := os.Getenv("FPLTOOLS_SCRATCH_ROOT"); v != "" {
		cfg.Executor.ScratchRoot = v
	}
	if v := os.Getenv("FPLTOOLS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FPLTOOLS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FPLTOOLS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// FPLTOOLS_DATA_DIR adds a csvdir source named "data".
	if v := os.Getenv("FPLTOOLS_DATA_DIR"); v != "" {
		cfg.Sources = append(cfg.Sources, SourceConfig{
			Name:     "data",
			Kind:     "csvdir",
			Settings: map[string]any{"dir": v},
		})
	}
	return nil
}
