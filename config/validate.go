package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Executor.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("executor.timeout must be > 0, got %v", c.Executor.Timeout))
	}
	for name, v := range map[string]int{
		"executor.max_rows":            c.Executor.MaxRows,
		"executor.max_charts":          c.Executor.MaxCharts,
		"executor.max_stdout_bytes":    c.Executor.MaxStdoutBytes,
		"executor.max_call_stack_size": c.Executor.MaxCallStackSize,
		"executor.print_rows":          c.Executor.PrintRows,
		"analysis.preview_rows":        c.Analysis.PreviewRows,
		"analysis.summary_chars":       c.Analysis.SummaryChars,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %d", name, v))
		}
	}

	names := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		names[s.Name] = true
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Errorf("sources[%d].name is required", i))
		case seen[s.Name]:
			errs = append(errs, fmt.Errorf("sources[%d].name %q is duplicated", i, s.Name))
		}
		seen[s.Name] = true
		switch s.Kind {
		case "csvdir", "local", "postgres":
		case "views":
			switch base, _ := s.Settings["base"].(string); {
			case base == "":
				errs = append(errs, fmt.Errorf("sources[%d].settings.base is required for views", i))
			case base == s.Name || !names[base]:
				errs = append(errs, fmt.Errorf("sources[%d].settings.base %q is not another configured source", i, base))
			}
		default:
			errs = append(errs, fmt.Errorf("sources[%d].kind must be \"csvdir\", \"local\", \"postgres\" or \"views\", got %q", i, s.Kind))
		}
	}

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.PlotRetention <= 0 {
		errs = append(errs, fmt.Errorf("server.plot_retention must be positive"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
