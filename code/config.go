package code

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Defaults applied by NewDefaultExecutor.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRows        = 100_000
	DefaultMaxCharts      = 5
	DefaultMaxStdoutBytes = 1 << 20

	// ScratchPrefix prefixes every per-run scratch directory.
	ScratchPrefix = "fpl_exec_"
)

// Config holds the configuration for a code executor.
type Config struct {
	// Engine is the pluggable script interpreter.
	// Required.
	Engine Engine

	// DefaultTimeout is the execution timeout when ExecuteParams.Timeout
	// is zero. Defaults to 30s.
	DefaultTimeout time.Duration

	// MaxRows caps every context table and every harvested table.
	// Defaults to 100,000.
	MaxRows int

	// MaxCharts caps the chart paths reported per run. Files beyond the
	// cap stay on disk. Defaults to 5.
	MaxCharts int

	// MaxStdoutBytes caps captured output. Defaults to 1 MiB.
	MaxStdoutBytes int

	// ScratchRoot is where per-run scratch directories are created.
	// Defaults to os.TempDir().
	ScratchRoot string

	// Logger is an optional logger for observability.
	Logger Logger

	// Observer is an optional sink for execution metrics.
	Observer Observer
}

// Validate checks that all required fields are set and limits are sane.
// Returns ErrConfiguration on failure.
func (c *Config) Validate() error {
	var missing []string

	if c.Engine == nil {
		missing = append(missing, "Engine")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}

	var negative []string
	if c.DefaultTimeout < 0 {
		negative = append(negative, "DefaultTimeout")
	}
	if c.MaxRows < 0 {
		negative = append(negative, "MaxRows")
	}
	if c.MaxCharts < 0 {
		negative = append(negative, "MaxCharts")
	}
	if c.MaxStdoutBytes < 0 {
		negative = append(negative, "MaxStdoutBytes")
	}
	if len(negative) > 0 {
		return fmt.Errorf("%w: negative values for: %s",
			ErrConfiguration, strings.Join(negative, ", "))
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.MaxRows == 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.MaxCharts == 0 {
		c.MaxCharts = DefaultMaxCharts
	}
	if c.MaxStdoutBytes == 0 {
		c.MaxStdoutBytes = DefaultMaxStdoutBytes
	}
	if c.ScratchRoot == "" {
		c.ScratchRoot = os.TempDir()
	}
}
