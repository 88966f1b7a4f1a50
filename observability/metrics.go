// Package observability holds the prometheus metrics, the slog setup and the
// tracing helpers shared by the CLI and the MCP server.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/exec"
)

var (
	// ExecutionsTotal counts finished script runs by status.
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpltools_executions_total",
			Help: "Total number of script executions.",
		},
		[]string{"status"},
	)

	// ExecutionDuration tracks script run duration in seconds.
	ExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fpltools_execution_duration_seconds",
			Help:    "Script execution duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	// ChartsTotal counts chart files written by scripts.
	ChartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fpltools_charts_total",
			Help: "Total number of charts written by scripts.",
		},
	)

	// TableLoadsTotal counts table loads by cache outcome.
	TableLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpltools_table_loads_total",
			Help: "Total number of table loads by cache outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		ExecutionsTotal,
		ExecutionDuration,
		ChartsTotal,
		TableLoadsTotal,
	)
}

// Metrics reports executions and table loads to the package collectors.
// The zero value is ready to use.
type Metrics struct{}

var (
	_ code.Observer = Metrics{}
	_ exec.Observer = Metrics{}
)

// ObserveExecution records one finished run.
func (Metrics) ObserveExecution(status string, duration time.Duration, charts int) {
	ExecutionsTotal.WithLabelValues(status).Inc()
	ExecutionDuration.WithLabelValues(status).Observe(duration.Seconds())
	if charts > 0 {
		ChartsTotal.Add(float64(charts))
	}
}

// ObserveTableLoad records one table load.
func (Metrics) ObserveTableLoad(outcome string) {
	TableLoadsTotal.WithLabelValues(outcome).Inc()
}
