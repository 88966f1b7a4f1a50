package exec

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/jv92admin/fpltools/code"
	"github.com/jv92admin/fpltools/table"
)

// NoChartWarning is set on a plot envelope when the script wrote no chart.
const NoChartWarning = "Code executed but no charts were generated. Use render_line(), render_bar(), render_heatmap(), or render_comparison()."

// Envelope is the response handed back to the calling agent.
type Envelope struct {
	// Title labels a plot response.
	Title string `json:"title,omitempty"`

	// Stdout is everything the script printed.
	Stdout string `json:"stdout,omitempty"`

	// Tables previews every table the script created.
	Tables map[string]TablePreview `json:"tables,omitempty"`

	// Charts lists the chart files, verbatim from the executor.
	Charts []string `json:"charts,omitempty"`

	// Result is the rendered trailing value, cut to Options.SummaryChars.
	Result string `json:"result_summary,omitempty"`

	// Error is the executor's error text, verbatim.
	Error string `json:"error,omitempty"`

	// Warning flags a plot that produced no chart.
	Warning string `json:"warning,omitempty"`

	// DurationMs is the run time in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Loaded lists the df_ bindings handed to the script.
	Loaded []string `json:"loaded,omitempty"`

	// ScratchDir is the run's chart directory, for Cleanup.
	ScratchDir string `json:"-"`

	// Err is the classified error behind Error.
	Err error `json:"-"`
}

// OK reports whether the run completed without error.
func (e Envelope) OK() bool {
	return e.Error == ""
}

// TablePreview is the head of a table together with its full size.
type TablePreview struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	TotalRows int              `json:"total_rows"`
	Text      string           `json:"text"`
}

// Preview returns the first n rows of t. Infinite cells preview as null.
func Preview(t *table.Table, n int) TablePreview {
	head := t.Head(n)
	return TablePreview{
		Columns:   t.Names(),
		Rows:      head.JSONRecords(),
		TotalRows: t.NumRows(),
		Text:      t.Format(n),
	}
}

// TableNames returns the preview names sorted.
func (e Envelope) TableNames() []string {
	out := make([]string, 0, len(e.Tables))
	for name := range e.Tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (x *Exec) envelope(res code.ExecuteResult, loaded []string) Envelope {
	env := Envelope{
		Stdout:     res.Stdout,
		Charts:     res.Charts,
		Error:      res.Error,
		Err:        res.Err,
		DurationMs: res.DurationMs,
		ScratchDir: res.ScratchDir,
		Loaded:     loaded,
	}
	if len(res.Tables) > 0 {
		env.Tables = make(map[string]TablePreview, len(res.Tables))
		for name, t := range res.Tables {
			env.Tables[name] = Preview(t, x.opts.PreviewRows)
		}
	}
	if res.Value != nil {
		env.Result = Summarize(res.Value, x.opts.PreviewRows, x.opts.SummaryChars)
	}
	return env
}

// Summarize renders a result value as text cut to max characters with a
// trailing "...". Tables render their first rows.
func Summarize(v any, rows, max int) string {
	var s string
	switch val := v.(type) {
	case *table.Table:
		s = val.Format(rows)
	case string:
		s = val
	default:
		s = fmt.Sprint(val)
	}
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
