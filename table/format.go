package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
)

// FormatValue renders a stored value for display. Floats use the shortest
// representation up to four decimals.
func FormatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case float64:
		s := strconv.FormatFloat(n, 'f', 4, 64)
		s = strings.TrimRight(s, "0")
		return strings.TrimSuffix(s, ".")
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	case string:
		return n
	}
	return fmt.Sprint(v)
}

// Format renders up to maxRows rows as an aligned text grid with a shape
// footer when rows were omitted. maxRows < 0 renders every row.
func (t *Table) Format(maxRows int) string {
	if len(t.cols) == 0 {
		return fmt.Sprintf("Empty table (%d rows)", t.rows)
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "\t")
	fmt.Fprintln(w, strings.Join(t.Names(), "\t")+"\t")
	shown := t.rows
	if maxRows >= 0 && maxRows < shown {
		shown = maxRows
	}
	for i := 0; i < shown; i++ {
		cells := make([]string, len(t.cols))
		for j, c := range t.cols {
			cells[j] = FormatValue(c.Value(i))
		}
		fmt.Fprintf(w, "%d\t%s\t\n", i, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
	if shown < t.rows {
		fmt.Fprintf(&b, "... [%d rows x %d columns]\n", t.rows, len(t.cols))
	}
	return strings.TrimRight(b.String(), "\n")
}

// String renders the first 20 rows.
func (t *Table) String() string {
	return t.Format(20)
}

// JSONValue returns v ready for encoding/json: infinite floats, which JSON
// cannot represent, become nil.
func JSONValue(v any) any {
	if f, ok := v.(float64); ok && math.IsInf(f, 0) {
		return nil
	}
	return v
}

// JSONRecords is like Records with JSONValue applied to every cell.
func (t *Table) JSONRecords() []map[string]any {
	out := t.Records()
	for _, rec := range out {
		for k, v := range rec {
			rec[k] = JSONValue(v)
		}
	}
	return out
}
