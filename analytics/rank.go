package analytics

import (
	"fmt"
	"sort"

	"github.com/jv92admin/fpltools/table"
)

// DefaultRankN is the row count used when RankOptions.N is zero.
const DefaultRankN = 10

// RankOptions configures RankBy.
type RankOptions struct {
	// N is the number of rows kept, per group when GroupBy is set.
	// Zero selects DefaultRankN.
	N int

	// Ascending keeps the lowest values instead of the highest.
	Ascending bool

	// GroupBy ranks within each value of this column, groups ordered by
	// key. Ignored when empty or absent from the table.
	GroupBy string
}

// RankBy returns the N rows with the highest (or lowest) metric values and
// a 1-based rank column over the returned order. Rows with a missing
// metric are excluded and ties keep their input order, so repeated calls
// return identical tables.
func RankBy(t *table.Table, metric string, opts RankOptions) (*table.Table, error) {
	if _, err := t.Column(metric); err != nil {
		return nil, err
	}
	n := orDefault(opts.N, DefaultRankN)
	if n < 0 {
		return nil, fmt.Errorf("rank count must be positive, got %d", n)
	}
	present := t.Filter(func(r table.Row) bool {
		_, ok := r.Float(metric)
		return ok
	})
	sortKey := table.SortKey{Column: metric, Desc: !opts.Ascending}

	var result *table.Table
	if opts.GroupBy != "" && present.HasColumn(opts.GroupBy) {
		groups, err := present.GroupBy(opts.GroupBy)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(groups, func(i, j int) bool {
			return table.Compare(groups[i].Key, groups[j].Key) < 0
		})
		parts := make([]*table.Table, 0, len(groups))
		for _, g := range groups {
			top, err := present.Take(g.Indices).SortBy(sortKey)
			if err != nil {
				return nil, err
			}
			parts = append(parts, top.Head(n))
		}
		if result, err = table.Concat(parts...); err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			result = present.Head(0)
		}
	} else {
		sorted, err := present.SortBy(sortKey)
		if err != nil {
			return nil, err
		}
		result = sorted.Head(n)
	}

	ranks := make([]int64, result.NumRows())
	for i := range ranks {
		ranks[i] = int64(i + 1)
	}
	return result.WithColumn(table.IntColumn("rank", ranks))
}
