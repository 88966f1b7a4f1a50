package analytics

import (
	"github.com/jv92admin/fpltools/table"
)

// Ownership tags set in the owner column by Differential.
const (
	OwnerBoth = "both"
	OwnerA    = "a"
	OwnerB    = "b"
)

// DifferentialOptions configures Differential.
type DifferentialOptions struct {
	// PlayerCol identifies players in both squads. Defaults to "player_id".
	PlayerCol string
}

// Differential compares two squads. Each player appears once, taken from
// the first matching row of the squad it came from, with an owner column
// set to "both", "a" or "b". Shared players come first, then players only
// in a, then players only in b, each in order of first appearance. Rows
// with a missing player id are ignored. Two empty squads yield an empty
// table.
func Differential(a, b *table.Table, opts DifferentialOptions) (*table.Table, error) {
	col := strOr(opts.PlayerCol, "player_id")
	aIDs, aFirst, err := firstRows(a, col)
	if err != nil {
		return nil, err
	}
	bIDs, bFirst, err := firstRows(b, col)
	if err != nil {
		return nil, err
	}
	if len(aIDs) == 0 && len(bIDs) == 0 {
		return table.Empty(), nil
	}

	var shared, onlyA, onlyB []int
	for _, k := range aIDs {
		if _, ok := bFirst[k]; ok {
			shared = append(shared, aFirst[k])
		} else {
			onlyA = append(onlyA, aFirst[k])
		}
	}
	for _, k := range bIDs {
		if _, ok := aFirst[k]; !ok {
			onlyB = append(onlyB, bFirst[k])
		}
	}

	parts := make([]*table.Table, 0, 2)
	if len(shared)+len(onlyA) > 0 {
		parts = append(parts, a.Take(append(append([]int(nil), shared...), onlyA...)))
	}
	if len(onlyB) > 0 {
		parts = append(parts, b.Take(onlyB))
	}
	out, err := table.Concat(parts...)
	if err != nil {
		return nil, err
	}

	owners := make([]string, 0, out.NumRows())
	for range shared {
		owners = append(owners, OwnerBoth)
	}
	for range onlyA {
		owners = append(owners, OwnerA)
	}
	for range onlyB {
		owners = append(owners, OwnerB)
	}
	return out.WithColumn(table.StringColumn("owner", owners))
}

// firstRows returns the distinct non-missing ids of col in order and the
// first row holding each. Tables without rows contribute nothing.
func firstRows(t *table.Table, col string) ([]any, map[any]int, error) {
	first := map[any]int{}
	if t == nil || t.IsEmpty() {
		return nil, first, nil
	}
	c, err := t.Column(col)
	if err != nil {
		return nil, nil, err
	}
	var ids []any
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		k := table.Key(c.Value(i))
		if _, seen := first[k]; !seen {
			first[k] = i
			ids = append(ids, k)
		}
	}
	return ids, first, nil
}
