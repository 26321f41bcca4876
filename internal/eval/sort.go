package eval

import (
	"sort"

	"github.com/zakazai/sheetql/internal/types"
)

// Sort orders rows by the given keys and returns a new slice. Rows that tie on
// every key keep their input order.
func Sort(rows []types.Row, orderBy []types.OrderKey) []types.Row {
	sorted := make([]types.Row, len(rows))
	copy(sorted, rows)
	if len(orderBy) == 0 || len(sorted) < 2 {
		return sorted
	}

	// Keys are coerced once per row.
	keys := make([][]Value, len(sorted))
	for i, row := range sorted {
		keys[i] = make([]Value, len(orderBy))
		for k, key := range orderBy {
			raw, _ := row.Get(key.Column)
			keys[i][k] = Coerce(raw, IsDateColumn(key.Column))
		}
	}

	idx := make([]int, len(sorted))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return compareKeys(keys[idx[i]], keys[idx[j]], orderBy) < 0
	})

	out := make([]types.Row, len(sorted))
	for i, from := range idx {
		out[i] = sorted[from]
	}
	return out
}

func compareKeys(a, b []Value, orderBy []types.OrderKey) int {
	for k, key := range orderBy {
		cmp := sortCompare(a[k], b[k])
		if cmp == 0 {
			continue
		}
		if key.Direction == types.Desc {
			return -cmp
		}
		return cmp
	}
	return 0
}

// sortCompare is Compare with a fallback for mixed kinds: numbers and dates
// sort before strings. The invalid-date sentinel ties with everything.
func sortCompare(a, b Value) int {
	if cmp, ok := Compare(a, b); ok {
		return cmp
	}
	if a.Invalid() || b.Invalid() {
		return 0
	}
	if a.Kind == KindString {
		return 1
	}
	return -1
}
