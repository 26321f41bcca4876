package eval

import (
	"strings"

	"github.com/zakazai/sheetql/internal/types"
)

// Matches reports whether a row satisfies every condition in the filter.
// A column the row does not have reads as "".
func Matches(row types.Row, filter types.Filter) bool {
	for column, cond := range filter {
		rowVal, _ := row.Get(column)
		if !matchCondition(column, rowVal, cond) {
			return false
		}
	}
	return true
}

func matchCondition(column, rowVal string, cond types.Condition) bool {
	switch c := cond.(type) {
	case types.Literal:
		return LooseEqual(rowVal, c.Value)
	case *types.Literal:
		return c != nil && LooseEqual(rowVal, c.Value)
	case types.Comparison:
		return compareOp(column, rowVal, c.Op, c.Value)
	case *types.Comparison:
		return c != nil && compareOp(column, rowVal, c.Op, c.Value)
	}
	return false
}

func compareOp(column, rowVal string, op types.Operator, value string) bool {
	if op == types.OpContains {
		return strings.Contains(strings.ToLower(rowVal), strings.ToLower(value))
	}

	isDate := IsDateColumn(column)
	a := Coerce(rowVal, isDate)
	b := Coerce(value, isDate)
	cmp, ok := Compare(a, b)
	if !ok {
		// Number against string is definitely unequal; the invalid-date
		// sentinel matches nothing.
		return op == types.OpNe && !a.Invalid() && !b.Invalid()
	}

	switch op {
	case types.OpEq:
		return cmp == 0
	case types.OpNe:
		return cmp != 0
	case types.OpGt:
		return cmp > 0
	case types.OpLt:
		return cmp < 0
	case types.OpGe:
		return cmp >= 0
	case types.OpLe:
		return cmp <= 0
	}
	return false
}

// Apply returns the rows that match the filter, preserving order.
func Apply(rows []types.Row, filter types.Filter) []types.Row {
	if len(filter) == 0 {
		return rows
	}
	matched := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		if Matches(row, filter) {
			matched = append(matched, row)
		}
	}
	return matched
}
