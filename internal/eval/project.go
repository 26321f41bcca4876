package eval

import (
	"github.com/zakazai/sheetql/internal/types"
)

// Project narrows each row to the requested fields, in the requested order.
// The positional identifier survives only when types.RowIDColumn is
// requested. Fields a row does not have are left out of its values.
func Project(rows []types.Row, fields []string) []types.Row {
	if len(fields) == 0 {
		return rows
	}

	projected := make([]types.Row, len(rows))
	for i, row := range rows {
		out := types.Row{
			Columns: append([]string(nil), fields...),
			Values:  make(map[string]string, len(fields)),
		}
		for _, field := range fields {
			if v, ok := row.Get(field); ok {
				out.Values[field] = v
			}
			if field == types.RowIDColumn {
				out.ID = row.ID
			}
		}
		projected[i] = out
	}
	return projected
}

// Paginate skips offset rows and keeps at most limit of the rest. Nil means unbounded.
func Paginate(rows []types.Row, limit, offset *int) []types.Row {
	start := 0
	if offset != nil && *offset > 0 {
		start = *offset
	}
	if start >= len(rows) {
		return []types.Row{}
	}

	end := len(rows)
	if limit != nil && *limit >= 0 && start+*limit < end {
		end = start + *limit
	}
	return rows[start:end]
}
