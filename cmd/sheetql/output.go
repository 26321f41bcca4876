package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/zakazai/sheetql"
)

// render prints a command result as a table, or as indented JSON.
func render(w io.Writer, res interface{}, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if res == nil {
			res = map[string]bool{"ok": true}
		}
		return enc.Encode(res)
	}

	switch v := res.(type) {
	case nil:
		fmt.Fprintln(w, "OK")
	case int:
		fmt.Fprintf(w, "%d row(s) affected\n", v)
	case sheetql.Row:
		renderRows(w, []sheetql.Row{v})
	case []sheetql.Row:
		renderRows(w, v)
	case []string:
		table := newTable(w)
		table.SetHeader([]string{"table"})
		for _, name := range v {
			table.Append([]string{name})
		}
		table.Render()
	case *sheetql.TableDetail:
		table := newTable(w)
		table.SetHeader([]string{"property", "value"})
		table.Append([]string{"name", v.Name})
		table.Append([]string{"sheet id", v.SheetID})
		table.Append([]string{"columns", strings.Join(v.Columns, ", ")})
		table.Append([]string{"rows", strconv.Itoa(v.RowCount)})
		table.Render()
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
	return nil
}

func renderRows(w io.Writer, rows []sheetql.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return
	}
	columns := rows[0].Columns
	table := newTable(w)
	table.SetHeader(columns)
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i], _ = row.Get(col)
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}
