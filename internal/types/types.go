package types

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// RowIDColumn is the pseudo-column that exposes a row's positional identifier.
const RowIDColumn = "_row"

// HeaderPosition is the position of the header row in every tab.
// Data rows start right below it.
const HeaderPosition = 1

// Schema is the ordered header row of a table.
type Schema []string

// Index returns the position of a column in the header, or -1.
func (s Schema) Index(column string) int {
	for i, name := range s {
		if name == column {
			return i
		}
	}
	return -1
}

// Row is one record of a table snapshot. ID is the row's 1-based position in
// the backing tab (the header is position 1) and is only stable until the tab
// is mutated.
type Row struct {
	ID      int
	Columns []string
	Values  map[string]string
}

// NewRow builds a row from a header and the cells stored at a position.
// Missing cells are padded with "".
func NewRow(id int, header Schema, cells []string) Row {
	row := Row{
		ID:      id,
		Columns: append([]string(nil), header...),
		Values:  make(map[string]string, len(header)),
	}
	for i, col := range header {
		if i < len(cells) {
			row.Values[col] = cells[i]
		} else {
			row.Values[col] = ""
		}
	}
	return row
}

// Get returns the value stored for a column. The RowIDColumn pseudo-column
// resolves to the positional identifier when the row carries one.
func (r Row) Get(column string) (string, bool) {
	if v, ok := r.Values[column]; ok {
		return v, true
	}
	if column == RowIDColumn && r.ID > 0 {
		return strconv.Itoa(r.ID), true
	}
	return "", false
}

// Cells lays the row out in header order, leaving unknown columns empty.
func (r Row) Cells(header Schema) []string {
	cells := make([]string, len(header))
	for i, col := range header {
		cells[i] = r.Values[col]
	}
	return cells
}

// MarshalJSON writes the row as an object whose keys keep column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	for _, col := range r.Columns {
		v, ok := r.Values[col]
		if !ok {
			continue
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		written++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Operator is a comparison operator usable in a structured condition.
type Operator string

const (
	OpEq       Operator = "="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpLt       Operator = "<"
	OpGe       Operator = ">="
	OpLe       Operator = "<="
	OpContains Operator = "contains"
)

// Condition is a single column's match rule: either a bare literal (equality)
// or an operator with an operand.
type Condition interface {
	isCondition()
}

// Literal matches when the cell loosely equals Value ("25" matches "25.0").
type Literal struct {
	Value string
}

// Comparison matches when the coerced cell compares to Value per Op.
type Comparison struct {
	Op    Operator
	Value string
}

func (Literal) isCondition()    {}
func (Comparison) isCondition() {}

// Lit builds a literal condition from a string or number.
func Lit(v interface{}) Literal {
	return Literal{Value: FormatValue(v)}
}

// Cmp builds an operator condition.
func Cmp(op Operator, v interface{}) Comparison {
	return Comparison{Op: op, Value: FormatValue(v)}
}

// FormatValue renders a caller supplied value the way it would be stored in a cell.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Filter is a conjunction of per-column conditions. An empty filter matches every row.
type Filter map[string]Condition

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderKey is one ORDER BY entry.
type OrderKey struct {
	Column    string
	Direction Direction
}

// SelectOptions shapes a select result. Nil Limit and Offset mean unbounded.
type SelectOptions struct {
	OrderBy      []OrderKey
	Limit        *int
	Offset       *int
	SelectFields []string
}

// TableDetail describes a bound table.
type TableDetail struct {
	Name     string
	SheetID  string
	Columns  Schema
	RowCount int
}

// IntPtr is a helper for building SelectOptions literals.
func IntPtr(n int) *int {
	return &n
}
