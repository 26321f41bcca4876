package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zakazai/sheetql/internal/types"
)

func row(id int, kv ...string) types.Row {
	r := types.Row{ID: id, Values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Columns = append(r.Columns, kv[i])
		r.Values[kv[i]] = kv[i+1]
	}
	return r
}

func column(rows []types.Row, col string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Values[col]
	}
	return out
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, Value{Kind: KindNumber, Num: 25}, Coerce("25", false))
	assert.Equal(t, Value{Kind: KindNumber, Num: -1.5}, Coerce(" -1.5 ", false))
	assert.Equal(t, Value{Kind: KindString, Str: "alice"}, Coerce("Alice", false))
	assert.Equal(t, Value{Kind: KindString, Str: "12abc"}, Coerce("12abc", false))
	assert.Equal(t, Value{Kind: KindString, Str: ""}, Coerce("", false))

	d := Coerce("2024-03-01", true)
	assert.Equal(t, KindDate, d.Kind)
	assert.Equal(t, float64(1709251200000), d.Num)

	assert.True(t, Coerce("not a date", true).Invalid())
	assert.True(t, Coerce("", true).Invalid())
}

func TestIsDateColumn(t *testing.T) {
	assert.True(t, IsDateColumn("date"))
	assert.True(t, IsDateColumn("BirthDate"))
	assert.True(t, IsDateColumn("updated_date_utc"))
	assert.False(t, IsDateColumn("name"))
	assert.False(t, IsDateColumn("created_at"))
}

func TestCompareInvalidDateIsIncomparable(t *testing.T) {
	bad := Coerce("soon", true)
	good := Coerce("2024-01-01", true)

	_, ok := Compare(bad, good)
	assert.False(t, ok)
	_, ok = Compare(good, bad)
	assert.False(t, ok)
	_, ok = Compare(bad, bad)
	assert.False(t, ok)
}

func TestMatchesEmptyFilter(t *testing.T) {
	assert.True(t, Matches(row(2, "name", "x"), types.Filter{}))
	assert.True(t, Matches(row(2), nil))
}

func TestMatchesLiteral(t *testing.T) {
	r := row(2, "name", "Alice", "age", "25", "city", "")

	tests := []struct {
		name   string
		filter types.Filter
		want   bool
	}{
		{name: "exact text", filter: types.Filter{"name": types.Lit("Alice")}, want: true},
		{name: "literal is case sensitive", filter: types.Filter{"name": types.Lit("alice")}, want: false},
		{name: "number against text", filter: types.Filter{"age": types.Lit(25)}, want: true},
		{name: "number spelled differently", filter: types.Filter{"age": types.Lit("25.0")}, want: true},
		{name: "different number", filter: types.Filter{"age": types.Lit(26)}, want: false},
		{name: "empty cell", filter: types.Filter{"city": types.Lit("")}, want: true},
		{name: "missing column reads empty", filter: types.Filter{"zip": types.Lit("")}, want: true},
		{name: "conjunction all true", filter: types.Filter{"name": types.Lit("Alice"), "age": types.Lit("25")}, want: true},
		{name: "conjunction one false", filter: types.Filter{"name": types.Lit("Alice"), "age": types.Lit("30")}, want: false},
		{name: "positional identifier", filter: types.Filter{types.RowIDColumn: types.Lit(2)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(r, tt.filter))
		})
	}
}

func TestMatchesComparison(t *testing.T) {
	r := row(2, "name", "Alice", "age", "25", "signup_date", "2024-03-15", "note", "n/a")

	tests := []struct {
		name string
		cond types.Filter
		want bool
	}{
		{name: "contains ignores case", cond: types.Filter{"name": types.Cmp(types.OpContains, "LI")}, want: true},
		{name: "contains miss", cond: types.Filter{"name": types.Cmp(types.OpContains, "bob")}, want: false},
		{name: "numeric gt", cond: types.Filter{"age": types.Cmp(types.OpGt, 9)}, want: true},
		{name: "numeric not lexicographic", cond: types.Filter{"age": types.Cmp(types.OpLt, 100)}, want: true},
		{name: "ge boundary", cond: types.Filter{"age": types.Cmp(types.OpGe, 25)}, want: true},
		{name: "le boundary", cond: types.Filter{"age": types.Cmp(types.OpLe, 24)}, want: false},
		{name: "eq string ignores case", cond: types.Filter{"name": types.Cmp(types.OpEq, "ALICE")}, want: true},
		{name: "ne", cond: types.Filter{"name": types.Cmp(types.OpNe, "Bob")}, want: true},
		{name: "ne number against string", cond: types.Filter{"age": types.Cmp(types.OpNe, "old")}, want: true},
		{name: "gt number against string", cond: types.Filter{"age": types.Cmp(types.OpGt, "old")}, want: false},
		{name: "date after", cond: types.Filter{"signup_date": types.Cmp(types.OpGt, "2024-03-01")}, want: true},
		{name: "date other layout", cond: types.Filter{"signup_date": types.Cmp(types.OpLt, "12/31/2024")}, want: true},
		{name: "unparseable date never matches", cond: types.Filter{"signup_date": types.Cmp(types.OpNe, "someday")}, want: false},
		{name: "unparseable date eq", cond: types.Filter{"signup_date": types.Cmp(types.OpEq, "someday")}, want: false},
		{name: "unknown operator", cond: types.Filter{"age": types.Cmp(types.Operator("like"), "25")}, want: false},
		{name: "pointer condition", cond: types.Filter{"age": &types.Comparison{Op: types.OpEq, Value: "25"}}, want: true},
		{name: "nil condition", cond: types.Filter{"age": nil}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(r, tt.cond))
		})
	}
}

func TestApplyKeepsOrder(t *testing.T) {
	rows := []types.Row{row(2, "k", "a"), row(3, "k", "b"), row(4, "k", "a")}
	got := Apply(rows, types.Filter{"k": types.Lit("a")})
	assert.Equal(t, []int{2, 4}, []int{got[0].ID, got[1].ID})
}

func TestSortDescendingNumeric(t *testing.T) {
	rows := []types.Row{row(2, "a", "1"), row(3, "a", "3"), row(4, "a", "2")}

	got := Sort(rows, []types.OrderKey{{Column: "a", Direction: types.Desc}})
	assert.Equal(t, []string{"3", "2", "1"}, column(got, "a"))

	got = Sort(rows, []types.OrderKey{{Column: "a", Direction: types.Asc}})
	assert.Equal(t, []string{"1", "2", "3"}, column(got, "a"))

	// input untouched
	assert.Equal(t, []string{"1", "3", "2"}, column(rows, "a"))
}

func TestSortNumericNotLexicographic(t *testing.T) {
	rows := []types.Row{row(2, "n", "10"), row(3, "n", "9"), row(4, "n", "100")}
	got := Sort(rows, []types.OrderKey{{Column: "n"}})
	assert.Equal(t, []string{"9", "10", "100"}, column(got, "n"))
}

func TestSortIsStable(t *testing.T) {
	rows := []types.Row{
		row(2, "team", "b", "name", "first"),
		row(3, "team", "a", "name", "second"),
		row(4, "team", "b", "name", "third"),
		row(5, "team", "a", "name", "fourth"),
		row(6, "team", "B", "name", "fifth"),
	}

	got := Sort(rows, []types.OrderKey{{Column: "team", Direction: types.Asc}})
	assert.Equal(t, []string{"second", "fourth", "first", "third", "fifth"}, column(got, "name"))

	got = Sort(rows, []types.OrderKey{{Column: "team", Direction: types.Desc}})
	assert.Equal(t, []string{"first", "third", "fifth", "second", "fourth"}, column(got, "name"))
}

func TestSortMultiKey(t *testing.T) {
	rows := []types.Row{
		row(2, "dept", "ops", "age", "30"),
		row(3, "dept", "dev", "age", "25"),
		row(4, "dept", "ops", "age", "41"),
		row(5, "dept", "dev", "age", "52"),
	}
	got := Sort(rows, []types.OrderKey{
		{Column: "dept", Direction: types.Asc},
		{Column: "age", Direction: types.Desc},
	})
	assert.Equal(t, []int{5, 3, 4, 2}, []int{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
}

func TestSortDates(t *testing.T) {
	rows := []types.Row{
		row(2, "created_at", "2024-03-15"),
		row(3, "created_at", "2024-03-01"),
	}
	got := Sort(rows, []types.OrderKey{{Column: "created_at"}})
	assert.Equal(t, []string{"2024-03-01", "2024-03-15"}, column(got, "created_at"))

	// Lexicographic order would put 12/01/2023 last.
	rows = []types.Row{
		row(2, "due_date", "12/01/2023"),
		row(3, "due_date", "03/15/2024"),
		row(4, "due_date", "2024-01-10"),
	}
	got = Sort(rows, []types.OrderKey{{Column: "due_date", Direction: types.Asc}})
	assert.Equal(t, []int{2, 4, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
}

func TestSortEmptyKeysIsNoop(t *testing.T) {
	rows := []types.Row{row(3, "a", "2"), row(2, "a", "1")}
	assert.Equal(t, rows, Sort(rows, nil))
}

func TestProject(t *testing.T) {
	rows := []types.Row{row(2, "id", "1", "name", "Alice", "age", "30")}

	got := Project(rows, []string{"name"})
	assert.Equal(t, []string{"name"}, got[0].Columns)
	assert.Equal(t, map[string]string{"name": "Alice"}, got[0].Values)
	assert.Zero(t, got[0].ID)

	got = Project(rows, []string{"age", "id", "missing"})
	assert.Equal(t, []string{"age", "id", "missing"}, got[0].Columns)
	assert.Equal(t, map[string]string{"age": "30", "id": "1"}, got[0].Values)

	got = Project(rows, []string{types.RowIDColumn, "name"})
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, map[string]string{types.RowIDColumn: "2", "name": "Alice"}, got[0].Values)
}

func TestPaginate(t *testing.T) {
	rows := []types.Row{row(2), row(3), row(4), row(5), row(6)}

	tests := []struct {
		name   string
		limit  *int
		offset *int
		want   []int
	}{
		{name: "unbounded", want: []int{2, 3, 4, 5, 6}},
		{name: "limit", limit: types.IntPtr(2), want: []int{2, 3}},
		{name: "offset", offset: types.IntPtr(3), want: []int{5, 6}},
		{name: "both", limit: types.IntPtr(2), offset: types.IntPtr(1), want: []int{3, 4}},
		{name: "limit zero", limit: types.IntPtr(0), want: []int{}},
		{name: "offset past end", offset: types.IntPtr(9), want: []int{}},
		{name: "limit past end", limit: types.IntPtr(9), offset: types.IntPtr(4), want: []int{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(rows, tt.limit, tt.offset)
			ids := []int{}
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
