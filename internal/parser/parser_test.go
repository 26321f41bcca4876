package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zakazai/sheetql/internal/types"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Command
	}{
		{
			name:  "Create table",
			input: "CREATE TABLE t (id, name, age)",
			want:  types.CreateTableCommand{Columns: []string{"id", "name", "age"}},
		},
		{
			name:  "Create table with ignored types",
			input: "create table t (id INT, name TEXT);",
			want:  types.CreateTableCommand{Columns: []string{"id", "name"}},
		},
		{
			name:  "Drop table",
			input: "DROP TABLE t",
			want:  types.DropTableCommand{},
		},
		{
			name:  "Truncate table",
			input: "truncate table t",
			want:  types.TruncateTableCommand{},
		},
		{
			name:  "Insert",
			input: "INSERT INTO users (id, name, age) VALUES ('1', 'Alice', 30)",
			want: types.InsertOneCommand{Obj: map[string]string{
				"id": "1", "name": "Alice", "age": "30",
			}},
		},
		{
			name:  "Insert with fewer values than columns",
			input: "INSERT INTO users (id, name) VALUES ('1')",
			want:  types.InsertOneCommand{Obj: map[string]string{"id": "1"}},
		},
		{
			name:  "Insert with surplus values",
			input: "INSERT INTO users (id) VALUES ('1', 'extra')",
			want:  types.InsertOneCommand{Obj: map[string]string{"id": "1"}},
		},
		{
			name:  "Select all with where",
			input: "SELECT * FROM t WHERE id = '1'",
			want: types.SelectCommand{
				Where: types.Filter{"id": types.Literal{Value: "1"}},
			},
		},
		{
			name:  "Select without clauses",
			input: "SELECT * FROM t",
			want:  types.SelectCommand{Where: types.Filter{}},
		},
		{
			name:  "Select with every clause",
			input: "SELECT name FROM t ORDER BY age DESC LIMIT 5 OFFSET 2",
			want: types.SelectCommand{
				Where: types.Filter{},
				Options: types.SelectOptions{
					SelectFields: []string{"name"},
					OrderBy:      []types.OrderKey{{Column: "age", Direction: types.Desc}},
					Limit:        types.IntPtr(5),
					Offset:       types.IntPtr(2),
				},
			},
		},
		{
			name:  "Select with conjunction and multi-key order",
			input: "SELECT id, name FROM t WHERE city = 'Oslo' AND age = 30 ORDER BY name, id ASC",
			want: types.SelectCommand{
				Where: types.Filter{
					"city": types.Literal{Value: "Oslo"},
					"age":  types.Literal{Value: "30"},
				},
				Options: types.SelectOptions{
					SelectFields: []string{"id", "name"},
					OrderBy: []types.OrderKey{
						{Column: "name", Direction: types.Asc},
						{Column: "id", Direction: types.Asc},
					},
				},
			},
		},
		{
			name:  "Out-of-order clauses are dropped",
			input: "SELECT * FROM t LIMIT 3 WHERE id = '1'",
			want: types.SelectCommand{
				Where:   types.Filter{},
				Options: types.SelectOptions{Limit: types.IntPtr(3)},
			},
		},
		{
			name:  "Update",
			input: "UPDATE t SET name = 'Bob' WHERE id = '1'",
			want: types.UpdateCommand{
				Where:   types.Filter{"id": types.Literal{Value: "1"}},
				NewData: map[string]string{"name": "Bob"},
			},
		},
		{
			name:  "Update several columns",
			input: `UPDATE t SET name = "Bob", age = 41 WHERE id = '1' AND city = 'Rome'`,
			want: types.UpdateCommand{
				Where: types.Filter{
					"id":   types.Literal{Value: "1"},
					"city": types.Literal{Value: "Rome"},
				},
				NewData: map[string]string{"name": "Bob", "age": "41"},
			},
		},
		{
			name:  "Delete",
			input: "DELETE FROM t WHERE id = '7'",
			want:  types.DeleteCommand{Where: types.Filter{"id": types.Literal{Value: "7"}}},
		},
		{
			name:  "Unquoted where value",
			input: "SELECT * FROM t WHERE status = active",
			want:  types.SelectCommand{Where: types.Filter{"status": types.Literal{Value: "active"}}},
		},
		{
			name:  "Unquoted date stays whole",
			input: "SELECT * FROM t WHERE due_date = 2024-03-01 ORDER BY id",
			want: types.SelectCommand{
				Where: types.Filter{"due_date": types.Literal{Value: "2024-03-01"}},
				Options: types.SelectOptions{
					OrderBy: []types.OrderKey{{Column: "id", Direction: types.Asc}},
				},
			},
		},
		{
			name:  "Unquoted values keep inner spacing and stop at AND",
			input: "DELETE FROM t WHERE name = Ann  Lee AND email = ann@example.com;",
			want: types.DeleteCommand{Where: types.Filter{
				"name":  types.Literal{Value: "Ann  Lee"},
				"email": types.Literal{Value: "ann@example.com"},
			}},
		},
		{
			name:  "Unquoted set value",
			input: "UPDATE t SET status = done, at = 10:30 WHERE id = 1",
			want: types.UpdateCommand{
				Where:   types.Filter{"id": types.Literal{Value: "1"}},
				NewData: map[string]string{"status": "done", "at": "10:30"},
			},
		},
		{
			name:  "Unquoted insert values",
			input: "INSERT INTO users (name, age) VALUES (Alice, 30)",
			want:  types.InsertOneCommand{Obj: map[string]string{"name": "Alice", "age": "30"}},
		},
		{
			name:  "Reserved words as column names",
			input: "CREATE TABLE t (id, desc TEXT, order, detail)",
			want:  types.CreateTableCommand{Columns: []string{"id", "desc", "order", "detail"}},
		},
		{
			name:  "Reserved word columns in insert",
			input: "INSERT INTO t (id, desc, values) VALUES (1, 'Widget', 3)",
			want:  types.InsertOneCommand{Obj: map[string]string{"id": "1", "desc": "Widget", "values": "3"}},
		},
		{
			name:  "Reserved word columns in select",
			input: "SELECT desc, limit FROM t WHERE order = 5 ORDER BY order DESC LIMIT 1",
			want: types.SelectCommand{
				Where: types.Filter{"order": types.Literal{Value: "5"}},
				Options: types.SelectOptions{
					SelectFields: []string{"desc", "limit"},
					OrderBy:      []types.OrderKey{{Column: "order", Direction: types.Desc}},
					Limit:        types.IntPtr(1),
				},
			},
		},
		{
			name:  "Reserved word set target",
			input: "UPDATE t SET table = 'B2', by = me WHERE set = 1",
			want: types.UpdateCommand{
				Where:   types.Filter{"set": types.Literal{Value: "1"}},
				NewData: map[string]string{"table": "B2", "by": "me"},
			},
		},
		{
			name:  "Quoted column names",
			input: `SELECT 'first name' FROM t WHERE "last name" = Smith ORDER BY 'first name'`,
			want: types.SelectCommand{
				Where: types.Filter{"last name": types.Literal{Value: "Smith"}},
				Options: types.SelectOptions{
					SelectFields: []string{"first name"},
					OrderBy:      []types.OrderKey{{Column: "first name", Direction: types.Asc}},
				},
			},
		},
		{
			name:  "Keyword column keeps its case",
			input: "SELECT * FROM t WHERE Detail = x",
			want:  types.SelectCommand{Where: types.Filter{"Detail": types.Literal{Value: "x"}}},
		},
		{
			name:  "Get tables",
			input: "GET TABLES",
			want:  types.GetTablesCommand{},
		},
		{
			name:  "Show table detail",
			input: "show table detail",
			want:  types.ShowTableDetailCommand{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind(), got.Kind())
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "Empty", input: "", want: types.ErrUnsupportedSyntax},
		{name: "Unknown keyword", input: "MERGE INTO t", want: types.ErrUnsupportedSyntax},
		{name: "Bare identifier", input: "hello world", want: types.ErrUnsupportedSyntax},
		{name: "Keyword that starts no statement", input: "FROM t", want: types.ErrUnsupportedSyntax},
		{name: "Create without columns", input: "CREATE TABLE t", want: types.ErrMalformedStatement},
		{name: "Create with empty list", input: "CREATE TABLE t ()", want: types.ErrMalformedStatement},
		{name: "Drop without table keyword", input: "DROP t", want: types.ErrMalformedStatement},
		{name: "Insert without values", input: "INSERT INTO t (a, b)", want: types.ErrMalformedStatement},
		{name: "Select without from", input: "SELECT *", want: types.ErrMalformedStatement},
		{name: "Where with non-equality", input: "SELECT * FROM t WHERE age > 3", want: types.ErrMalformedStatement},
		{name: "Where without value", input: "SELECT * FROM t WHERE age =", want: types.ErrMalformedStatement},
		{name: "Where with OR", input: "SELECT * FROM t WHERE a = '1' OR b = '2'", want: types.ErrMalformedStatement},
		{name: "Negative limit", input: "SELECT * FROM t LIMIT -1", want: types.ErrMalformedStatement},
		{name: "Fractional offset", input: "SELECT * FROM t OFFSET 1.5", want: types.ErrMalformedStatement},
		{name: "Order without by", input: "SELECT * FROM t ORDER age", want: types.ErrMalformedStatement},
		{name: "Update without where", input: "UPDATE t SET a = '1'", want: types.ErrMalformedStatement},
		{name: "Delete without where", input: "DELETE FROM t", want: types.ErrMalformedStatement},
		{name: "Get tables with argument", input: "GET TABLES now", want: types.ErrMalformedStatement},
		{name: "Show without detail", input: "SHOW TABLE", want: types.ErrMalformedStatement},
		{name: "Unterminated string", input: "SELECT * FROM t WHERE a = 'x", want: types.ErrMalformedStatement},
		{name: "Trailing garbage", input: "DROP TABLE t t2", want: types.ErrMalformedStatement},
		{name: "Select list ends at FROM", input: "SELECT FROM t", want: types.ErrMalformedStatement},
		{name: "Insert with empty value", input: "INSERT INTO t (a, b) VALUES (1, )", want: types.ErrMalformedStatement},
		{name: "Value followed by quoted text", input: "SELECT * FROM t WHERE a = x 'y'", want: types.ErrMalformedStatement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.input)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseKeepsTableName(t *testing.T) {
	stmt, err := Parse("SELECT * FROM 'Sales Q1' WHERE region = 'EU'")
	require.NoError(t, err)
	assert.Equal(t, "Sales Q1", stmt.Table)

	stmt, err = Parse("GET TABLES")
	require.NoError(t, err)
	assert.Empty(t, stmt.Table)
}
