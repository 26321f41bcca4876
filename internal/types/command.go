package types

// Kind names a table operation.
type Kind string

const (
	KindCreateTable     Kind = "createTable"
	KindDropTable       Kind = "dropTable"
	KindTruncateTable   Kind = "truncateTable"
	KindInsertOne       Kind = "insertOne"
	KindSelect          Kind = "select"
	KindUpdate          Kind = "update"
	KindDelete          Kind = "delete"
	KindGetTables       Kind = "getTables"
	KindShowTableDetail Kind = "showTableDetail"
)

// Command is a structured table operation. The set of implementations is
// closed; the planner switches over all of them.
type Command interface {
	Kind() Kind
	isCommand()
}

type CreateTableCommand struct {
	Columns []string
}

type DropTableCommand struct{}

type TruncateTableCommand struct{}

type InsertOneCommand struct {
	Obj map[string]string
}

type SelectCommand struct {
	Where   Filter
	Options SelectOptions
}

type UpdateCommand struct {
	Where   Filter
	NewData map[string]string
}

type DeleteCommand struct {
	Where Filter
}

type GetTablesCommand struct{}

type ShowTableDetailCommand struct{}

func (CreateTableCommand) Kind() Kind     { return KindCreateTable }
func (DropTableCommand) Kind() Kind       { return KindDropTable }
func (TruncateTableCommand) Kind() Kind   { return KindTruncateTable }
func (InsertOneCommand) Kind() Kind       { return KindInsertOne }
func (SelectCommand) Kind() Kind          { return KindSelect }
func (UpdateCommand) Kind() Kind          { return KindUpdate }
func (DeleteCommand) Kind() Kind          { return KindDelete }
func (GetTablesCommand) Kind() Kind       { return KindGetTables }
func (ShowTableDetailCommand) Kind() Kind { return KindShowTableDetail }

func (CreateTableCommand) isCommand()     {}
func (DropTableCommand) isCommand()       {}
func (TruncateTableCommand) isCommand()   {}
func (InsertOneCommand) isCommand()       {}
func (SelectCommand) isCommand()          {}
func (UpdateCommand) isCommand()          {}
func (DeleteCommand) isCommand()          {}
func (GetTablesCommand) isCommand()       {}
func (ShowTableDetailCommand) isCommand() {}
