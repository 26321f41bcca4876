// Package sheetql runs a small SQL-like language against tabs of a row store.
//
// A statement is translated into a Command and dispatched against one tab:
//
//	db, _ := sheetql.Open(sheetql.StorageConfig{Type: sheetql.JSONStorageType, FilePath: "db.json"})
//	users := db.Table("users")
//	rows, err := users.Query(ctx, "SELECT name FROM users WHERE city = 'Oslo' ORDER BY age DESC LIMIT 5")
//
// The textual WHERE clause only supports equality. Filters built in Go can use
// every operator:
//
//	users.Select(ctx, sheetql.Filter{"age": sheetql.Cmp(sheetql.OpGe, 18)}, sheetql.SelectOptions{})
//
// Columns whose name contains "date" are compared as dates.
package sheetql

import (
	"context"
	"fmt"
	"time"

	"github.com/zakazai/sheetql/internal/eval"
	"github.com/zakazai/sheetql/internal/parser"
	"github.com/zakazai/sheetql/internal/planner"
	"github.com/zakazai/sheetql/internal/storage"
	"github.com/zakazai/sheetql/internal/types"
)

type (
	Row           = types.Row
	Schema        = types.Schema
	Filter        = types.Filter
	Condition     = types.Condition
	Literal       = types.Literal
	Comparison    = types.Comparison
	Operator      = types.Operator
	Direction     = types.Direction
	OrderKey      = types.OrderKey
	SelectOptions = types.SelectOptions
	TableDetail   = types.TableDetail
	Command       = types.Command
	Kind          = types.Kind

	CreateTableCommand     = types.CreateTableCommand
	DropTableCommand       = types.DropTableCommand
	TruncateTableCommand   = types.TruncateTableCommand
	InsertOneCommand       = types.InsertOneCommand
	SelectCommand          = types.SelectCommand
	UpdateCommand          = types.UpdateCommand
	DeleteCommand          = types.DeleteCommand
	GetTablesCommand       = types.GetTablesCommand
	ShowTableDetailCommand = types.ShowTableDetailCommand

	RowStore      = storage.RowStore
	StorageConfig = storage.StorageConfig
	StorageType   = storage.StorageType

	// Value is a coerced cell as produced by Coerce.
	Value = eval.Value
)

const (
	OpEq       = types.OpEq
	OpNe       = types.OpNe
	OpGt       = types.OpGt
	OpLt       = types.OpLt
	OpGe       = types.OpGe
	OpLe       = types.OpLe
	OpContains = types.OpContains

	Asc  = types.Asc
	Desc = types.Desc

	RowIDColumn = types.RowIDColumn

	InMemoryStorageType = storage.InMemoryStorageType
	JSONStorageType     = storage.JSONStorageType
	ParquetStorageType  = storage.ParquetStorageType
	HybridStorageType   = storage.HybridStorageType
)

var (
	ErrUnsupportedSyntax       = types.ErrUnsupportedSyntax
	ErrMalformedStatement      = types.ErrMalformedStatement
	ErrMissingRequiredArgument = types.ErrMissingRequiredArgument
	ErrTableNotFound           = types.ErrTableNotFound
	ErrTableExists             = types.ErrTableExists
	ErrReadOnly                = types.ErrReadOnly
)

// Lit builds an equality condition from a string or number.
func Lit(v interface{}) Literal { return types.Lit(v) }

// Cmp builds an operator condition.
func Cmp(op Operator, v interface{}) Comparison { return types.Cmp(op, v) }

// IntPtr is a helper for SelectOptions.Limit and Offset.
func IntPtr(n int) *int { return types.IntPtr(n) }

// Translate parses one statement into a Command.
func Translate(text string) (Command, error) { return parser.Translate(text) }

// Coerce turns a raw cell into a comparable value; isDate selects date parsing.
func Coerce(raw string, isDate bool) Value { return eval.Coerce(raw, isDate) }

// Matches reports whether row satisfies every condition of filter.
func Matches(row Row, filter Filter) bool { return eval.Matches(row, filter) }

// Sort returns rows ordered by the keys; ties keep their input order.
func Sort(rows []Row, orderBy []OrderKey) []Row { return eval.Sort(rows, orderBy) }

// Project narrows rows to the given fields.
func Project(rows []Row, fields []string) []Row { return eval.Project(rows, fields) }

// DB is a row store with tables bound by name
type DB struct {
	store  RowStore
	logger *types.Logger
}

// Open opens a store from its configuration.
func Open(config StorageConfig) (*DB, error) {
	store, err := storage.NewStorage(config)
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

// New wraps an existing store.
func New(store RowStore) *DB {
	return &DB{store: store, logger: types.GlobalLogger}
}

// Store returns the underlying row store.
func (db *DB) Store() RowStore {
	return db.store
}

// Table binds a table. Required columns must be filled by inserts and cannot
// be blanked by updates.
func (db *DB) Table(name string, required ...string) *Table {
	return &Table{
		planner: planner.NewPlanner(db.store, name, planner.WithRequired(required...), planner.WithLogger(db.logger)),
	}
}

// Exec runs a statement against the table it names. Required columns apply
// as in Table.
func (db *DB) Exec(ctx context.Context, sql string, required ...string) (interface{}, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	if _, ok := stmt.Command.(GetTablesCommand); !ok && stmt.Table == "" {
		return nil, fmt.Errorf("%w: %s needs a bound table, use Table(name).Query", ErrMissingRequiredArgument, stmt.Command.Kind())
	}
	return db.Table(stmt.Table, required...).Execute(ctx, stmt.Command)
}

// Tables lists every table in the store.
func (db *DB) Tables(ctx context.Context) ([]string, error) {
	return db.store.ListTabs(ctx)
}

// Snapshot writes every table to Parquet files in dir.
func (db *DB) Snapshot(ctx context.Context, dir string) error {
	snap, err := storage.NewParquetStorage(dir)
	if err != nil {
		return err
	}
	return snap.SyncFrom(ctx, db.store)
}

// StartSnapshots snapshots every table to dir on an interval until the
// returned stop function is called.
func (db *DB) StartSnapshots(dir string, interval time.Duration) (stop func(), err error) {
	snap, err := storage.NewParquetStorage(dir)
	if err != nil {
		return nil, err
	}
	snap.SetSource(db.store)
	snap.SetSyncInterval(interval)
	snap.StartSyncWorker()
	return snap.StopSyncWorker, nil
}

// Close closes the store.
func (db *DB) Close() error {
	return db.store.Close()
}

// Table runs commands against one table
type Table struct {
	planner *planner.Planner
}

// Name returns the bound table name.
func (t *Table) Name() string { return t.planner.Table() }

// Query translates and executes a statement. The table named in the
// statement is ignored; the command runs against t.
func (t *Table) Query(ctx context.Context, sql string) (interface{}, error) {
	return t.planner.ExecuteSQL(ctx, sql)
}

// Execute runs a command built in Go.
func (t *Table) Execute(ctx context.Context, cmd Command) (interface{}, error) {
	return t.planner.Execute(ctx, cmd)
}

func (t *Table) Create(ctx context.Context, columns ...string) error {
	return t.planner.CreateTable(ctx, columns)
}

func (t *Table) Drop(ctx context.Context) error {
	return t.planner.DropTable(ctx)
}

func (t *Table) Truncate(ctx context.Context) error {
	return t.planner.TruncateTable(ctx)
}

func (t *Table) Insert(ctx context.Context, obj map[string]string) (Row, error) {
	return t.planner.InsertOne(ctx, obj)
}

func (t *Table) InsertMany(ctx context.Context, objs []map[string]string) ([]Row, error) {
	return t.planner.InsertMany(ctx, objs)
}

// InsertAt inserts obj at a row position (2 is the first data row).
func (t *Table) InsertAt(ctx context.Context, position int, obj map[string]string) (Row, error) {
	return t.planner.InsertAt(ctx, position, obj)
}

func (t *Table) Select(ctx context.Context, where Filter, opts SelectOptions) ([]Row, error) {
	return t.planner.Select(ctx, where, opts)
}

func (t *Table) Update(ctx context.Context, where Filter, newData map[string]string) (int, error) {
	return t.planner.Update(ctx, where, newData)
}

func (t *Table) Delete(ctx context.Context, where Filter) (int, error) {
	return t.planner.Delete(ctx, where)
}

func (t *Table) Detail(ctx context.Context) (*TableDetail, error) {
	return t.planner.ShowTableDetail(ctx)
}
