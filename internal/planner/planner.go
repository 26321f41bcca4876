// Package planner dispatches translated commands against a RowStore.
//
// Every operation is at most one read followed by in-memory evaluation and
// zero or more writes. Update writes rows back by the positions read at the
// start of the call; a concurrent writer that moves rows in between can make
// those positions stale. Callers that share a tab between writers must
// serialize them.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zakazai/sheetql/internal/eval"
	"github.com/zakazai/sheetql/internal/parser"
	"github.com/zakazai/sheetql/internal/storage"
	"github.com/zakazai/sheetql/internal/types"
)

// Planner executes commands against one tab of a store
type Planner struct {
	store    storage.RowStore
	table    string
	required []string
	logger   *types.Logger
}

// Option configures a Planner
type Option func(*Planner)

// WithRequired declares columns that inserts must fill and updates must not blank.
func WithRequired(columns ...string) Option {
	return func(p *Planner) {
		p.required = append(p.required, columns...)
	}
}

// WithLogger replaces the global logger
func WithLogger(logger *types.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a planner bound to table
func NewPlanner(store storage.RowStore, table string, opts ...Option) *Planner {
	p := &Planner{
		store:  store,
		table:  table,
		logger: types.GlobalLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Table returns the tab the planner is bound to
func (p *Planner) Table() string {
	return p.table
}

// ExecuteSQL translates a statement and executes it
func (p *Planner) ExecuteSQL(ctx context.Context, sql string) (interface{}, error) {
	cmd, err := parser.Translate(sql)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, cmd)
}

// Execute runs a command. Results by kind: select returns []types.Row,
// insertOne types.Row, update and delete the number of affected rows,
// getTables []string, showTableDetail *types.TableDetail, the rest nil.
func (p *Planner) Execute(ctx context.Context, cmd types.Command) (interface{}, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", types.ErrMissingRequiredArgument)
	}
	p.logger.Debug("dispatching %s on %s", cmd.Kind(), p.table)

	switch c := cmd.(type) {
	case types.CreateTableCommand:
		return nil, p.CreateTable(ctx, c.Columns)
	case types.DropTableCommand:
		return nil, p.DropTable(ctx)
	case types.TruncateTableCommand:
		return nil, p.TruncateTable(ctx)
	case types.InsertOneCommand:
		return p.InsertOne(ctx, c.Obj)
	case types.SelectCommand:
		return p.Select(ctx, c.Where, c.Options)
	case types.UpdateCommand:
		return p.Update(ctx, c.Where, c.NewData)
	case types.DeleteCommand:
		return p.Delete(ctx, c.Where)
	case types.GetTablesCommand:
		return p.GetTables(ctx)
	case types.ShowTableDetailCommand:
		return p.ShowTableDetail(ctx)
	default:
		return nil, fmt.Errorf("%w: command %T", types.ErrUnsupportedSyntax, cmd)
	}
}

// CreateTable creates the tab if needed and writes its header row.
func (p *Planner) CreateTable(ctx context.Context, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: columns", types.ErrMissingRequiredArgument)
	}
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col == "" {
			return fmt.Errorf("%w: empty column name", types.ErrMalformedStatement)
		}
		if seen[col] {
			return fmt.Errorf("%w: duplicate column name: %s", types.ErrMalformedStatement, col)
		}
		seen[col] = true
	}

	if err := p.store.CreateTab(ctx, p.table); err != nil {
		if !errors.Is(err, types.ErrTableExists) {
			return err
		}
		p.logger.Debug("tab %s exists, rewriting its header", p.table)
	}
	if err := p.store.WriteRange(ctx, p.table, types.HeaderPosition, columns); err != nil {
		return err
	}
	p.logger.Info("created table %s (%s)", p.table, strings.Join(columns, ", "))
	return nil
}

// DropTable deletes the tab
func (p *Planner) DropTable(ctx context.Context) error {
	if err := p.store.DeleteTab(ctx, p.table); err != nil {
		return err
	}
	p.logger.Info("dropped table %s", p.table)
	return nil
}

// TruncateTable clears every row below the header
func (p *Planner) TruncateTable(ctx context.Context) error {
	if err := p.store.ClearRange(ctx, p.table, types.HeaderPosition+1); err != nil {
		return err
	}
	p.logger.Info("truncated table %s", p.table)
	return nil
}

func (p *Planner) validateRecord(obj map[string]string) error {
	if len(obj) == 0 {
		return fmt.Errorf("%w: record has no values", types.ErrMissingRequiredArgument)
	}
	for _, col := range p.required {
		if strings.TrimSpace(obj[col]) == "" {
			return fmt.Errorf("%w: %s", types.ErrMissingRequiredArgument, col)
		}
	}
	return nil
}

func (p *Planner) header(ctx context.Context) (types.Schema, error) {
	header, err := p.store.ReadHeader(ctx, p.table)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("table %s has no header row", p.table)
	}
	return header, nil
}

// toRow lays a record out against the header. Keys outside the header are dropped.
func (p *Planner) toRow(header types.Schema, obj map[string]string) types.Row {
	row := types.NewRow(0, header, nil)
	for k, v := range obj {
		if header.Index(k) < 0 {
			p.logger.Debug("ignoring column %s not in %s", k, p.table)
			continue
		}
		row.Values[k] = v
	}
	return row
}

// InsertOne appends a record below the last row
func (p *Planner) InsertOne(ctx context.Context, obj map[string]string) (types.Row, error) {
	rows, err := p.InsertMany(ctx, []map[string]string{obj})
	if err != nil {
		return types.Row{}, err
	}
	return rows[0], nil
}

// InsertMany appends records in one write. Nothing is written if any record is invalid.
func (p *Planner) InsertMany(ctx context.Context, objs []map[string]string) ([]types.Row, error) {
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: no records", types.ErrMissingRequiredArgument)
	}
	for _, obj := range objs {
		if err := p.validateRecord(obj); err != nil {
			return nil, err
		}
	}
	header, err := p.header(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]types.Row, len(objs))
	cells := make([][]string, len(objs))
	for i, obj := range objs {
		rows[i] = p.toRow(header, obj)
		cells[i] = rows[i].Cells(header)
	}
	if err := p.store.AppendRows(ctx, p.table, cells); err != nil {
		return nil, err
	}
	p.logger.Info("inserted %d rows into %s", len(rows), p.table)
	return rows, nil
}

// InsertAt inserts a record at a data position, shifting the rows below it down.
func (p *Planner) InsertAt(ctx context.Context, position int, obj map[string]string) (types.Row, error) {
	if position <= types.HeaderPosition {
		return types.Row{}, fmt.Errorf("%w: position %d is not a data row", types.ErrMalformedStatement, position)
	}
	if err := p.validateRecord(obj); err != nil {
		return types.Row{}, err
	}
	header, err := p.header(ctx)
	if err != nil {
		return types.Row{}, err
	}

	row := p.toRow(header, obj)
	row.ID = position
	if err := p.store.InsertRowAt(ctx, p.table, position); err != nil {
		return types.Row{}, err
	}
	if err := p.store.WriteRange(ctx, p.table, position, row.Cells(header)); err != nil {
		return types.Row{}, err
	}
	p.logger.Info("inserted row at %d in %s", position, p.table)
	return row, nil
}

// Select filters, orders, pages and projects the rows of the tab
func (p *Planner) Select(ctx context.Context, where types.Filter, opts types.SelectOptions) ([]types.Row, error) {
	rows, err := p.store.ReadAll(ctx, p.table)
	if err != nil {
		return nil, err
	}
	rows = eval.Apply(rows, where)
	rows = eval.Sort(rows, opts.OrderBy)
	rows = eval.Paginate(rows, opts.Limit, opts.Offset)
	return eval.Project(rows, opts.SelectFields), nil
}

// Update merges newData into every matching row and writes each one back at
// its position. It returns the number of rows written.
func (p *Planner) Update(ctx context.Context, where types.Filter, newData map[string]string) (int, error) {
	if len(newData) == 0 {
		return 0, fmt.Errorf("%w: no values to set", types.ErrMissingRequiredArgument)
	}
	for _, col := range p.required {
		if v, ok := newData[col]; ok && strings.TrimSpace(v) == "" {
			return 0, fmt.Errorf("%w: %s cannot be blank", types.ErrMissingRequiredArgument, col)
		}
	}

	rows, err := p.store.ReadAll(ctx, p.table)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range eval.Apply(rows, where) {
		header := types.Schema(row.Columns)
		for k, v := range newData {
			if header.Index(k) >= 0 {
				row.Values[k] = v
			}
		}
		if err := p.store.WriteRange(ctx, p.table, row.ID, row.Cells(header)); err != nil {
			return updated, fmt.Errorf("update row %d: %w", row.ID, err)
		}
		updated++
	}
	p.logger.Info("updated %d rows in %s", updated, p.table)
	return updated, nil
}

// Delete removes matching rows by rewriting the rows that remain. It returns
// the number of rows removed.
func (p *Planner) Delete(ctx context.Context, where types.Filter) (int, error) {
	rows, err := p.store.ReadAll(ctx, p.table)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	header := types.Schema(rows[0].Columns)
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !eval.Matches(row, where) {
			kept = append(kept, row.Cells(header))
		}
	}
	deleted := len(rows) - len(kept)
	if deleted == 0 {
		return 0, nil
	}

	if err := p.store.ClearRange(ctx, p.table, types.HeaderPosition+1); err != nil {
		return 0, err
	}
	if len(kept) > 0 {
		if err := p.store.AppendRows(ctx, p.table, kept); err != nil {
			return 0, fmt.Errorf("rewrite remaining rows: %w", err)
		}
	}
	p.logger.Info("deleted %d rows from %s", deleted, p.table)
	return deleted, nil
}

// GetTables lists every tab in the store
func (p *Planner) GetTables(ctx context.Context) ([]string, error) {
	return p.store.ListTabs(ctx)
}

// ShowTableDetail describes the bound tab
func (p *Planner) ShowTableDetail(ctx context.Context) (*types.TableDetail, error) {
	header, err := p.store.ReadHeader(ctx, p.table)
	if err != nil {
		return nil, err
	}
	rows, err := p.store.ReadAll(ctx, p.table)
	if err != nil {
		return nil, err
	}

	detail := &types.TableDetail{
		Name:     p.table,
		Columns:  header,
		RowCount: len(rows),
	}
	if ids, ok := p.store.(storage.SheetIdentifier); ok {
		if detail.SheetID, err = ids.SheetID(ctx, p.table); err != nil {
			return nil, err
		}
	}
	return detail, nil
}
