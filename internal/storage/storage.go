package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/zakazai/sheetql/internal/types"
)

// RowStore is the tabular backend sheetql reads and writes. Tabs are grids of
// text cells addressed by 1-based row position; position 1 holds the header.
type RowStore interface {
	// ReadAll returns every data row keyed by the header, padded with "" and
	// carrying its position as ID.
	ReadAll(ctx context.Context, table string) ([]types.Row, error)
	ReadHeader(ctx context.Context, table string) ([]string, error)
	// WriteRange replaces the row at position, growing the tab if needed.
	WriteRange(ctx context.Context, table string, position int, values []string) error
	AppendRows(ctx context.Context, table string, values [][]string) error
	// ClearRange clears the rows from position to the end of the tab.
	ClearRange(ctx context.Context, table string, position int) error
	// InsertRowAt inserts an empty row at position, shifting the rows below down.
	InsertRowAt(ctx context.Context, table string, position int) error
	DeleteTab(ctx context.Context, table string) error
	CreateTab(ctx context.Context, table string) error
	ListTabs(ctx context.Context) ([]string, error)
	Close() error
}

// SheetIdentifier is implemented by stores that give tabs a stable id.
type SheetIdentifier interface {
	SheetID(ctx context.Context, table string) (string, error)
}

// Tab is one named grid of cells
type Tab struct {
	Name    string
	SheetID string
	Grid    [][]string
}

func (t *Tab) header() []string {
	if len(t.Grid) == 0 {
		return []string{}
	}
	return append([]string(nil), t.Grid[0]...)
}

func (t *Tab) rows() []types.Row {
	if len(t.Grid) < 2 {
		return []types.Row{}
	}
	header := types.Schema(t.Grid[0])
	rows := make([]types.Row, 0, len(t.Grid)-1)
	for i := 1; i < len(t.Grid); i++ {
		rows = append(rows, types.NewRow(i+1, header, t.Grid[i]))
	}
	return rows
}

// Database represents every tab of a spreadsheet
type Database struct {
	Tabs  map[string]*Tab
	order []string
	mu    sync.RWMutex
}

// InMemoryStorage implements RowStore on in-memory grids
type InMemoryStorage struct {
	db *Database
}

// NewInMemoryStorage creates a new in-memory storage
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		db: &Database{
			Tabs: make(map[string]*Tab),
		},
	}
}

func validPosition(position int) error {
	if position < types.HeaderPosition {
		return fmt.Errorf("invalid row position %d", position)
	}
	return nil
}

// tab must be called with the lock held.
func (s *InMemoryStorage) tab(name string) (*Tab, error) {
	t, ok := s.db.Tabs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, name)
	}
	return t, nil
}

func (s *InMemoryStorage) ReadAll(ctx context.Context, table string) ([]types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, err := s.tab(table)
	if err != nil {
		return nil, err
	}
	return t.rows(), nil
}

func (s *InMemoryStorage) ReadHeader(ctx context.Context, table string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, err := s.tab(table)
	if err != nil {
		return nil, err
	}
	return t.header(), nil
}

func (s *InMemoryStorage) WriteRange(ctx context.Context, table string, position int, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validPosition(position); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, err := s.tab(table)
	if err != nil {
		return err
	}
	for len(t.Grid) < position {
		t.Grid = append(t.Grid, []string{})
	}
	t.Grid[position-1] = append([]string(nil), values...)
	return nil
}

func (s *InMemoryStorage) AppendRows(ctx context.Context, table string, values [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, err := s.tab(table)
	if err != nil {
		return err
	}
	for _, row := range values {
		t.Grid = append(t.Grid, append([]string(nil), row...))
	}
	return nil
}

func (s *InMemoryStorage) ClearRange(ctx context.Context, table string, position int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validPosition(position); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, err := s.tab(table)
	if err != nil {
		return err
	}
	if position-1 < len(t.Grid) {
		t.Grid = t.Grid[:position-1]
	}
	return nil
}

func (s *InMemoryStorage) InsertRowAt(ctx context.Context, table string, position int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validPosition(position); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, err := s.tab(table)
	if err != nil {
		return err
	}
	for len(t.Grid) < position-1 {
		t.Grid = append(t.Grid, []string{})
	}
	t.Grid = append(t.Grid, nil)
	copy(t.Grid[position:], t.Grid[position-1:])
	t.Grid[position-1] = []string{}
	return nil
}

func (s *InMemoryStorage) DeleteTab(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, err := s.tab(table); err != nil {
		return err
	}
	delete(s.db.Tabs, table)
	for i, name := range s.db.order {
		if name == table {
			s.db.order = append(s.db.order[:i], s.db.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStorage) CreateTab(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table == "" {
		return fmt.Errorf("%w: tab name", types.ErrMissingRequiredArgument)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return s.addTab(&Tab{Name: table, SheetID: uuid.NewString()})
}

// addTab must be called with the lock held.
func (s *InMemoryStorage) addTab(t *Tab) error {
	if _, exists := s.db.Tabs[t.Name]; exists {
		return fmt.Errorf("%w: %s", types.ErrTableExists, t.Name)
	}
	s.db.Tabs[t.Name] = t
	s.db.order = append(s.db.order, t.Name)
	return nil
}

// ListTabs returns tab names in creation order.
func (s *InMemoryStorage) ListTabs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return append([]string{}, s.db.order...), nil
}

func (s *InMemoryStorage) SheetID(ctx context.Context, table string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t, err := s.tab(table)
	if err != nil {
		return "", err
	}
	return t.SheetID, nil
}

func (s *InMemoryStorage) Close() error {
	return nil
}

// JSONStorage implements RowStore on top of InMemoryStorage, rewriting a JSON
// file after every mutation
type JSONStorage struct {
	*InMemoryStorage
	filePath string
}

// NewJSONStorage opens or creates a JSON file storage
func NewJSONStorage(filePath string) (*JSONStorage, error) {
	storage := &JSONStorage{
		InMemoryStorage: NewInMemoryStorage(),
		filePath:        filePath,
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := storage.save(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := storage.load(); err != nil {
		return nil, err
	}

	return storage, nil
}

type jsonTab struct {
	Name    string     `json:"name"`
	SheetID string     `json:"sheet_id"`
	Rows    [][]string `json:"rows"`
}

type jsonDatabase struct {
	Tabs []jsonTab `json:"tabs"`
}

func (s *JSONStorage) save() error {
	s.db.mu.RLock()
	doc := jsonDatabase{Tabs: make([]jsonTab, 0, len(s.db.order))}
	for _, name := range s.db.order {
		t := s.db.Tabs[name]
		rows := t.Grid
		if rows == nil {
			rows = [][]string{}
		}
		doc.Tabs = append(doc.Tabs, jsonTab{Name: t.Name, SheetID: t.SheetID, Rows: rows})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.db.mu.RUnlock()
	if err != nil {
		return err
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

func (s *JSONStorage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.Tabs = make(map[string]*Tab)
	s.db.order = nil
	if len(data) == 0 {
		return nil
	}

	var doc jsonDatabase
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.filePath, err)
	}
	for _, jt := range doc.Tabs {
		id := jt.SheetID
		if id == "" {
			id = uuid.NewString()
		}
		if err := s.addTab(&Tab{Name: jt.Name, SheetID: id, Grid: jt.Rows}); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONStorage) WriteRange(ctx context.Context, table string, position int, values []string) error {
	if err := s.InMemoryStorage.WriteRange(ctx, table, position, values); err != nil {
		return err
	}
	return s.save()
}

func (s *JSONStorage) AppendRows(ctx context.Context, table string, values [][]string) error {
	if err := s.InMemoryStorage.AppendRows(ctx, table, values); err != nil {
		return err
	}
	return s.save()
}

func (s *JSONStorage) ClearRange(ctx context.Context, table string, position int) error {
	if err := s.InMemoryStorage.ClearRange(ctx, table, position); err != nil {
		return err
	}
	return s.save()
}

func (s *JSONStorage) InsertRowAt(ctx context.Context, table string, position int) error {
	if err := s.InMemoryStorage.InsertRowAt(ctx, table, position); err != nil {
		return err
	}
	return s.save()
}

func (s *JSONStorage) DeleteTab(ctx context.Context, table string) error {
	if err := s.InMemoryStorage.DeleteTab(ctx, table); err != nil {
		return err
	}
	return s.save()
}

func (s *JSONStorage) CreateTab(ctx context.Context, table string) error {
	if err := s.InMemoryStorage.CreateTab(ctx, table); err != nil {
		return err
	}
	return s.save()
}

func (s *JSONStorage) Close() error {
	return s.save()
}
