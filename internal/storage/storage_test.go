package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zakazai/sheetql/internal/storage"
	"github.com/zakazai/sheetql/internal/types"
)

func seed(t *testing.T, s storage.RowStore, table string, header []string, rows ...[]string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateTab(ctx, table))
	require.NoError(t, s.WriteRange(ctx, table, types.HeaderPosition, header))
	if len(rows) > 0 {
		require.NoError(t, s.AppendRows(ctx, table, rows))
	}
}

func ids(rows []types.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestInMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := storage.NewInMemoryStorage()

	seed(t, s, "users", []string{"id", "name", "age"},
		[]string{"1", "Alice", "30"},
		[]string{"2", "Bob"},
	)

	// Duplicate tab
	assert.ErrorIs(t, s.CreateTab(ctx, "users"), types.ErrTableExists)

	header, err := s.ReadHeader(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "age"}, header)

	rows, err := s.ReadAll(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids(rows))
	assert.Equal(t, "Alice", rows[0].Values["name"])
	assert.Equal(t, "", rows[1].Values["age"], "short rows are padded")

	// Overwrite a row in place
	require.NoError(t, s.WriteRange(ctx, "users", 3, []string{"2", "Bobby", "41"}))
	rows, err = s.ReadAll(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "Bobby", rows[1].Values["name"])

	// Insert an empty row in the middle
	require.NoError(t, s.InsertRowAt(ctx, "users", 3))
	rows, err = s.ReadAll(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, ids(rows))
	assert.Equal(t, "", rows[1].Values["id"])
	assert.Equal(t, "Bobby", rows[2].Values["name"])

	// Clear everything below the header
	require.NoError(t, s.ClearRange(ctx, "users", 2))
	rows, err = s.ReadAll(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, rows)
	header, err = s.ReadHeader(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "age"}, header)

	tabs, err := s.ListTabs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tabs)

	require.NoError(t, s.DeleteTab(ctx, "users"))
	_, err = s.ReadAll(ctx, "users")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestStorageEdgeCases(t *testing.T) {
	ctx := context.Background()
	s := storage.NewInMemoryStorage()

	assert.ErrorIs(t, s.AppendRows(ctx, "nope", [][]string{{"x"}}), types.ErrTableNotFound)
	assert.ErrorIs(t, s.DeleteTab(ctx, "nope"), types.ErrTableNotFound)
	assert.ErrorIs(t, s.CreateTab(ctx, ""), types.ErrMissingRequiredArgument)

	require.NoError(t, s.CreateTab(ctx, "t"))
	assert.Error(t, s.WriteRange(ctx, "t", 0, []string{"x"}))
	assert.Error(t, s.ClearRange(ctx, "t", -1))

	// An empty tab has no header and no rows
	header, err := s.ReadHeader(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, header)
	rows, err := s.ReadAll(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Writing past the end grows the tab with empty rows
	require.NoError(t, s.WriteRange(ctx, "t", 1, []string{"a"}))
	require.NoError(t, s.WriteRange(ctx, "t", 4, []string{"z"}))
	rows, err = s.ReadAll(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, ids(rows))
	assert.Equal(t, "z", rows[2].Values["a"])

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.ReadAll(cancelled, "t")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTabOrderAndSheetIDs(t *testing.T) {
	ctx := context.Background()
	s := storage.NewInMemoryStorage()
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, s.CreateTab(ctx, name))
	}
	require.NoError(t, s.DeleteTab(ctx, "a"))

	tabs, err := s.ListTabs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, tabs)

	idB, err := s.SheetID(ctx, "b")
	require.NoError(t, err)
	idC, err := s.SheetID(ctx, "c")
	require.NoError(t, err)
	assert.NotEmpty(t, idB)
	assert.NotEqual(t, idB, idC)
}

func TestJSONStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "db.json")

	s, err := storage.NewJSONStorage(path)
	require.NoError(t, err)
	seed(t, s, "people", []string{"id", "name"}, []string{"1", "Ann"}, []string{"2", "Ben"})
	require.NoError(t, s.WriteRange(ctx, "people", 3, []string{"2", "Benjamin"}))
	sheetID, err := s.SheetID(ctx, "people")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := storage.NewJSONStorage(path)
	require.NoError(t, err)

	rows, err := reopened.ReadAll(ctx, "people")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Benjamin", rows[1].Values["name"])

	reopenedID, err := reopened.SheetID(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, sheetID, reopenedID)

	require.NoError(t, reopened.DeleteTab(ctx, "people"))
	again, err := storage.NewJSONStorage(path)
	require.NoError(t, err)
	tabs, err := again.ListTabs(ctx)
	require.NoError(t, err)
	assert.Empty(t, tabs)
}

func TestNewStorage(t *testing.T) {
	s, err := storage.NewStorage(storage.StorageConfig{Type: storage.InMemoryStorageType})
	require.NoError(t, err)
	assert.IsType(t, &storage.InMemoryStorage{}, s)

	_, err = storage.NewStorage(storage.StorageConfig{Type: storage.JSONStorageType})
	assert.Error(t, err)

	s, err = storage.NewStorage(storage.StorageConfig{
		Type:     storage.JSONStorageType,
		FilePath: filepath.Join(t.TempDir(), "db.json"),
	})
	require.NoError(t, err)
	assert.IsType(t, &storage.JSONStorage{}, s)

	s, err = storage.NewStorage(storage.StorageConfig{Type: storage.ParquetStorageType, FilePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &storage.ParquetStorage{}, s)

	_, err = storage.NewStorage(storage.StorageConfig{Type: storage.HybridStorageType})
	assert.Error(t, err)

	s, err = storage.NewStorage(storage.StorageConfig{Type: storage.HybridStorageType, SnapshotDir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &storage.HybridStorage{}, s)
	assert.IsType(t, &storage.InMemoryStorage{}, s.(*storage.HybridStorage).Primary())
	require.NoError(t, s.Close())

	_, err = storage.NewStorage(storage.StorageConfig{Type: "btree"})
	assert.Error(t, err)
}
