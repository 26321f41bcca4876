package storage

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

const parquetExt = ".parquet"

// ParquetRow is one grid row of a tab as stored in a snapshot file
type ParquetRow struct {
	TableName string `parquet:"name=table_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Position  int64  `parquet:"name=position, type=INT64"`
	DataJSON  string `parquet:"name=data_json, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Tab names may contain characters that are not valid in file names.
func snapshotFile(dir, table string) string {
	return filepath.Join(dir, url.PathEscape(table)+parquetExt)
}

func tableFromFile(name string) (string, bool) {
	if !strings.HasSuffix(name, parquetExt) {
		return "", false
	}
	table, err := url.PathUnescape(strings.TrimSuffix(name, parquetExt))
	if err != nil {
		return "", false
	}
	return table, true
}

// readGrid reads a tab's snapshot file back into a grid. Gaps between stored
// positions come back as empty rows.
func readGrid(path, table string) ([][]string, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ParquetRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet reader: %w", err)
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	if numRows == 0 {
		return [][]string{}, nil
	}

	parquetRows := make([]ParquetRow, numRows)
	if err := pr.Read(&parquetRows); err != nil {
		return nil, fmt.Errorf("failed to read Parquet rows: %w", err)
	}
	sort.SliceStable(parquetRows, func(i, j int) bool {
		return parquetRows[i].Position < parquetRows[j].Position
	})

	var grid [][]string
	for _, prow := range parquetRows {
		if prow.TableName != table || prow.Position < 1 {
			continue
		}
		var cells []string
		if err := json.Unmarshal([]byte(prow.DataJSON), &cells); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row %d: %w", prow.Position, err)
		}
		for int64(len(grid)) < prow.Position-1 {
			grid = append(grid, []string{})
		}
		if int64(len(grid)) == prow.Position-1 {
			grid = append(grid, cells)
		} else {
			grid[prow.Position-1] = cells
		}
	}
	return grid, nil
}

// listSnapshotTabs returns the tabs that have a snapshot file in dir, sorted by name.
func listSnapshotTabs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var tabs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if table, ok := tableFromFile(entry.Name()); ok {
			tabs = append(tabs, table)
		}
	}
	sort.Strings(tabs)
	return tabs, nil
}
