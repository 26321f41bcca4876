package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/zakazai/sheetql/internal/types"
)

// ParquetStorage is a read-only RowStore over a directory of Parquet
// snapshots, one file per tab. Snapshots are refreshed from a primary store
// with SyncFrom, either on demand or by the sync worker.
type ParquetStorage struct {
	baseDir      string
	mu           sync.RWMutex
	source       RowStore
	syncWorker   *time.Ticker
	syncInterval time.Duration
	stopSync     chan struct{}
	lastSync     time.Time
	logger       *types.Logger
}

// NewParquetStorage creates a new Parquet snapshot storage rooted at dataDir
func NewParquetStorage(dataDir string) (*ParquetStorage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &ParquetStorage{
		baseDir:      dataDir,
		syncInterval: 5 * time.Minute,
		logger:       types.GlobalLogger,
	}, nil
}

// SetSource sets the store the sync worker copies from
func (s *ParquetStorage) SetSource(src RowStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
}

// SetSyncInterval sets the interval for automatic syncing
func (s *ParquetStorage) SetSyncInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncInterval = interval
	if s.syncWorker != nil && interval > 0 {
		s.syncWorker.Reset(interval)
	}
}

// StartSyncWorker starts a background worker that periodically snapshots the source
func (s *ParquetStorage) StartSyncWorker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopSync != nil {
		return
	}
	if s.syncInterval <= 0 {
		s.syncInterval = 5 * time.Minute
	}

	stop := make(chan struct{})
	ticker := time.NewTicker(s.syncInterval)
	s.stopSync = stop
	s.syncWorker = ticker

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.SyncNow(context.Background()); err != nil {
					s.logger.Warning("parquet sync failed: %v", err)
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()
}

// StopSyncWorker stops the background sync worker
func (s *ParquetStorage) StopSyncWorker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopSync != nil {
		close(s.stopSync)
		s.stopSync = nil
	}
	if s.syncWorker != nil {
		s.syncWorker.Stop()
		s.syncWorker = nil
	}
}

// SyncNow snapshots the configured source
func (s *ParquetStorage) SyncNow(ctx context.Context) error {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()
	if src == nil {
		return fmt.Errorf("no snapshot source configured")
	}
	return s.SyncFrom(ctx, src)
}

// SyncFrom writes a snapshot of every tab in src and removes snapshots of
// tabs src no longer has. A tab that fails to export is logged and skipped.
func (s *ParquetStorage) SyncFrom(ctx context.Context, src RowStore) error {
	tabs, err := src.ListTabs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tabs: %w", err)
	}

	grids := make(map[string][][]string, len(tabs))
	for _, table := range tabs {
		grid, err := readSourceGrid(ctx, src, table)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warning("failed to read tab %s for snapshot: %v", table, err)
			continue
		}
		grids[table] = grid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for table, grid := range grids {
		if err := s.writeParquetFile(table, grid); err != nil {
			s.logger.Warning("failed to write Parquet file for tab %s: %v", table, err)
		}
	}

	existing, err := listSnapshotTabs(s.baseDir)
	if err != nil {
		return err
	}
	for _, table := range existing {
		if _, ok := grids[table]; ok {
			continue
		}
		if err := os.Remove(snapshotFile(s.baseDir, table)); err != nil && !os.IsNotExist(err) {
			s.logger.Warning("failed to remove stale snapshot %s: %v", table, err)
		}
	}

	s.lastSync = time.Now()
	s.logger.Debug("snapshotted %d tabs to %s", len(grids), s.baseDir)
	return nil
}

// readSourceGrid rebuilds a tab's grid from the row-level read API.
func readSourceGrid(ctx context.Context, src RowStore, table string) ([][]string, error) {
	header, err := src.ReadHeader(ctx, table)
	if err != nil {
		return nil, err
	}
	rows, err := src.ReadAll(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 && len(rows) == 0 {
		return [][]string{}, nil
	}

	grid := [][]string{header}
	for _, row := range rows {
		for len(grid) < row.ID-1 {
			grid = append(grid, []string{})
		}
		grid = append(grid, row.Cells(header))
	}
	return grid, nil
}

// writeParquetFile must be called with the lock held. The file is written
// next to its final path and renamed into place.
func (s *ParquetStorage) writeParquetFile(table string, grid [][]string) error {
	path := snapshotFile(s.baseDir, table)
	tmp := path + ".tmp"

	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return err
	}

	pw, err := writer.NewParquetWriter(fw, new(ParquetRow), 4)
	if err != nil {
		fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	records := make([]ParquetRow, 0, len(grid)+1)
	if len(grid) == 0 {
		// Position 0 marks a tab with no rows; readers skip it.
		records = append(records, ParquetRow{TableName: table, DataJSON: "[]"})
	}
	for i, cells := range grid {
		if cells == nil {
			cells = []string{}
		}
		data, err := json.Marshal(cells)
		if err != nil {
			fw.Close()
			return err
		}
		records = append(records, ParquetRow{TableName: table, Position: int64(i + 1), DataJSON: string(data)})
	}

	for i := range records {
		if err := pw.Write(&records[i]); err != nil {
			fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// GetLastSyncTime returns the time of the last sync
func (s *ParquetStorage) GetLastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

func (s *ParquetStorage) grid(ctx context.Context, table string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	grid, err := readGrid(snapshotFile(s.baseDir, table), table)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, table)
		}
		return nil, err
	}
	return grid, nil
}

// ReadAll implements RowStore.ReadAll from the tab's snapshot
func (s *ParquetStorage) ReadAll(ctx context.Context, table string) ([]types.Row, error) {
	grid, err := s.grid(ctx, table)
	if err != nil {
		return nil, err
	}
	t := Tab{Name: table, Grid: grid}
	return t.rows(), nil
}

// ReadHeader implements RowStore.ReadHeader from the tab's snapshot
func (s *ParquetStorage) ReadHeader(ctx context.Context, table string) ([]string, error) {
	grid, err := s.grid(ctx, table)
	if err != nil {
		return nil, err
	}
	t := Tab{Name: table, Grid: grid}
	return t.header(), nil
}

// ListTabs implements RowStore.ListTabs
func (s *ParquetStorage) ListTabs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSnapshotTabs(s.baseDir)
}

func (s *ParquetStorage) WriteRange(ctx context.Context, table string, position int, values []string) error {
	return fmt.Errorf("%w: snapshot writes must go through the primary storage", types.ErrReadOnly)
}

func (s *ParquetStorage) AppendRows(ctx context.Context, table string, values [][]string) error {
	return fmt.Errorf("%w: snapshot writes must go through the primary storage", types.ErrReadOnly)
}

func (s *ParquetStorage) ClearRange(ctx context.Context, table string, position int) error {
	return fmt.Errorf("%w: snapshot writes must go through the primary storage", types.ErrReadOnly)
}

func (s *ParquetStorage) InsertRowAt(ctx context.Context, table string, position int) error {
	return fmt.Errorf("%w: snapshot writes must go through the primary storage", types.ErrReadOnly)
}

func (s *ParquetStorage) DeleteTab(ctx context.Context, table string) error {
	return fmt.Errorf("%w: snapshot writes must go through the primary storage", types.ErrReadOnly)
}

func (s *ParquetStorage) CreateTab(ctx context.Context, table string) error {
	return fmt.Errorf("%w: snapshot writes must go through the primary storage", types.ErrReadOnly)
}

// Close stops the sync worker
func (s *ParquetStorage) Close() error {
	s.StopSyncWorker()
	return nil
}
