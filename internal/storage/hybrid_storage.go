package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zakazai/sheetql/internal/types"
)

var errHybridClosed = errors.New("hybrid storage is closed")

// HybridStorage pairs a writable primary store with a Parquet snapshot of it.
// Every RowStore call goes to the primary, so reads always see the latest
// writes. Mutations mark the store dirty and the snapshot worker exports
// only when something changed.
type HybridStorage struct {
	// primary holds the authoritative grids and takes every read and write.
	primary RowStore

	// snapshot is the read-only Parquet copy refreshed from primary.
	snapshot *ParquetStorage

	mu       sync.Mutex
	dirty    bool
	closed   bool
	syncTime time.Time
	logger   *types.Logger

	// done stops the worker; stopped is closed once it has returned.
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewHybridStorage snapshots primary into snapshotDir every interval.
// A non-positive interval disables the background worker; SyncNow and Close
// still export.
func NewHybridStorage(primary RowStore, snapshotDir string, interval time.Duration) (*HybridStorage, error) {
	snapshot, err := NewParquetStorage(snapshotDir)
	if err != nil {
		return nil, err
	}
	s := &HybridStorage{
		primary:  primary,
		snapshot: snapshot,
		dirty:    true,
		logger:   types.GlobalLogger,
	}
	if interval > 0 {
		s.done = make(chan struct{})
		s.stopped = make(chan struct{})
		go s.syncLoop(interval, s.done, s.stopped)
	}
	return s, nil
}

func (s *HybridStorage) syncLoop(interval time.Duration, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.SyncNow(context.Background()); err != nil {
				s.logger.Warning("hybrid snapshot failed: %v", err)
			}
		case <-done:
			return
		}
	}
}

func (s *HybridStorage) markDirty(err error) error {
	if err == nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	}
	return err
}

// SyncNow exports the primary to the snapshot directory if it changed since
// the last export.
func (s *HybridStorage) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errHybridClosed
	}
	if !s.dirty {
		return nil
	}
	if err := s.snapshot.SyncFrom(ctx, s.primary); err != nil {
		return err
	}
	s.dirty = false
	s.syncTime = time.Now()
	return nil
}

// GetLastSyncTime returns the time of the last export
func (s *HybridStorage) GetLastSyncTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncTime
}

// Primary returns the writable store
func (s *HybridStorage) Primary() RowStore {
	return s.primary
}

// Snapshot returns the read-only Parquet view
func (s *HybridStorage) Snapshot() *ParquetStorage {
	return s.snapshot
}

func (s *HybridStorage) ReadAll(ctx context.Context, table string) ([]types.Row, error) {
	return s.primary.ReadAll(ctx, table)
}

func (s *HybridStorage) ReadHeader(ctx context.Context, table string) ([]string, error) {
	return s.primary.ReadHeader(ctx, table)
}

func (s *HybridStorage) WriteRange(ctx context.Context, table string, position int, values []string) error {
	return s.markDirty(s.primary.WriteRange(ctx, table, position, values))
}

func (s *HybridStorage) AppendRows(ctx context.Context, table string, values [][]string) error {
	return s.markDirty(s.primary.AppendRows(ctx, table, values))
}

func (s *HybridStorage) ClearRange(ctx context.Context, table string, position int) error {
	return s.markDirty(s.primary.ClearRange(ctx, table, position))
}

func (s *HybridStorage) InsertRowAt(ctx context.Context, table string, position int) error {
	return s.markDirty(s.primary.InsertRowAt(ctx, table, position))
}

func (s *HybridStorage) DeleteTab(ctx context.Context, table string) error {
	return s.markDirty(s.primary.DeleteTab(ctx, table))
}

func (s *HybridStorage) CreateTab(ctx context.Context, table string) error {
	return s.markDirty(s.primary.CreateTab(ctx, table))
}

func (s *HybridStorage) ListTabs(ctx context.Context) ([]string, error) {
	return s.primary.ListTabs(ctx)
}

// SheetID delegates to the primary when it assigns identifiers.
func (s *HybridStorage) SheetID(ctx context.Context, table string) (string, error) {
	if ids, ok := s.primary.(SheetIdentifier); ok {
		return ids.SheetID(ctx, table)
	}
	return "", nil
}

// Close waits for an in-flight snapshot, writes a final one and closes both
// stores. Later calls return the first result.
func (s *HybridStorage) Close() error {
	s.closeOnce.Do(func() {
		if s.done != nil {
			close(s.done)
			<-s.stopped
		}

		syncErr := s.SyncNow(context.Background())
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		primaryErr := s.primary.Close()
		snapshotErr := s.snapshot.Close()

		switch {
		case syncErr != nil:
			s.closeErr = fmt.Errorf("final snapshot: %w", syncErr)
		case primaryErr != nil:
			s.closeErr = primaryErr
		default:
			s.closeErr = snapshotErr
		}
	})
	return s.closeErr
}
