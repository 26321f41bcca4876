package storage

import (
	"fmt"
	"time"
)

type StorageType string

const (
	InMemoryStorageType StorageType = "memory"
	JSONStorageType     StorageType = "json"
	ParquetStorageType  StorageType = "parquet"
	HybridStorageType   StorageType = "hybrid"
)

type StorageConfig struct {
	Type     StorageType
	FilePath string // JSON file, or snapshot directory for parquet

	// Hybrid only. The primary is a JSON store when FilePath is set and an
	// in-memory store otherwise.
	SnapshotDir  string
	SyncInterval time.Duration
}

// NewStorage creates a new storage instance based on the provided configuration.
// A parquet store is a read-only view of a snapshot directory.
func NewStorage(config StorageConfig) (RowStore, error) {
	switch config.Type {
	case InMemoryStorageType, "":
		return NewInMemoryStorage(), nil
	case JSONStorageType:
		if config.FilePath == "" {
			return nil, fmt.Errorf("file path is required for JSON storage")
		}
		return NewJSONStorage(config.FilePath)
	case ParquetStorageType:
		if config.FilePath == "" {
			return nil, fmt.Errorf("snapshot directory is required for Parquet storage")
		}
		return NewParquetStorage(config.FilePath)
	case HybridStorageType:
		if config.SnapshotDir == "" {
			return nil, fmt.Errorf("snapshot directory is required for hybrid storage")
		}
		var primary RowStore = NewInMemoryStorage()
		if config.FilePath != "" {
			js, err := NewJSONStorage(config.FilePath)
			if err != nil {
				return nil, err
			}
			primary = js
		}
		return NewHybridStorage(primary, config.SnapshotDir, config.SyncInterval)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
