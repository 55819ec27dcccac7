// Package storage provides the storage interface and implementations.
package storage

import (
	"github.com/tokengate/tokengate/internal/storage/models"
	"github.com/tokengate/tokengate/internal/storage/sqlite"
)

// Allocation re-exports the model type for convenience.
type Allocation = models.Allocation

// Re-export errors from the sqlite package.
var (
	ErrNotFound      = sqlite.ErrNotFound
	ErrDuplicateKey  = sqlite.ErrDuplicateKey
	ErrInvalidInput  = sqlite.ErrInvalidInput
	ErrStorageClosed = sqlite.ErrStorageClosed
)

// Storage defines the interface for persistent allocation data.
type Storage interface {
	// Allocation operations
	CreateAllocation(alloc *models.Allocation) error
	GetAllocation(id string) (*models.Allocation, error)
	GetAllocationsByPrefix(prefix string) ([]*models.Allocation, error)
	ListAllocations() ([]*models.Allocation, error)
	UpdateAllocation(alloc *models.Allocation) error

	// IncrementTokensUsed adds tokens to an allocation's running total and
	// returns the fresh total after the write.
	// TokensUsed is monotonically non-decreasing; there is no decrement.
	IncrementTokensUsed(id string, tokens int64) (int64, error)

	// Admin password operations
	GetAdminPasswordHash() (string, error)
	SetAdminPasswordHash(hash string) error
	HasAdminPassword() (bool, error)

	// Maintenance operations
	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance.
// This is the main factory function for creating storage.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}
