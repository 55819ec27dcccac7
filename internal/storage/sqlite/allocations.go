package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tokengate/tokengate/internal/storage/models"
)

// allocColumns is the scan order shared by all allocation queries.
const allocColumns = `id, key_prefix, key_hash, wp_user_id, total_tokens_allocated,
	tokens_used, is_active, last_sync_with_wp, created_at, updated_at`

// CreateAllocation inserts a new allocation row, generating its ID.
func (s *Storage) CreateAllocation(alloc *models.Allocation) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if alloc.KeyPrefix == "" || alloc.KeyHash == "" {
		return fmt.Errorf("%w: key prefix and hash are required", ErrInvalidInput)
	}
	if alloc.WPUserID <= 0 {
		return fmt.Errorf("%w: wp_user_id must be positive", ErrInvalidInput)
	}

	if alloc.ID == "" {
		alloc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	alloc.CreatedAt = now
	alloc.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO allocations (id, key_prefix, key_hash, wp_user_id,
			total_tokens_allocated, tokens_used, is_active, last_sync_with_wp,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alloc.ID, alloc.KeyPrefix, alloc.KeyHash, alloc.WPUserID,
		alloc.TotalTokensAllocated, alloc.TokensUsed, boolToInt(alloc.IsActive),
		alloc.LastSyncWithWP, alloc.CreatedAt, alloc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create allocation: %w", err)
	}
	return nil
}

// GetAllocation retrieves an allocation by ID.
func (s *Storage) GetAllocation(id string) (*models.Allocation, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(
		`SELECT `+allocColumns+` FROM allocations WHERE id = ?`, id)
	return scanAllocation(row)
}

// GetAllocationsByPrefix returns all allocations whose key prefix matches.
// Multiple matches are possible; callers verify the full key hash.
func (s *Storage) GetAllocationsByPrefix(prefix string) ([]*models.Allocation, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT `+allocColumns+` FROM allocations WHERE key_prefix = ?`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	return collectAllocations(rows)
}

// ListAllocations returns all allocations, newest first.
func (s *Storage) ListAllocations() ([]*models.Allocation, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT ` + allocColumns + ` FROM allocations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	return collectAllocations(rows)
}

// UpdateAllocation updates the mutable fields of an allocation.
func (s *Storage) UpdateAllocation(alloc *models.Allocation) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE allocations
		SET total_tokens_allocated = ?, is_active = ?, last_sync_with_wp = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		alloc.TotalTokensAllocated, boolToInt(alloc.IsActive),
		alloc.LastSyncWithWP, alloc.ID)
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	return requireRowAffected(result)
}

// IncrementTokensUsed adds tokens to the allocation's running total and
// returns the fresh total, so callers never reason from a stale snapshot.
// The column only ever grows; negative increments are rejected.
func (s *Storage) IncrementTokensUsed(id string, tokens int64) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if tokens < 0 {
		return 0, fmt.Errorf("%w: tokens must be non-negative", ErrInvalidInput)
	}

	var total int64
	err := s.db.QueryRow(`
		UPDATE allocations
		SET tokens_used = tokens_used + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING tokens_used`,
		tokens, id).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment tokens used: %w", err)
	}
	return total, nil
}

// scanAllocation reads one allocation from a row scanner.
func scanAllocation(row *sql.Row) (*models.Allocation, error) {
	var alloc models.Allocation
	var isActive int
	err := row.Scan(&alloc.ID, &alloc.KeyPrefix, &alloc.KeyHash, &alloc.WPUserID,
		&alloc.TotalTokensAllocated, &alloc.TokensUsed, &isActive,
		&alloc.LastSyncWithWP, &alloc.CreatedAt, &alloc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan allocation: %w", err)
	}
	alloc.IsActive = isActive != 0
	return &alloc, nil
}

// collectAllocations reads all allocations from a result set.
func collectAllocations(rows *sql.Rows) ([]*models.Allocation, error) {
	var allocs []*models.Allocation
	for rows.Next() {
		var alloc models.Allocation
		var isActive int
		err := rows.Scan(&alloc.ID, &alloc.KeyPrefix, &alloc.KeyHash, &alloc.WPUserID,
			&alloc.TotalTokensAllocated, &alloc.TokensUsed, &isActive,
			&alloc.LastSyncWithWP, &alloc.CreatedAt, &alloc.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		alloc.IsActive = isActive != 0
		allocs = append(allocs, &alloc)
	}
	return allocs, rows.Err()
}

// requireRowAffected maps a zero-row update to ErrNotFound.
func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
