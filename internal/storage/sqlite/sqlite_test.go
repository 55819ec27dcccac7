package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tokengate/tokengate/internal/storage/models"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	storage, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func testAllocation(userID int64) *models.Allocation {
	return &models.Allocation{
		KeyPrefix:            "tg_a1B2c3D4",
		KeyHash:              "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		WPUserID:             userID,
		TotalTokensAllocated: 100000,
		IsActive:             true,
	}
}

func TestAllocationCRUD(t *testing.T) {
	storage := setupTestDB(t)

	alloc := testAllocation(42)
	if err := storage.CreateAllocation(alloc); err != nil {
		t.Fatalf("CreateAllocation failed: %v", err)
	}
	if alloc.ID == "" {
		t.Error("expected ID to be generated")
	}

	retrieved, err := storage.GetAllocation(alloc.ID)
	if err != nil {
		t.Fatalf("GetAllocation failed: %v", err)
	}
	if retrieved.WPUserID != 42 {
		t.Errorf("wp_user_id = %d, want 42", retrieved.WPUserID)
	}
	if retrieved.TotalTokensAllocated != 100000 {
		t.Errorf("total allocated = %d, want 100000", retrieved.TotalTokensAllocated)
	}
	if !retrieved.IsActive {
		t.Error("expected allocation to be active")
	}

	retrieved.TotalTokensAllocated = 200000
	retrieved.IsActive = false
	if err := storage.UpdateAllocation(retrieved); err != nil {
		t.Fatalf("UpdateAllocation failed: %v", err)
	}

	updated, err := storage.GetAllocation(alloc.ID)
	if err != nil {
		t.Fatalf("GetAllocation after update failed: %v", err)
	}
	if updated.TotalTokensAllocated != 200000 {
		t.Errorf("total allocated = %d, want 200000", updated.TotalTokensAllocated)
	}
	if updated.IsActive {
		t.Error("expected allocation to be inactive after update")
	}
}

func TestGetAllocationNotFound(t *testing.T) {
	storage := setupTestDB(t)

	_, err := storage.GetAllocation("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllocationsByPrefix(t *testing.T) {
	storage := setupTestDB(t)

	a := testAllocation(1)
	if err := storage.CreateAllocation(a); err != nil {
		t.Fatalf("CreateAllocation failed: %v", err)
	}

	b := testAllocation(2)
	b.KeyPrefix = "tg_zZzZzZzZ"
	if err := storage.CreateAllocation(b); err != nil {
		t.Fatalf("CreateAllocation failed: %v", err)
	}

	matches, err := storage.GetAllocationsByPrefix("tg_a1B2c3D4")
	if err != nil {
		t.Fatalf("GetAllocationsByPrefix failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].WPUserID != 1 {
		t.Errorf("wp_user_id = %d, want 1", matches[0].WPUserID)
	}

	none, err := storage.GetAllocationsByPrefix("tg_nothing1")
	if err != nil {
		t.Fatalf("GetAllocationsByPrefix failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestIncrementTokensUsed(t *testing.T) {
	storage := setupTestDB(t)

	alloc := testAllocation(7)
	if err := storage.CreateAllocation(alloc); err != nil {
		t.Fatalf("CreateAllocation failed: %v", err)
	}

	total, err := storage.IncrementTokensUsed(alloc.ID, 150)
	if err != nil {
		t.Fatalf("IncrementTokensUsed failed: %v", err)
	}
	if total != 150 {
		t.Errorf("fresh total = %d, want 150", total)
	}
	total, err = storage.IncrementTokensUsed(alloc.ID, 50)
	if err != nil {
		t.Fatalf("IncrementTokensUsed failed: %v", err)
	}
	if total != 200 {
		t.Errorf("fresh total = %d, want 200", total)
	}

	retrieved, err := storage.GetAllocation(alloc.ID)
	if err != nil {
		t.Fatalf("GetAllocation failed: %v", err)
	}
	if retrieved.TokensUsed != 200 {
		t.Errorf("tokens_used = %d, want 200", retrieved.TokensUsed)
	}

	if _, err := storage.IncrementTokensUsed(alloc.ID, -5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative increment, got %v", err)
	}
	if _, err := storage.IncrementTokensUsed("missing", 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminPassword(t *testing.T) {
	storage := setupTestDB(t)

	has, err := storage.HasAdminPassword()
	if err != nil {
		t.Fatalf("HasAdminPassword failed: %v", err)
	}
	if has {
		t.Error("expected no admin password initially")
	}

	if err := storage.SetAdminPasswordHash("hash-1"); err != nil {
		t.Fatalf("SetAdminPasswordHash failed: %v", err)
	}
	hash, err := storage.GetAdminPasswordHash()
	if err != nil {
		t.Fatalf("GetAdminPasswordHash failed: %v", err)
	}
	if hash != "hash-1" {
		t.Errorf("hash = %q, want %q", hash, "hash-1")
	}

	// Overwrite is an upsert.
	if err := storage.SetAdminPasswordHash("hash-2"); err != nil {
		t.Fatalf("SetAdminPasswordHash failed: %v", err)
	}
	hash, _ = storage.GetAdminPasswordHash()
	if hash != "hash-2" {
		t.Errorf("hash = %q, want %q", hash, "hash-2")
	}
}
