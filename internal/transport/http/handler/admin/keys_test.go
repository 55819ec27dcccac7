package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tokengate/tokengate/internal/ledger"
	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/storage/models"
)

type memStore struct {
	allocs map[string]*models.Allocation
}

func newMemStore() *memStore {
	return &memStore{allocs: make(map[string]*models.Allocation)}
}

func (m *memStore) CreateAllocation(a *models.Allocation) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.allocs[a.ID] = a
	return nil
}

func (m *memStore) GetAllocation(id string) (*models.Allocation, error) {
	a, ok := m.allocs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memStore) GetAllocationsByPrefix(prefix string) ([]*models.Allocation, error) {
	var out []*models.Allocation
	for _, a := range m.allocs {
		if a.KeyPrefix == prefix {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListAllocations() ([]*models.Allocation, error) {
	out := make([]*models.Allocation, 0, len(m.allocs))
	for _, a := range m.allocs {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) UpdateAllocation(a *models.Allocation) error {
	if _, ok := m.allocs[a.ID]; !ok {
		return storage.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	m.allocs[a.ID] = a
	return nil
}

func (m *memStore) IncrementTokensUsed(id string, tokens int64) (int64, error) {
	a, ok := m.allocs[id]
	if !ok {
		return 0, storage.ErrNotFound
	}
	a.TokensUsed += tokens
	return a.TokensUsed, nil
}

func (m *memStore) GetAdminPasswordHash() (string, error) { return "", nil }
func (m *memStore) SetAdminPasswordHash(string) error     { return nil }
func (m *memStore) HasAdminPassword() (bool, error)       { return false, nil }
func (m *memStore) Close() error                          { return nil }

type fixedSummarizer struct {
	summary ledger.Summary
}

func (f fixedSummarizer) Summarize(int64) (ledger.Summary, error) { return f.summary, nil }

func TestCreateKey(t *testing.T) {
	store := newMemStore()
	h := New(store, fixedSummarizer{}, time.Now(), nil)

	body := `{"wp_user_id": 42, "total_tokens": 100000}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/keys", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateKey(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp CreateKeyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.Key, storage.APIKeyPrefix) {
		t.Errorf("key = %q, want tg_ prefix", resp.Key)
	}
	if resp.WPUserID != 42 || resp.TotalTokens != 100000 || !resp.IsActive {
		t.Errorf("response = %+v", resp)
	}

	// Only the hash is stored
	stored := store.allocs[resp.ID]
	if stored == nil {
		t.Fatal("allocation not persisted")
	}
	if stored.KeyHash == resp.Key || stored.KeyHash == "" {
		t.Error("plaintext key must not be stored")
	}
	if ok, _ := storage.VerifySecret(resp.Key, stored.KeyHash); !ok {
		t.Error("stored hash does not verify against returned key")
	}
}

func TestCreateKeyValidation(t *testing.T) {
	h := New(newMemStore(), fixedSummarizer{}, time.Now(), nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing user", `{"total_tokens": 1000}`},
		{"zero tokens", `{"wp_user_id": 1, "total_tokens": 0}`},
		{"malformed", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/keys", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.CreateKey(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestListKeysMasksSecrets(t *testing.T) {
	store := newMemStore()
	store.allocs["a1"] = &models.Allocation{
		ID: "a1", KeyPrefix: "tg_a1B2c3D4", KeyHash: "$argon2id$secret",
		WPUserID: 7, TotalTokensAllocated: 5000, TokensUsed: 120, IsActive: true,
	}
	h := New(store, fixedSummarizer{}, time.Now(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/keys", nil)
	w := httptest.NewRecorder()
	h.ListKeys(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "argon2id") {
		t.Error("key hash leaked in listing")
	}
	if !strings.Contains(w.Body.String(), `"key_prefix":"tg_a1B2c3D4"`) {
		t.Errorf("prefix missing: %s", w.Body.String())
	}
}

func TestUpdateKey(t *testing.T) {
	store := newMemStore()
	store.allocs["a1"] = &models.Allocation{
		ID: "a1", KeyPrefix: "tg_a1B2c3D4", WPUserID: 7,
		TotalTokensAllocated: 5000, IsActive: true,
	}
	h := New(store, fixedSummarizer{}, time.Now(), nil)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/admin/keys/{keyId}", h.UpdateKey)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/keys/a1",
		strings.NewReader(`{"total_tokens": 9000, "is_active": false}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	updated := store.allocs["a1"]
	if updated.TotalTokensAllocated != 9000 || updated.IsActive {
		t.Errorf("allocation = %+v", updated)
	}
}

func TestUpdateKeyNotFound(t *testing.T) {
	h := New(newMemStore(), fixedSummarizer{}, time.Now(), nil)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/admin/keys/{keyId}", h.UpdateKey)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/keys/missing", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetUserUsage(t *testing.T) {
	last := "2026-08-30 10:00:00"
	h := New(newMemStore(), fixedSummarizer{summary: ledger.Summary{
		TotalTokens: 357, RequestCount: 3, LastRequest: &last,
	}}, time.Now(), nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/usage/{userId}", h.GetUserUsage)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/usage/7", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp UserUsageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.WPUserID != 7 || resp.TotalTokens != 357 || resp.RequestCount != 3 {
		t.Errorf("response = %+v", resp)
	}
	if resp.LastRequest == nil || *resp.LastRequest != last {
		t.Errorf("last_request = %v", resp.LastRequest)
	}
}

func TestGetUserUsageInvalidID(t *testing.T) {
	h := New(newMemStore(), fixedSummarizer{}, time.Now(), nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/usage/{userId}", h.GetUserUsage)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/usage/abc", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
