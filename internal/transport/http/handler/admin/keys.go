package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/storage/models"
	"github.com/tokengate/tokengate/internal/transport/http/handler/shared"
)

// CreateKey mints a new API key with a token allocation
// (POST /api/admin/keys).
func (h *Handlers) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.WPUserID <= 0 {
		shared.WriteJSONError(w, "wp_user_id is required", http.StatusBadRequest)
		return
	}
	if req.TotalTokens <= 0 {
		shared.WriteJSONError(w, "total_tokens must be positive", http.StatusBadRequest)
		return
	}

	// Generate the key and store only its hash
	plainKey, err := storage.GenerateAPIKey()
	if err != nil {
		shared.WriteJSONError(w, "failed to generate key", http.StatusInternalServerError)
		return
	}
	hash, err := storage.HashSecret(plainKey, nil)
	if err != nil {
		shared.WriteJSONError(w, "failed to hash key", http.StatusInternalServerError)
		return
	}

	alloc := &models.Allocation{
		ID:                   uuid.New().String(),
		KeyPrefix:            storage.ExtractKeyPrefix(plainKey),
		KeyHash:              hash,
		WPUserID:             req.WPUserID,
		TotalTokensAllocated: req.TotalTokens,
		IsActive:             true,
	}

	if err := h.Storage.CreateAllocation(alloc); err != nil {
		shared.WriteJSONError(w, "failed to create key", http.StatusInternalServerError)
		return
	}

	// Return response with plaintext key (shown only once)
	resp := CreateKeyResponse{
		ID:          alloc.ID,
		WPUserID:    alloc.WPUserID,
		Key:         plainKey,
		KeyPrefix:   alloc.KeyPrefix,
		TotalTokens: alloc.TotalTokensAllocated,
		IsActive:    alloc.IsActive,
		CreatedAt:   alloc.CreatedAt,
	}
	shared.WriteJSON(w, resp, http.StatusCreated)
}

// ListKeys returns all allocations, masked (GET /api/admin/keys).
func (h *Handlers) ListKeys(w http.ResponseWriter, r *http.Request) {
	allocs, err := h.Storage.ListAllocations()
	if err != nil {
		shared.WriteJSONError(w, "failed to list keys", http.StatusInternalServerError)
		return
	}

	resp := make([]KeyResponse, 0, len(allocs))
	for _, a := range allocs {
		resp = append(resp, keyResponse(a))
	}
	shared.WriteJSON(w, map[string]any{"keys": resp}, http.StatusOK)
}

// UpdateKey changes an allocation's budget or active flag
// (PUT /api/admin/keys/{keyId}).
func (h *Handlers) UpdateKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("keyId")

	var req UpdateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	alloc, err := h.Storage.GetAllocation(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			shared.WriteJSONError(w, "key not found", http.StatusNotFound)
			return
		}
		shared.WriteJSONError(w, "failed to load key", http.StatusInternalServerError)
		return
	}

	if req.TotalTokens != nil {
		if *req.TotalTokens <= 0 {
			shared.WriteJSONError(w, "total_tokens must be positive", http.StatusBadRequest)
			return
		}
		alloc.TotalTokensAllocated = *req.TotalTokens
	}
	if req.IsActive != nil {
		alloc.IsActive = *req.IsActive
	}

	if err := h.Storage.UpdateAllocation(alloc); err != nil {
		shared.WriteJSONError(w, "failed to update key", http.StatusInternalServerError)
		return
	}

	// Deactivations must take effect immediately, not after cache expiry
	h.InvalidateKeyCache(alloc.KeyPrefix)

	shared.WriteJSON(w, keyResponse(alloc), http.StatusOK)
}

func keyResponse(a *models.Allocation) KeyResponse {
	return KeyResponse{
		ID:          a.ID,
		KeyPrefix:   a.KeyPrefix,
		WPUserID:    a.WPUserID,
		TotalTokens: a.TotalTokensAllocated,
		TokensUsed:  a.TokensUsed,
		IsActive:    a.IsActive,
		LastSync:    a.LastSyncWithWP,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
