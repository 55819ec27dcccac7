package admin

import "time"

// CreateKeyRequest is the body for POST /api/admin/keys.
type CreateKeyRequest struct {
	WPUserID    int64 `json:"wp_user_id"`
	TotalTokens int64 `json:"total_tokens"`
}

// CreateKeyResponse returns the plaintext key exactly once, at creation.
type CreateKeyResponse struct {
	ID          string    `json:"id"`
	WPUserID    int64     `json:"wp_user_id"`
	Key         string    `json:"key"`
	KeyPrefix   string    `json:"key_prefix"`
	TotalTokens int64     `json:"total_tokens_allocated"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// KeyResponse is the masked listing form of an allocation.
type KeyResponse struct {
	ID          string     `json:"id"`
	KeyPrefix   string     `json:"key_prefix"`
	WPUserID    int64      `json:"wp_user_id"`
	TotalTokens int64      `json:"total_tokens_allocated"`
	TokensUsed  int64      `json:"tokens_used"`
	IsActive    bool       `json:"is_active"`
	LastSync    *time.Time `json:"last_sync_with_wp,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UpdateKeyRequest is the body for PUT /api/admin/keys/{keyId}. Nil fields
// are left unchanged.
type UpdateKeyRequest struct {
	TotalTokens *int64 `json:"total_tokens,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// UserUsageResponse is the body for GET /api/admin/usage/{userId}.
type UserUsageResponse struct {
	WPUserID     int64   `json:"wp_user_id"`
	TotalTokens  int64   `json:"total_tokens_used"`
	RequestCount int64   `json:"request_count"`
	LastRequest  *string `json:"last_request"`
}
